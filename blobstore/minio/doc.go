// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and also works against Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "models/")
//	err = snapshot.Save(ctx, store, "customers.apcm", res.Model())
//
// Dial is a shortcut for the static-credential case:
//
//	store, err := minioblob.Dial("localhost:9000", "minioadmin", "minioadmin", false, "my-bucket", "models/")
package minio
