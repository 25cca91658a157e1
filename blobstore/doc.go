// Package blobstore provides storage abstraction for persisted clustering
// models.
//
// Store is the interface for reading and writing whole blobs. Snapshots are
// small and written once, so the interface deals in byte slices rather than
// streams. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic temp-file + rename writes
//   - MemoryStore: In-memory, for tests
//   - CachingStore: LRU read cache in front of any Store
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Put(ctx, name, data) error         // Atomic write
//	    Get(ctx, name) ([]byte, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs are reported with an error matching ErrNotFound.
package blobstore
