// Package snapshot persists apcluster models in a small self-describing
// binary envelope.
//
// # Format
//
//	Magic          4 bytes  "APCM"
//	Version        2 bytes  little endian
//	Compression    1 byte   None, LZ4 or ZSTD
//	CodecLen       1 byte
//	Codec          CodecLen bytes (e.g. "go-json")
//	RawLength      4 bytes  size of the encoded model before compression
//	PayloadLength  4 bytes
//	Checksum       4 bytes  CRC32 (IEEE) of the stored payload
//	Payload        PayloadLength bytes
//
// The codec and compression are read back from the header, so snapshots stay
// readable when the defaults change. Decoded models are validated before
// they are returned.
//
// # Usage
//
//	store := blobstore.NewLocalStore("/var/lib/apcluster")
//	if err := snapshot.Save(ctx, store, "customers.apcm", res.Model(),
//	    snapshot.WithCompression(snapshot.CompressionZSTD)); err != nil {
//	    return err
//	}
//
//	m, err := snapshot.Load(ctx, store, "customers.apcm")
package snapshot
