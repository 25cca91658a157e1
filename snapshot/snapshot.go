package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/apcluster"
	"github.com/hupe1980/apcluster/blobstore"
)

const (
	magic   = "APCM"
	version = 1

	// fixed header bytes before the codec name
	prefixSize = 8
	// fixed header bytes after the codec name
	suffixSize = 12

	maxPayload = 1 << 30
)

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

	// ErrChecksumMismatch is returned when the payload is corrupt.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

	// ErrUnknownCodec is returned when the header names a codec that is not built in.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")

	// ErrUnknownCompression is returned for an unknown compression byte.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
)

type options struct {
	codec       Codec
	compression Compression
}

// Option configures Encode and Save.
type Option func(*options)

// WithCodec sets the model codec. Default: DefaultCodec.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != "" {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression. Default: CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Encode writes m to w.
func Encode(w io.Writer, m *apcluster.Model, optFns ...Option) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", apcluster.ErrInvalidInput)
	}

	opts := options{codec: DefaultCodec, compression: CompressionNone}
	for _, fn := range optFns {
		fn(&opts)
	}

	mc, err := lookupCodec(opts.codec)
	if err != nil {
		return err
	}

	name := string(opts.codec)

	raw, err := mc.marshal(m)
	if err != nil {
		return fmt.Errorf("snapshot: encode model: %w", err)
	}

	if len(raw) > maxPayload {
		return fmt.Errorf("snapshot: model too large (%d bytes)", len(raw))
	}

	payload, used, err := compress(raw, opts.compression)
	if err != nil {
		return err
	}

	header := make([]byte, prefixSize+len(name)+suffixSize)
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], version)
	header[6] = byte(used)
	header[7] = byte(len(name))
	copy(header[prefixSize:], name)

	off := prefixSize + len(name)
	binary.LittleEndian.PutUint32(header[off:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(header[off+4:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[off+8:], crc32.ChecksumIEEE(payload))

	if _, err := w.Write(header); err != nil {
		return err
	}

	if _, err := w.Write(payload); err != nil {
		return err
	}

	return nil
}

// Decode reads a model written by Encode.
func Decode(r io.Reader) (*apcluster.Model, error) {
	prefix := make([]byte, prefixSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}

		return nil, err
	}

	if string(prefix[0:4]) != magic {
		return nil, ErrBadMagic
	}

	if v := binary.LittleEndian.Uint16(prefix[4:6]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	comp := Compression(prefix[6])

	rest := make([]byte, int(prefix[7])+suffixSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	name := string(rest[:prefix[7]])

	mc, err := lookupCodec(Codec(name))
	if err != nil {
		return nil, err
	}

	off := int(prefix[7])
	rawLen := binary.LittleEndian.Uint32(rest[off:])
	payloadLen := binary.LittleEndian.Uint32(rest[off+4:])
	checksum := binary.LittleEndian.Uint32(rest[off+8:])

	if rawLen > maxPayload || payloadLen > maxPayload {
		return nil, fmt.Errorf("snapshot: payload too large (%d bytes)", max(rawLen, payloadLen))
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("snapshot: read payload: %w", err)
	}

	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, ErrChecksumMismatch
	}

	raw, err := decompress(payload, comp, int(rawLen))
	if err != nil {
		return nil, err
	}

	m := &apcluster.Model{}
	if err := mc.unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("snapshot: decode model: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Save encodes m and stores it under name.
func Save(ctx context.Context, store blobstore.Store, name string, m *apcluster.Model, optFns ...Option) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, optFns...); err != nil {
		return err
	}

	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("snapshot: put %s: %w", name, err)
	}

	return nil
}

// Load reads and decodes the snapshot stored under name.
func Load(ctx context.Context, store blobstore.Store, name string) (*apcluster.Model, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: get %s: %w", name, err)
	}

	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return m, nil
}
