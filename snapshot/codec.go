package snapshot

import (
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Codec names the encoding of the model payload. The name is stored in the
// header, so a snapshot is always decoded with the codec that wrote it.
type Codec string

const (
	// CodecJSON uses encoding/json.
	CodecJSON Codec = "json"
	// CodecGoJSON uses github.com/goccy/go-json. Its output is plain JSON,
	// so either codec reads the other's payload.
	CodecGoJSON Codec = "go-json"
)

// DefaultCodec is used when WithCodec is not given.
const DefaultCodec = CodecGoJSON

type modelCodec struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var codecs = map[Codec]modelCodec{
	CodecJSON:   {marshal: json.Marshal, unmarshal: json.Unmarshal},
	CodecGoJSON: {marshal: gojson.Marshal, unmarshal: gojson.Unmarshal},
}

func lookupCodec(c Codec) (modelCodec, error) {
	mc, ok := codecs[c]
	if !ok {
		return modelCodec{}, fmt.Errorf("%w: %q", ErrUnknownCodec, string(c))
	}
	return mc, nil
}
