// Package codec converts between fluxmux's JSON value trees and static file
// formats.
//
// Every codec decodes into a canonical JSON tree: nil, bool, float64,
// string, []any and map[string]any. Encoders accept the same trees.
package codec

import (
	"path/filepath"
	"strings"

	"github.com/kbukum/fluxmux/errors"
)

// Format names a codec.
type Format string

const (
	JSON    Format = "json"
	NDJSON  Format = "ndjson"
	CSV     Format = "csv"
	YAML    Format = "yaml"
	TOML    Format = "toml"
	MsgPack Format = "msgpack"
	CBOR    Format = "cbor"
	Avro    Format = "avro"
	Parquet Format = "parquet"
)

var aliases = map[string]Format{
	"json":    JSON,
	"ndjson":  NDJSON,
	"jsonl":   NDJSON,
	"csv":     CSV,
	"yaml":    YAML,
	"yml":     YAML,
	"toml":    TOML,
	"msgpack": MsgPack,
	"mpk":     MsgPack,
	"cbor":    CBOR,
	"avro":    Avro,
	"parquet": Parquet,
}

// ParseFormat resolves a format name or file extension, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))]
	if !ok {
		return "", errors.UnsupportedFormat(name)
	}
	return f, nil
}

// FormatFromPath maps a file extension to its format.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Codec decodes and encodes one format.
type Codec interface {
	Decode(data []byte) (any, error)
	Encode(value any) ([]byte, error)
}

var registry = map[Format]Codec{
	JSON:    jsonCodec{},
	NDJSON:  ndjsonCodec{},
	CSV:     csvCodec{},
	YAML:    yamlCodec{},
	TOML:    tomlCodec{},
	MsgPack: msgpackCodec{},
	CBOR:    newCBORCodec(),
	Avro:    avroCodec{},
}

// Lookup returns the codec for f.
func Lookup(f Format) (Codec, error) {
	c, ok := registry[f]
	if !ok {
		return nil, errors.UnsupportedFormat(string(f))
	}
	return c, nil
}

// Decode decodes data in format f into a canonical JSON tree.
func Decode(f Format, data []byte) (any, error) {
	c, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(data)
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.DecodeFailed(string(f)+" input", err)
	}
	return Canonical(v), nil
}

// Encode encodes a JSON tree in format f.
func Encode(f Format, value any) ([]byte, error) {
	c, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	out, err := c.Encode(value)
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.InvalidInput(string(f), err.Error()).WithCause(err)
	}
	return out, nil
}
