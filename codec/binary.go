package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

type msgpackCodec struct{}

func (msgpackCodec) Decode(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (msgpackCodec) Encode(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

type cborCodec struct {
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: invalid cbor decode options: " + err.Error())
	}
	return cborCodec{dec: dec}
}

func (c cborCodec) Decode(data []byte) (any, error) {
	var v any
	if err := c.dec.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (cborCodec) Encode(value any) ([]byte, error) {
	return cbor.Marshal(value)
}
