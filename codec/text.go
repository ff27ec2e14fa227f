package codec

import (
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/fluxmux/errors"
)

type yamlCodec struct{}

func (yamlCodec) Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (yamlCodec) Encode(value any) ([]byte, error) {
	return yaml.Marshal(value)
}

// tomlCodec handles documents whose top level is a table.
type tomlCodec struct{}

func (tomlCodec) Decode(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode writes an object as a TOML document. TOML has no null, so nil
// values are left out.
func (tomlCodec) Encode(value any) ([]byte, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errors.InvalidInput("toml", "top-level value must be an object")
	}
	return toml.Marshal(withoutNulls(obj))
}

func withoutNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = withoutNulls(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			if val == nil {
				continue
			}
			out = append(out, withoutNulls(val))
		}
		return out
	}
	return v
}
