package codec

import (
	"os"

	"github.com/kbukum/fluxmux/errors"
)

// Convert reads in as format from and writes it to out as format to.
// Empty formats are inferred from the file extensions.
func Convert(in, out string, from, to Format) error {
	var ok bool
	if from == "" {
		if from, ok = FormatFromPath(in); !ok {
			return errors.InvalidInput("from", "cannot infer the input format of "+in)
		}
	}
	if to == "" {
		if to, ok = FormatFromPath(out); !ok {
			return errors.InvalidInput("to", "cannot infer the output format of "+out)
		}
	}
	if _, err := Lookup(from); err != nil {
		return err
	}
	if _, err := Lookup(to); err != nil {
		return err
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return errors.InvalidInput("input", err.Error()).WithCause(err)
	}
	value, err := Decode(from, data)
	if err != nil {
		return err
	}
	encoded, err := Encode(to, value)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return errors.Internal(err)
	}
	return nil
}
