package endpoint

import "github.com/kbukum/fluxmux/errors"

// ValidateBridge rejects endpoint pairings a bridge cannot run.
func ValidateBridge(source, sink Spec) error {
	return ValidatePipe(source, []Spec{sink})
}

// ValidatePipe rejects endpoint pairings a pipe cannot run. A file source
// cannot feed a file sink.
func ValidatePipe(source Spec, sinks []Spec) error {
	if source.Kind != KindFile {
		return nil
	}
	for _, sink := range sinks {
		if sink.Kind == KindFile {
			return errors.InvalidEndpoint(sink.String(), "file to file is not supported").
				WithDetail("source", source.String())
		}
	}
	return nil
}
