package middleware

import (
	"context"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/schema"
)

// SchemaValidator drops messages whose decoded object lacks a required
// field. In strict mode the whole schema document is enforced as well.
type SchemaValidator struct {
	doc    *schema.Document
	strict *schema.Strict
	log    *logger.Logger
}

// NewSchemaValidator returns a validator for doc. A nil doc accepts everything.
func NewSchemaValidator(doc *schema.Document, strict bool, log *logger.Logger) (*SchemaValidator, error) {
	sv := &SchemaValidator{doc: doc, log: log}
	if strict && doc != nil {
		compiled, err := doc.Compile()
		if err != nil {
			return nil, err
		}
		sv.strict = compiled
	}
	return sv, nil
}

func (s *SchemaValidator) Name() string { return "schema_validator" }

func (s *SchemaValidator) Handle(_ context.Context, msg message.Message) (message.Message, bool) {
	value, ok := msg.Parsed()
	if !ok || s.doc == nil {
		return msg, true
	}

	if field, missing := s.doc.Missing(value); missing {
		s.log.Warn("message failed schema validation", logger.Fields(
			"missing_field", field,
			"id", msg.ID,
		))
		return message.Message{}, false
	}

	if s.strict != nil {
		violations, err := s.strict.Violations(value)
		if err != nil {
			s.log.Warn("schema validation errored", logger.ErrorFields("validate", err))
			return message.Message{}, false
		}
		if len(violations) > 0 {
			s.log.Warn("message failed schema validation", logger.Fields(
				"violations", schema.Summary(violations),
				"id", msg.ID,
			))
			return message.Message{}, false
		}
	}
	return msg, true
}
