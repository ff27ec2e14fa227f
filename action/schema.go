package action

import (
	"context"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/schema"
)

// Normalize keeps only the keys listed in the schema's properties, written
// in schema order. Without a schema it passes messages unchanged.
type Normalize struct {
	doc *schema.Document
}

// NewNormalize returns a normalizer for doc, which may be nil.
func NewNormalize(doc *schema.Document) *Normalize {
	return &Normalize{doc: doc}
}

func (n *Normalize) Name() string { return "normalize" }

func (n *Normalize) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	if n.doc == nil || len(n.doc.Properties) == 0 {
		return []message.Message{msg}, nil
	}
	obj, ok := msg.Object()
	if !ok {
		return []message.Message{msg}, nil
	}

	kept := make(map[string]any, len(n.doc.Properties))
	for _, k := range n.doc.Properties {
		if v, ok := obj[k]; ok {
			kept[k] = v
		}
	}
	out, err := orderedMessage(msg, n.doc.Properties, kept)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return []message.Message{out}, nil
}

// Validate drops messages whose decoded object lacks a required field.
type Validate struct {
	doc *schema.Document
	log *logger.Logger
}

// NewValidate returns a validator for doc, which may be nil.
func NewValidate(doc *schema.Document, log *logger.Logger) *Validate {
	if log == nil {
		log = logger.NewNop()
	}
	return &Validate{doc: doc, log: log}
}

func (v *Validate) Name() string { return "validate" }

func (v *Validate) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	value, ok := msg.Parsed()
	if !ok {
		return []message.Message{msg}, nil
	}
	if field, missing := v.doc.Missing(value); missing {
		v.log.Warn("message failed validation", logger.Fields(
			"missing_field", field,
			"id", msg.ID,
		))
		return nil, nil
	}
	return []message.Message{msg}, nil
}
