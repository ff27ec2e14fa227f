package action

import (
	"context"
	"strconv"
	"strings"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/message"
)

// Operators are searched in this order, so "a>=1" is never read as "a>" "=1".
var filterOps = []string{">=", "<=", ">", "<", "==", "!="}

// Filter keeps messages whose decoded object satisfies "field OP literal".
type Filter struct {
	field   string
	op      string
	literal string

	number   float64
	isNumber bool
}

// NewFilter parses expr.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range filterOps {
		field, literal, ok := strings.Cut(expr, op)
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, errors.InvalidInput("filter", "expression has no field name")
		}
		f := &Filter{field: field, op: op, literal: strings.TrimSpace(literal)}
		if n, err := strconv.ParseFloat(f.literal, 64); err == nil {
			f.number, f.isNumber = n, true
		}
		return f, nil
	}
	return nil, errors.InvalidInput("filter", "expression needs one of >=, <=, >, <, ==, !=")
}

func (f *Filter) Name() string { return "filter" }

func (f *Filter) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	value, ok := msg.Parsed()
	if !ok {
		return []message.Message{msg}, nil
	}
	if !f.Match(value) {
		return nil, nil
	}
	return []message.Message{msg}, nil
}

// Match reports whether value satisfies the expression.
func (f *Filter) Match(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	v, ok := obj[f.field]
	if !ok {
		return false
	}

	if f.isNumber {
		if a, ok := toNumber(v, true); ok {
			return compareNumbers(f.op, a, f.number)
		}
	}

	s, ok := stringForm(v)
	if !ok {
		return false
	}
	switch f.op {
	case "==":
		return s == unquote(f.literal)
	case "!=":
		return s != unquote(f.literal)
	}
	return false
}

func compareNumbers(op string, a, b float64) bool {
	switch op {
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case "<":
		return a < b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

// toNumber converts a decoded JSON number. When strs is set a string that
// parses as a float counts as well.
func toNumber(v any, strs bool) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		if !strs {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringForm(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// unquote strips one pair of matching double or single quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
