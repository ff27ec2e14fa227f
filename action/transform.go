package action

import (
	"context"
	stderrors "errors"
	"maps"
	"strconv"
	"strings"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/message"
)

var (
	errDivisionByZero = stderrors.New("division by zero")
	errNotArithmetic  = stderrors.New("not an arithmetic expression")
)

type assignment struct {
	field string
	expr  string
}

// Transform sets object fields from expressions. Every expression sees the
// object as it was when the message arrived.
type Transform struct {
	assignments []assignment
}

// NewTransform parses "field=expr[,field=expr...]".
func NewTransform(spec string) (*Transform, error) {
	t := &Transform{}
	for _, part := range strings.Split(spec, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		field, expr, ok := strings.Cut(part, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, errors.InvalidInput("transform", "expected field=expr, got "+strconv.Quote(part))
		}
		t.assignments = append(t.assignments, assignment{field: field, expr: strings.TrimSpace(expr)})
	}
	if len(t.assignments) == 0 {
		return nil, errors.InvalidInput("transform", "no assignments given")
	}
	return t, nil
}

func (t *Transform) Name() string { return "transform" }

func (t *Transform) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	obj, ok := msg.Object()
	if !ok {
		return []message.Message{msg}, nil
	}

	updated := maps.Clone(obj)
	for _, a := range t.assignments {
		if v, ok := evaluate(obj, a.expr); ok {
			updated[a.field] = v
		}
	}

	out, err := msg.WithValue(updated)
	if err != nil {
		return nil, errors.DecodeFailed("transformed value", err)
	}
	return []message.Message{out}, nil
}

// evaluate resolves expr against obj: a quoted literal, then arithmetic,
// then a plain field reference.
func evaluate(obj map[string]any, expr string) (any, bool) {
	if len(expr) >= 2 && unquote(expr) != expr {
		return unquote(expr), true
	}

	n, err := arithmetic(obj, expr)
	switch {
	case err == nil:
		return n, true
	case stderrors.Is(err, errDivisionByZero):
		return nil, false
	}

	v, ok := obj[expr]
	return v, ok
}

// arithmetic evaluates + - * / strictly left to right, starting from 0 with
// an implicit leading "+". Whitespace is ignored. Operands are number
// literals or fields holding JSON numbers.
func arithmetic(obj map[string]any, expr string) (float64, error) {
	expr = strings.Join(strings.Fields(expr), "")
	if expr == "" {
		return 0, errNotArithmetic
	}

	result := 0.0
	op := byte('+')
	operand := strings.Builder{}
	first := true

	apply := func() error {
		tok := operand.String()
		operand.Reset()
		if tok == "" {
			if first {
				return nil
			}
			return errNotArithmetic
		}
		first = false
		num, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			v, ok := toNumber(obj[tok], false)
			if !ok {
				return errNotArithmetic
			}
			num = v
		}
		switch op {
		case '+':
			result += num
		case '-':
			result -= num
		case '*':
			result *= num
		case '/':
			if num == 0 {
				return errDivisionByZero
			}
			result /= num
		}
		return nil
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '+', '-', '*', '/':
			if err := apply(); err != nil {
				return 0, err
			}
			op = c
		default:
			operand.WriteByte(c)
		}
	}
	if operand.Len() == 0 {
		return 0, errNotArithmetic
	}
	if err := apply(); err != nil {
		return 0, err
	}
	return result, nil
}
