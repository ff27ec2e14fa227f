package action

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/message"
)

const (
	defaultGroup = "_default_"
	allGroup     = "_all_"
)

var aggregateOps = []string{"avg", "sum", "min", "max", "count"}

type aggregation struct {
	op    string
	field string
}

func (a aggregation) key() string {
	if a.field == "" {
		return a.op
	}
	return a.op + "_" + a.field
}

// Aggregate holds every decoded message and emits one summary record per
// group when the stream ends.
type Aggregate struct {
	groupBy string
	ops     []aggregation

	order  []string
	groups map[string][]any
}

// NewAggregate parses "[by:field,]op:field[,op:field...]". count may be
// given without a field.
func NewAggregate(spec string) (*Aggregate, error) {
	a := &Aggregate{groups: make(map[string][]any)}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op, field, _ := strings.Cut(part, ":")
		op, field = strings.ToLower(strings.TrimSpace(op)), strings.TrimSpace(field)

		if op == "by" {
			if field == "" {
				return nil, errors.InvalidInput("aggregate", "by needs a field")
			}
			a.groupBy = field
			continue
		}
		if !slices.Contains(aggregateOps, op) {
			return nil, errors.InvalidInput("aggregate", "unknown operation "+strconv.Quote(op))
		}
		if field == "" && op != "count" {
			return nil, errors.InvalidInput("aggregate", op+" needs a field")
		}
		a.ops = append(a.ops, aggregation{op: op, field: field})
	}
	if len(a.ops) == 0 {
		return nil, errors.InvalidInput("aggregate", "no operations given")
	}
	return a, nil
}

func (a *Aggregate) Name() string { return "aggregate" }

func (a *Aggregate) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	value, ok := msg.Parsed()
	if !ok {
		return nil, nil
	}
	key := a.groupKey(value)
	if _, seen := a.groups[key]; !seen {
		a.order = append(a.order, key)
	}
	a.groups[key] = append(a.groups[key], value)
	return nil, nil
}

// Finalize emits one record per group in first-seen order and resets state.
func (a *Aggregate) Finalize(context.Context) ([]message.Message, error) {
	out := make([]message.Message, 0, len(a.order))
	for _, key := range a.order {
		obj, keys := a.summarize(key, a.groups[key])
		msg, err := orderedMessage(message.New(nil, message.FormatJSON), keys, obj)
		if err != nil {
			return nil, errors.Internal(err)
		}
		out = append(out, msg)
	}
	a.order = nil
	a.groups = make(map[string][]any)
	return out, nil
}

func (a *Aggregate) groupKey(value any) string {
	if a.groupBy == "" {
		return allGroup
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return defaultGroup
	}
	switch v := obj[a.groupBy].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return defaultGroup
}

func (a *Aggregate) summarize(group string, values []any) (map[string]any, []string) {
	obj := make(map[string]any, len(a.ops)+1)
	keys := make([]string, 0, len(a.ops)+1)
	if a.groupBy != "" {
		obj[a.groupBy] = group
		keys = append(keys, a.groupBy)
	}

	for _, agg := range a.ops {
		k := agg.key()
		keys = append(keys, k)

		if agg.op == "count" {
			obj[k] = float64(len(values))
			continue
		}
		nums := numbersOf(values, agg.field)
		switch agg.op {
		case "sum":
			total := 0.0
			for _, n := range nums {
				total += n
			}
			obj[k] = total
		case "avg":
			if len(nums) == 0 {
				obj[k] = nil
				continue
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			obj[k] = total / float64(len(nums))
		case "min":
			obj[k] = fold(nums, math.Min)
		case "max":
			obj[k] = fold(nums, math.Max)
		}
	}
	return obj, keys
}

func fold(nums []float64, f func(a, b float64) float64) any {
	if len(nums) == 0 {
		return nil
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc = f(acc, n)
	}
	return acc
}

// numbersOf collects field from every object value that holds a JSON number.
// Numeric strings are skipped.
func numbersOf(values []any, field string) []float64 {
	var nums []float64
	for _, v := range values {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := toNumber(obj[field], false); ok {
			nums = append(nums, n)
		}
	}
	return nums
}
