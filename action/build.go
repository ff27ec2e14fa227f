package action

import (
	"strconv"
	"strings"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/schema"
)

// TeeKeyword separates actions from the extra sinks on a pipe command line.
const TeeKeyword = "tee"

// Step is one action named on the command line.
type Step struct {
	Name  string
	Param string
}

func (s Step) String() string {
	if s.Param == "" {
		return s.Name
	}
	return s.Name + " " + s.Param
}

type paramKind int

const (
	paramRequired paramKind = iota
	paramOptional
)

var knownActions = map[string]paramKind{
	"filter":    paramRequired,
	"transform": paramRequired,
	"aggregate": paramRequired,
	"limit":     paramRequired,
	"sample":    paramRequired,
	"normalize": paramOptional,
	"validate":  paramOptional,
}

// Parse splits "[action [param]]... [tee sink...]" into steps and sinks.
// normalize and validate take the next argument as a schema path unless it
// names another action or starts the tee list.
func Parse(args []string) ([]Step, []string, error) {
	var steps []Step
	for i := 0; i < len(args); i++ {
		name := strings.ToLower(args[i])
		if name == TeeKeyword {
			sinks := args[i+1:]
			if len(sinks) == 0 {
				return nil, nil, errors.InvalidInput("tee", "at least one sink is required")
			}
			return steps, sinks, nil
		}

		kind, ok := knownActions[name]
		if !ok {
			return nil, nil, errors.InvalidInput("action", "unknown action "+strconv.Quote(args[i]))
		}

		step := Step{Name: name}
		hasNext := i+1 < len(args)
		switch kind {
		case paramRequired:
			if !hasNext {
				return nil, nil, errors.InvalidInput(name, "a parameter is required")
			}
			i++
			step.Param = args[i]
		case paramOptional:
			if hasNext && !isKeyword(args[i+1]) {
				i++
				step.Param = args[i]
			}
		}
		steps = append(steps, step)
	}
	return steps, nil, nil
}

func isKeyword(arg string) bool {
	arg = strings.ToLower(arg)
	if arg == TeeKeyword {
		return true
	}
	_, ok := knownActions[arg]
	return ok
}

// New builds a single action.
func New(step Step, log *logger.Logger) (Action, error) {
	switch step.Name {
	case "filter":
		f, err := NewFilter(step.Param)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "transform":
		t, err := NewTransform(step.Param)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "aggregate":
		a, err := NewAggregate(step.Param)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "limit":
		n, err := strconv.Atoi(strings.TrimSpace(step.Param))
		if err != nil || n < 0 {
			return nil, errors.InvalidInput("limit", "expected a non-negative integer")
		}
		return NewLimit(n), nil
	case "sample":
		n, err := strconv.Atoi(strings.TrimSpace(step.Param))
		if err != nil || n <= 0 {
			return nil, errors.InvalidInput("sample", "expected a positive integer")
		}
		return NewSample(n), nil
	case "normalize", "validate":
		var doc *schema.Document
		if step.Param != "" {
			var err error
			if doc, err = schema.Load(step.Param); err != nil {
				return nil, err
			}
		}
		if step.Name == "normalize" {
			return NewNormalize(doc), nil
		}
		return NewValidate(doc, log), nil
	}
	return nil, errors.InvalidInput("action", "unknown action "+strconv.Quote(step.Name))
}

// Build assembles the chain for steps in order.
func Build(steps []Step, log *logger.Logger) (*Chain, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("action")
	chain := NewChain(log)
	for _, step := range steps {
		a, err := New(step, log)
		if err != nil {
			return nil, err
		}
		chain.Add(a)
	}
	log.Debug("action chain built", logger.Fields("actions", chain.Names()))
	return chain, nil
}
