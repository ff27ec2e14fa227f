package action

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/schema"
	"github.com/kbukum/fluxmux/testutil"
)

func run(t *testing.T, a Action, payload string) []message.Message {
	t.Helper()
	out, err := a.Execute(context.Background(), testutil.MustJSON(t, payload))
	if err != nil {
		t.Fatalf("Execute(%s): %v", payload, err)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		expr    string
		payload string
		want    bool
	}{
		{"temp>20", `{"temp":25}`, true},
		{"temp>20", `{"temp":20}`, false},
		{"temp>=20", `{"temp":20}`, true},
		{"temp<=20", `{"temp":21}`, false},
		{"temp < 20", `{"temp":3}`, true},
		{"temp==20", `{"temp":20.0}`, true},
		{"temp!=20", `{"temp":20}`, false},
		{"temp!=20", `{"temp":21}`, true},
		{"temp>20", `{"temp":"25"}`, true},
		{"city==Paris", `{"city":"Paris"}`, true},
		{`city=="Paris"`, `{"city":"Paris"}`, true},
		{"city=='Paris'", `{"city":"Paris"}`, true},
		{"city!=Paris", `{"city":"Rome"}`, true},
		{"city!=Paris", `{"city":"Paris"}`, false},
		{"city>Paris", `{"city":"Rome"}`, false},
		{"ok==true", `{"ok":true}`, true},
		{"ok!=true", `{"ok":false}`, true},
		{"temp>20", `{"other":1}`, false},
		{"temp>20", `[1,2]`, false},
		{"temp==x", `{"temp":null}`, false},
	}
	for _, tc := range tests {
		t.Run(tc.expr+" "+tc.payload, func(t *testing.T) {
			f, err := NewFilter(tc.expr)
			if err != nil {
				t.Fatalf("NewFilter: %v", err)
			}
			if got := len(run(t, f, tc.payload)) == 1; got != tc.want {
				t.Errorf("kept = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter_UndecodedPasses(t *testing.T) {
	f, _ := NewFilter("a>1")
	out, err := f.Execute(context.Background(), message.New([]byte("raw"), message.FormatText))
	if err != nil || len(out) != 1 {
		t.Errorf("undecoded message must pass, got %v %v", out, err)
	}
}

func TestNewFilter_Invalid(t *testing.T) {
	for _, expr := range []string{"temp", "", ">3"} {
		if _, err := NewFilter(expr); !errors.IsAppError(err) {
			t.Errorf("NewFilter(%q): expected AppError, got %v", expr, err)
		}
	}
}

func TestTransform(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		payload string
		want    string
	}{
		{"fahrenheit", "f=c*1.8+32", `{"c":100}`, `{"c":100,"f":212}`},
		{"left to right", "x=2+3*4", `{}`, `{"x":20}`},
		{"string literal", `label="hot"`, `{"a":1}`, `{"a":1,"label":"hot"}`},
		{"single quoted", "label='cold'", `{}`, `{"label":"cold"}`},
		{"field copy", "name2=name", `{"name":"bob"}`, `{"name":"bob","name2":"bob"}`},
		{"numeric string copied as is", "z=zip", `{"zip":"02134"}`, `{"zip":"02134","z":"02134"}`},
		{"missing field skipped", "x=nope", `{"a":1}`, `{"a":1}`},
		{"division by zero skipped", "x=a/0", `{"a":1}`, `{"a":1}`},
		{"leading minus", "neg=-a", `{"a":4}`, `{"a":4,"neg":-4}`},
		{"whitespace", "s = a + b", `{"a":1,"b":2}`, `{"a":1,"b":2,"s":3}`},
		{"sees entry value", "a=a*2,b=a", `{"a":3}`, `{"a":6,"b":3}`},
		{"overwrite", "a=a+1", `{"a":1}`, `{"a":2}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := NewTransform(tc.spec)
			if err != nil {
				t.Fatalf("NewTransform: %v", err)
			}
			out := run(t, tr, tc.payload)
			if len(out) != 1 {
				t.Fatalf("expected one output, got %d", len(out))
			}
			var got, want any
			_ = json.Unmarshal(out[0].Payload, &got)
			_ = json.Unmarshal([]byte(tc.want), &want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("payload = %s, want %s", out[0].Payload, tc.want)
			}
			parsed, _ := out[0].Parsed()
			if !reflect.DeepEqual(parsed, want) {
				t.Errorf("parsed value out of sync with payload: %v", parsed)
			}
		})
	}
}

func TestTransform_NonObjectPasses(t *testing.T) {
	tr, _ := NewTransform("a=1")
	out := run(t, tr, `[1,2]`)
	if len(out) != 1 || string(out[0].Payload) != `[1,2]` {
		t.Errorf("non-object must pass unchanged, got %v", out)
	}
}

func TestNewTransform_Invalid(t *testing.T) {
	for _, spec := range []string{"", "noequals", "=3"} {
		if _, err := NewTransform(spec); err == nil {
			t.Errorf("NewTransform(%q): expected error", spec)
		}
	}
}

func TestAggregate_GroupSum(t *testing.T) {
	agg, err := NewAggregate("by:g,sum:v")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	for _, p := range []string{`{"g":"x","v":10}`, `{"g":"x","v":20}`, `{"g":"y","v":5}`} {
		if out := run(t, agg, p); len(out) != 0 {
			t.Fatalf("aggregate must hold messages, got %d", len(out))
		}
	}

	out, err := agg.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := testutil.Payloads(out)
	want := []string{`{"g":"x","sum_v":30}`, `{"g":"y","sum_v":5}`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	again, _ := agg.Finalize(context.Background())
	if len(again) != 0 {
		t.Error("finalize must reset state")
	}
}

func TestAggregate_Operations(t *testing.T) {
	agg, err := NewAggregate("avg:v,min:v,max:v,count,count:w")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	for _, p := range []string{`{"v":2,"w":1}`, `{"v":"4"}`, `{"v":9}`, `{"x":1}`} {
		run(t, agg, p)
	}
	out, _ := agg.Finalize(context.Background())
	if len(out) != 1 {
		t.Fatalf("expected a single _all_ group, got %d", len(out))
	}
	want := `{"avg_v":5.5,"min_v":2,"max_v":9,"count":4,"count_w":4}`
	if string(out[0].Payload) != want {
		t.Errorf("got %s, want %s", out[0].Payload, want)
	}
}

func TestAggregate_CountIsGroupSize(t *testing.T) {
	agg, err := NewAggregate("by:g,count:v,avg:v")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	for _, p := range []string{`{"g":"x","v":10}`, `{"g":"x"}`, `{"g":"x","v":"20"}`} {
		run(t, agg, p)
	}
	out, _ := agg.Finalize(context.Background())
	got := testutil.Payloads(out)
	want := []string{`{"g":"x","count_v":3,"avg_v":10}`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAggregate_EmptyAndDefaultGroup(t *testing.T) {
	agg, _ := NewAggregate("by:g,avg:v,sum:v")
	run(t, agg, `{"v":"n/a"}`)
	run(t, agg, `{"g":3,"v":1}`)

	out, _ := agg.Finalize(context.Background())
	got := testutil.Payloads(out)
	want := []string{
		`{"g":"_default_","avg_v":null,"sum_v":0}`,
		`{"g":"3","avg_v":1,"sum_v":1}`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNewAggregate_Invalid(t *testing.T) {
	for _, spec := range []string{"", "by:g", "median:v", "sum", "by:"} {
		if _, err := NewAggregate(spec); err == nil {
			t.Errorf("NewAggregate(%q): expected error", spec)
		}
	}
}

func testSchema(t *testing.T) *schema.Document {
	t.Helper()
	doc, err := schema.Parse([]byte(`{"required":["id"],"properties":{"name":{},"id":{}}}`))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return doc
}

func TestNormalize(t *testing.T) {
	n := NewNormalize(testSchema(t))
	out := run(t, n, `{"id":1,"extra":true,"name":"a"}`)
	if string(out[0].Payload) != `{"name":"a","id":1}` {
		t.Errorf("unexpected payload %s", out[0].Payload)
	}
	if obj, _ := out[0].Object(); len(obj) != 2 {
		t.Errorf("parsed value must drop extra keys, got %v", obj)
	}

	out = run(t, n, `"scalar"`)
	if string(out[0].Payload) != `"scalar"` {
		t.Error("non-object must pass unchanged")
	}

	noop := NewNormalize(nil)
	out = run(t, noop, `{"b":1,"a":2}`)
	if string(out[0].Payload) != `{"b":1,"a":2}` {
		t.Error("normalize without schema must be a no-op")
	}
}

func TestValidate(t *testing.T) {
	v := NewValidate(testSchema(t), logger.NewNop())
	if out := run(t, v, `{"id":1}`); len(out) != 1 {
		t.Error("valid message dropped")
	}
	if out := run(t, v, `{"name":"a"}`); len(out) != 0 {
		t.Error("message without id must be dropped")
	}
	if out := run(t, NewValidate(nil, nil), `{}`); len(out) != 1 {
		t.Error("validate without schema must pass")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSteps []Step
		wantSinks []string
	}{
		{"empty", nil, nil, nil},
		{
			"actions and tee",
			[]string{"filter", "temp>20", "limit", "5", "tee", "file:a.json", "-"},
			[]Step{{"filter", "temp>20"}, {"limit", "5"}},
			[]string{"file:a.json", "-"},
		},
		{
			"optional param absent",
			[]string{"validate", "limit", "2"},
			[]Step{{"validate", ""}, {"limit", "2"}},
			nil,
		},
		{
			"optional param present",
			[]string{"normalize", "s.json", "tee", "-"},
			[]Step{{"normalize", "s.json"}},
			[]string{"-"},
		},
		{
			"optional param before tee",
			[]string{"validate", "tee", "-"},
			[]Step{{"validate", ""}},
			[]string{"-"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			steps, sinks, err := Parse(tc.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(steps, tc.wantSteps) {
				t.Errorf("steps = %v, want %v", steps, tc.wantSteps)
			}
			if !reflect.DeepEqual(sinks, tc.wantSinks) {
				t.Errorf("sinks = %v, want %v", sinks, tc.wantSinks)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"explode"},
		{"filter"},
		{"limit", "1", "tee"},
	} {
		if _, _, err := Parse(args); !errors.IsAppError(err) {
			t.Errorf("Parse(%v): expected AppError, got %v", args, err)
		}
	}
}

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	if err := os.WriteFile(path, []byte(`{"required":["id"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	chain, err := Build([]Step{
		{"filter", "v>1"},
		{"transform", "w=v*2"},
		{"validate", path},
		{"sample", "1"},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(chain.Names(), []string{"filter", "transform", "validate", "sample"}) {
		t.Errorf("unexpected names %v", chain.Names())
	}

	out := chain.Execute(context.Background(), testutil.MustJSON(t, `{"id":1,"v":2}`))
	if len(out) != 1 {
		t.Fatalf("expected one output, got %d", len(out))
	}
	if obj, _ := out[0].Object(); obj["w"] != 4.0 {
		t.Errorf("unexpected output %s", out[0].Payload)
	}
}

func TestBuild_Invalid(t *testing.T) {
	for _, step := range []Step{
		{"limit", "-1"},
		{"sample", "0"},
		{"sample", "x"},
		{"validate", "/nonexistent.json"},
		{"nope", ""},
	} {
		if _, err := Build([]Step{step}, nil); err == nil {
			t.Errorf("Build(%v): expected error", step)
		}
	}
}
