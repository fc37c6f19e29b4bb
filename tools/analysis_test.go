package tools

import (
	"context"
	"reflect"
	"testing"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/interpreters"
	"github.com/Comcast/pathways/loader"
)

func TestAnalysis(t *testing.T) {
	e := &core.Exploration{
		Id:        "x",
		InitState: "a",
		States: map[string]*core.State{
			"a": state(rule("Equals", "b"), rule("Default", "a")),
			"b": state(rule("Equals", core.End), rule("Default", "c")),
			"c": state(rule("Default", "c")),
			"d": state(rule("Default", "a")),
		},
	}
	e.States["a"].Widget.Handlers[0].Rules[0].GuardSource = &core.GuardSource{
		Interpreter: "goja",
		Source:      "return true;",
	}

	a, err := Analyze(e)
	if err != nil {
		t.Fatal(err)
	}
	if a.StateCount != 4 || a.Handlers != 4 || a.Rules != 7 || a.Guards != 1 {
		t.Fatalf("%#v", a)
	}
	if !reflect.DeepEqual(a.Unreachable, []string{"d"}) {
		t.Fatal(a.Unreachable)
	}
	if !reflect.DeepEqual(a.Finishing, []string{"b"}) {
		t.Fatal(a.Finishing)
	}
	if !reflect.DeepEqual(a.DeadEnds, []string{"c"}) {
		t.Fatal(a.DeadEnds)
	}
	if !reflect.DeepEqual(a.Interpreters, []string{"goja"}) {
		t.Fatal(a.Interpreters)
	}
	if a.Operators["Default"] != 4 {
		t.Fatal(a.Operators)
	}
}

func TestAnalysisMissing(t *testing.T) {
	e := &core.Exploration{
		Id:        "x",
		InitState: "a",
		States: map[string]*core.State{
			"a": state(rule("Default", "nowhere")),
		},
	}
	a, err := Analyze(e)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.MissingDests, []string{"nowhere"}) {
		t.Fatal(a.MissingDests)
	}
	if _, err := Analyze(nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAnalysisSamples(t *testing.T) {
	es, err := loader.ReadDir(context.Background(), "../explorations", interpreters.Standard(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range es {
		a, err := Analyze(e)
		if err != nil {
			t.Fatal(err)
		}
		if len(a.Unreachable) != 0 || len(a.DeadEnds) != 0 {
			t.Fatalf("%s: %#v", e.Id, a)
		}
	}
}

func rule(name, dest string) *core.Rule {
	return &core.Rule{
		Name:   name,
		Inputs: map[string]interface{}{"x": "cat"},
		Dest:   dest,
	}
}

func state(rs ...*core.Rule) *core.State {
	return &core.State{
		Content: []core.Content{{Type: core.TextContent, Value: "<p>Hi.</p>"}},
		Widget: &core.Widget{
			WidgetId: "TextInput",
			Handlers: []*core.Handler{{Name: "submit", Rules: rs}},
		},
	}
}
