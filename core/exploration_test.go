package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCompileProblems(t *testing.T) {
	good := func() *Exploration {
		return &Exploration{
			Id:        "e",
			InitState: "a",
			States: map[string]*State{
				"a": {
					Content: []Content{{Type: TextContent, Value: "Hi"}},
					Widget: textWidget(false,
						&Rule{Name: "Equals", Inputs: map[string]interface{}{"x": "b"}, Dest: "b"},
						&Rule{Name: DefaultRule, Dest: "a"}),
				},
				"b": {
					Widget: textWidget(false, &Rule{Name: DefaultRule, Dest: End}),
				},
			},
		}
	}

	tests := []struct {
		name    string
		mangle  func(e *Exploration)
		problem string
	}{
		{
			name:    "no states",
			mangle:  func(e *Exploration) { e.States = nil },
			problem: "no states",
		},
		{
			name:    "bad init",
			mangle:  func(e *Exploration) { e.InitState = "z" },
			problem: "unknown initial state",
		},
		{
			name: "bad content",
			mangle: func(e *Exploration) {
				e.States["a"].Content[0].Type = "audio"
			},
			problem: "unknown content type",
		},
		{
			name: "no default",
			mangle: func(e *Exploration) {
				h := e.States["a"].Widget.Handlers[0]
				h.Rules = h.Rules[:1]
			},
			problem: "doesn't end with a default rule",
		},
		{
			name: "early default",
			mangle: func(e *Exploration) {
				h := e.States["a"].Widget.Handlers[0]
				h.Rules = append([]*Rule{{Name: DefaultRule, Dest: "a"}}, h.Rules...)
			},
			problem: "default rule before the end",
		},
		{
			name: "unsupported operator",
			mangle: func(e *Exploration) {
				e.States["a"].Widget.Handlers[0].Rules[0].Name = "IsLessThan"
			},
			problem: "not supported by TextInput",
		},
		{
			name: "unknown dest",
			mangle: func(e *Exploration) {
				e.States["a"].Widget.Handlers[0].Rules[0].Dest = "c"
			},
			problem: "unknown destination",
		},
		{
			name: "no widget",
			mangle: func(e *Exploration) {
				e.States["b"].Widget = nil
			},
			problem: "no widget",
		},
		{
			name: "mismatched id",
			mangle: func(e *Exploration) {
				e.States["b"].Id = "c"
			},
			problem: "doesn't match",
		},
		{
			name: "missing interpreter",
			mangle: func(e *Exploration) {
				e.States["a"].Widget.Handlers[0].Rules[0].GuardSource = &GuardSource{
					Interpreter: "cobol",
					Source:      "true",
				}
			},
			problem: "interpreter not found",
		},
	}

	ctx := context.Background()

	if err := good().Compile(ctx, nil, true); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good()
			tt.mangle(e)
			err := e.Compile(ctx, nil, true)
			if err == nil {
				t.Fatal("expected an error")
			}
			var ic *InvalidContent
			if !errors.As(err, &ic) {
				t.Fatalf("%T %v", err, err)
			}
			if !strings.Contains(ic.Problem, tt.problem) {
				t.Fatalf("problem %q", ic.Problem)
			}
			if e.Compiled() {
				t.Fatal("compiled")
			}
		})
	}
}

func TestCompileFillsIds(t *testing.T) {
	e := &Exploration{
		Id:        "e",
		InitState: "only",
		States: map[string]*State{
			"only": {Widget: textWidget(false, &Rule{Name: DefaultRule, Dest: End})},
		},
	}
	if err := e.Compile(context.Background(), nil, false); err != nil {
		t.Fatal(err)
	}
	if e.States["only"].Id != "only" {
		t.Fatal(e.States["only"].Id)
	}
	if ids := e.StateIds(); len(ids) != 1 || ids[0] != "only" {
		t.Fatal(ids)
	}
}

func TestCopyIsDeep(t *testing.T) {
	e := &Exploration{
		Id:        "e",
		InitState: "a",
		States: map[string]*State{
			"a": {
				Id:                "a",
				Widget:            textWidget(false, &Rule{Name: DefaultRule, Dest: End}),
				UnresolvedAnswers: map[string]int{`"x"`: 1},
			},
		},
	}
	c := e.Copy()
	c.States["a"].UnresolvedAnswers[`"x"`] = 5
	c.States["a"].Widget.Handlers[0].Rules[0].Dest = "a"

	if e.States["a"].UnresolvedAnswers[`"x"`] != 1 {
		t.Fatal("counters shared")
	}
	if e.States["a"].Widget.Handlers[0].Rules[0].Dest != End {
		t.Fatal("rules shared")
	}
}
