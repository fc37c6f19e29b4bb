package core

import (
	"testing"

	. "github.com/Comcast/pathways/util/testutil"
)

func TestBindParamsKeepsExisting(t *testing.T) {
	s := &State{
		ParamChanges: []ParamChange{
			{Name: "a", Values: []interface{}{"x", "y"}},
			{Name: "b", Values: []interface{}{1, 2, 3}},
		},
	}
	ps := Params{"a": "already"}

	got := BindParams(s, ps, ChooserFunc(func(n int) int { return n - 1 }))

	Diff(t, "params", Params{"a": "already", "b": 3}, got)

	// The input isn't modified.
	if _, have := ps["b"]; have {
		t.Fatal("input params modified")
	}
}

func TestBindParamsIdempotent(t *testing.T) {
	s := &State{
		ParamChanges: []ParamChange{
			{Name: "a", Values: []interface{}{"x", "y", "z"}},
		},
	}
	c := NewRandChooser(42)
	for i := 0; i < 20; i++ {
		once := BindParams(s, nil, c)
		twice := BindParams(s, once, c)
		Diff(t, "params", once, twice)
	}
}

func TestBindParamsEmptyValues(t *testing.T) {
	s := &State{
		ParamChanges: []ParamChange{
			{Name: "a"},
		},
	}
	got := BindParams(s, Params{}, NewRandChooser(1))
	if _, have := got["a"]; have {
		t.Fatal("bound a parameter without values")
	}
	if got := BindParams(nil, Params{"q": 1}, nil); got["q"] != 1 {
		t.Fatal(JS(got))
	}
}

func TestRandChooserRange(t *testing.T) {
	c := NewRandChooser(7)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		n := c.Choose(3)
		if n < 0 || 3 <= n {
			t.Fatal(n)
		}
		seen[n] = true
	}
	if len(seen) != 3 {
		t.Fatalf("only saw %v", seen)
	}
}
