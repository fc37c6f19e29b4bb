package core

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// WidgetKind is the closed set of interactive widgets that this
// package knows how to normalize answers for.
//
// Any other widget id is an UnknownWidget, whose answers pass through
// unchanged.
type WidgetKind int

const (
	UnknownWidget WidgetKind = iota
	TextInput
	NumericInput
	SetInput
	MultipleChoiceInput
	Continue
)

var kindNames = []string{
	UnknownWidget:       "UnknownWidget",
	TextInput:           "TextInput",
	NumericInput:        "NumericInput",
	SetInput:            "SetInput",
	MultipleChoiceInput: "MultipleChoiceInput",
	Continue:            "Continue",
}

func (k WidgetKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "WidgetKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// KindOf maps a widget id to its kind.
func KindOf(widgetId string) WidgetKind {
	for k, name := range kindNames {
		if k != int(UnknownWidget) && name == widgetId {
			return WidgetKind(k)
		}
	}
	return UnknownWidget
}

// DefaultAnswer gives the answer a client should prefill, if the kind
// has one.
func (k WidgetKind) DefaultAnswer() (interface{}, bool) {
	switch k {
	case NumericInput:
		return 0, true
	case SetInput:
		return []interface{}{}, true
	case TextInput:
		return "", true
	}
	return nil, false
}

// Answer is a reader's answer in its three forms.
type Answer struct {
	// Raw is the answer as submitted.
	Raw interface{}

	// Value is what rules are evaluated against.  For a multiple
	// choice widget, that's the choice index.
	Value interface{}

	// Display is what the reader sees echoed back and what gets
	// recorded.  For a multiple choice widget, that's the text of
	// the choice.
	Display interface{}
}

// NormalizeAnswer converts a raw answer according to the widget's
// kind.
//
// Normalization never fails.  A value that doesn't fit the kind is
// passed through, and rule evaluation will fall back to the default
// rule.
func NormalizeAnswer(w *Widget, raw interface{}) Answer {
	a := Answer{
		Raw:     raw,
		Value:   raw,
		Display: raw,
	}

	switch w.Kind() {
	case NumericInput:
		if f, ok := toNumber(raw); ok {
			a.Value = f
			a.Display = f
		}
	case SetInput:
		if xs, ok := raw.([]interface{}); ok {
			set := canonicalSet(xs)
			a.Value = set
			a.Display = set
		}
	case MultipleChoiceInput:
		f, ok := toNumber(raw)
		if !ok {
			break
		}
		a.Value = f
		if choice, have := choiceText(w, f); have {
			a.Display = choice
		}
	}

	return a
}

// choiceText finds the text of the choice at the given index.
func choiceText(w *Widget, index float64) (interface{}, bool) {
	i := int(index)
	if float64(i) != index || i < 0 {
		return nil, false
	}
	switch vv := w.Params["choices"].(type) {
	case []interface{}:
		if i < len(vv) {
			return vv[i], true
		}
	case []string:
		if i < len(vv) {
			return vv[i], true
		}
	}
	return nil, false
}

// canonicalSet removes duplicates and sorts the elements by their
// AnswerKey.
func canonicalSet(xs []interface{}) []interface{} {
	type elem struct {
		key string
		x   interface{}
	}
	seen := make(map[string]bool, len(xs))
	elems := make([]elem, 0, len(xs))
	for _, x := range xs {
		key, err := AnswerKey(x)
		if err != nil {
			return xs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		elems = append(elems, elem{key, x})
	}
	sort.Slice(elems, func(i, j int) bool {
		return elems[i].key < elems[j].key
	})
	acc := make([]interface{}, len(elems))
	for i, e := range elems {
		acc[i] = e.x
	}
	return acc
}

// toNumber accepts Go numbers, json.Numbers, and numeric strings.
// NaN and infinities aren't numbers here.
func toNumber(x interface{}) (float64, bool) {
	var f float64
	switch vv := x.(type) {
	case float64:
		f = vv
	case float32:
		f = float64(vv)
	case int:
		f = float64(vv)
	case int64:
		f = float64(vv)
	case int32:
		f = float64(vv)
	case json.Number:
		var err error
		if f, err = vv.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(vv), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
