package core

import (
	"math"
	"strings"
)

// predicate tests an answer's Value against a Rule's (resolved)
// Inputs.
//
// A predicate returns false when the answer or an input has the wrong
// type.  Only "Default" matches everything.
type predicate func(k WidgetKind, answer interface{}, inputs map[string]interface{}) bool

var predicates = map[string]predicate{
	DefaultRule: func(WidgetKind, interface{}, map[string]interface{}) bool {
		return true
	},
	"Equals": func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		eq, ok := equal(k, a, in["x"])
		return ok && eq
	},
	"NotEquals": func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		eq, ok := equal(k, a, in["x"])
		return ok && !eq
	},

	"CaseInsensitiveEquals": strings2(strings.EqualFold),
	"StartsWith":            strings2(strings.HasPrefix),
	"Contains":              strings2(strings.Contains),

	"IsLessThan": numbers2(func(a, x float64) bool {
		return a < x
	}),
	"IsGreaterThan": numbers2(func(a, x float64) bool {
		return a > x
	}),
	"IsLessThanOrEqualTo": numbers2(func(a, x float64) bool {
		return a <= x
	}),
	"IsGreaterThanOrEqualTo": numbers2(func(a, x float64) bool {
		return a >= x
	}),
	"IsInclusivelyBetween": func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		n, ok1 := toNumber(a)
		lo, ok2 := toNumber(in["a"])
		hi, ok3 := toNumber(in["b"])
		return ok1 && ok2 && ok3 && lo <= n && n <= hi
	},
	"IsWithinTolerance": func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		n, ok1 := toNumber(a)
		x, ok2 := toNumber(in["x"])
		tol, ok3 := toNumber(in["tol"])
		return ok1 && ok2 && ok3 && math.Abs(n-x) <= tol
	},

	"IsSubsetOf": sets2(func(a, x map[string]bool) bool {
		return all(a, x)
	}),
	"IsSupersetOf": sets2(func(a, x map[string]bool) bool {
		return all(x, a)
	}),
	"HasElementsIn": sets2(func(a, x map[string]bool) bool {
		return some(a, x)
	}),
	"HasElementsNotIn": sets2(func(a, x map[string]bool) bool {
		return !all(a, x)
	}),
	"OmitsElementsIn": sets2(func(a, x map[string]bool) bool {
		return !all(x, a)
	}),
	"IsDisjointFrom": sets2(func(a, x map[string]bool) bool {
		return !some(a, x)
	}),
}

var (
	textOperators = []string{
		"Equals", "NotEquals", "CaseInsensitiveEquals", "StartsWith", "Contains",
	}
	numericOperators = []string{
		"Equals", "NotEquals", "IsLessThan", "IsGreaterThan", "IsLessThanOrEqualTo",
		"IsGreaterThanOrEqualTo", "IsInclusivelyBetween", "IsWithinTolerance",
	}
	setOperators = []string{
		"Equals", "NotEquals", "IsSubsetOf", "IsSupersetOf", "HasElementsIn",
		"HasElementsNotIn", "OmitsElementsIn", "IsDisjointFrom",
	}
)

// kindOperators lists the operators (other than Default) that each
// known kind supports.  An UnknownWidget supports every operator.
var kindOperators = map[WidgetKind][]string{
	TextInput:           textOperators,
	NumericInput:        numericOperators,
	SetInput:            setOperators,
	MultipleChoiceInput: {"Equals", "NotEquals"},
	Continue:            {},
}

// Supports reports whether rules for widgets of this kind can use the
// given operator.
func (k WidgetKind) Supports(op string) bool {
	if _, have := predicates[op]; !have {
		return false
	}
	if op == DefaultRule {
		return true
	}
	ops, known := kindOperators[k]
	if !known {
		return true
	}
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// equal compares an answer to an input according to the widget kind.
// The second result is false if the two can't be compared.
func equal(k WidgetKind, a, x interface{}) (bool, bool) {
	if x == nil {
		return false, false
	}
	switch k {
	case TextInput:
		s, is := a.(string)
		if !is {
			return false, false
		}
		return s == Stringify(x), true
	case NumericInput, MultipleChoiceInput:
		n, ok1 := toNumber(a)
		m, ok2 := toNumber(x)
		if !ok1 || !ok2 {
			return false, false
		}
		return n == m, true
	case SetInput:
		as, ok1 := keySet(a)
		xs, ok2 := keySet(x)
		if !ok1 || !ok2 {
			return false, false
		}
		return all(as, xs) && all(xs, as), true
	default:
		ka, err := AnswerKey(a)
		if err != nil {
			return false, false
		}
		kx, err := AnswerKey(x)
		if err != nil {
			return false, false
		}
		return ka == kx, true
	}
}

func strings2(f func(a, x string) bool) predicate {
	return func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		s, is := a.(string)
		if !is {
			return false
		}
		x, have := in["x"]
		if !have || x == nil {
			return false
		}
		return f(s, Stringify(x))
	}
}

func numbers2(f func(a, x float64) bool) predicate {
	return func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		n, ok1 := toNumber(a)
		x, ok2 := toNumber(in["x"])
		return ok1 && ok2 && f(n, x)
	}
}

func sets2(f func(a, x map[string]bool) bool) predicate {
	return func(k WidgetKind, a interface{}, in map[string]interface{}) bool {
		as, ok1 := keySet(a)
		xs, ok2 := keySet(in["x"])
		return ok1 && ok2 && f(as, xs)
	}
}

// keySet turns a slice into a set of AnswerKeys.
func keySet(x interface{}) (map[string]bool, bool) {
	var xs []interface{}
	switch vv := x.(type) {
	case []interface{}:
		xs = vv
	case []string:
		xs = make([]interface{}, len(vv))
		for i, s := range vv {
			xs[i] = s
		}
	default:
		return nil, false
	}
	acc := make(map[string]bool, len(xs))
	for _, y := range xs {
		key, err := AnswerKey(y)
		if err != nil {
			return nil, false
		}
		acc[key] = true
	}
	return acc, true
}

// all reports whether every element of xs is in ys.
func all(xs, ys map[string]bool) bool {
	for x := range xs {
		if !ys[x] {
			return false
		}
	}
	return true
}

// some reports whether any element of xs is in ys.
func some(xs, ys map[string]bool) bool {
	for x := range xs {
		if ys[x] {
			return true
		}
	}
	return false
}
