package core

import (
	"context"
	"sort"
	"strings"
)

// Evaluation is the result of evaluating a State's rules.
type Evaluation struct {
	// Dest is the id of the next state or End.
	Dest string `json:"dest"`

	Feedback string `json:"feedback,omitempty"`

	// Rule is the rule that fired.
	Rule *Rule `json:"-"`

	// RuleId identifies the rule that fired (see Rule.String).
	RuleId string `json:"rule"`

	// Index is the position of the rule in its handler.
	Index int `json:"index"`

	// Recorded is the answer to tally in the state's unresolved
	// answers.  Nil means the evaluation shouldn't be tallied.
	Recorded interface{} `json:"recorded,omitempty"`

	// GuardErrors reports guards that failed during the
	// evaluation.  Each failure just skipped its rule.
	GuardErrors []error `json:"-"`
}

// String renders the rule's operator and inputs, like
// "Equals(x=cat)" or "Default".
func (r *Rule) String() string {
	if len(r.Inputs) == 0 {
		return r.Name
	}
	names := make([]string, 0, len(r.Inputs))
	for name := range r.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]string, len(names))
	for i, name := range names {
		args[i] = name + "=" + Stringify(r.Inputs[name])
	}
	return r.Name + "(" + strings.Join(args, ",") + ")"
}

// matches checks the rule's operator and then its guard (if any).
func (r *Rule) matches(ctx context.Context, k WidgetKind, a Answer, ps Params) (bool, error) {
	p, have := predicates[r.Name]
	if !have {
		return false, nil
	}
	var inputs map[string]interface{}
	if r.Inputs != nil {
		inputs = ResolveParams(r.Inputs, ps)
	}
	if !p(k, a.Value, inputs) {
		return false, nil
	}
	if r.Guard == nil {
		return true, nil
	}
	return r.Guard.Allow(ctx, ps)
}

// Evaluate considers the rules of the given handler in order and
// returns the first one that matches.
//
// The default rule that ends every handler guarantees a match for a
// compiled exploration.  If no rule matches anyway, or if the handler
// doesn't exist, Evaluate returns an InvalidContent error.
//
// A guard that returns an error doesn't stop the evaluation.  The
// rule is skipped, and the error is reported in
// Evaluation.GuardErrors.
func (s *State) Evaluate(ctx context.Context, a Answer, ps Params, handler string) (*Evaluation, error) {
	if handler == "" {
		handler = DefaultHandler
	}

	h := s.Widget.Handler(handler)
	if h == nil {
		return nil, &InvalidContent{
			State:   s.Id,
			Problem: `no handler "` + handler + `"`,
		}
	}

	kind := s.Widget.Kind()
	ev := &Evaluation{}

	for i, r := range h.Rules {
		if r == nil {
			continue
		}
		ok, err := r.matches(ctx, kind, a, ps)
		if err != nil {
			ev.GuardErrors = append(ev.GuardErrors, err)
			continue
		}
		if !ok {
			continue
		}
		ev.Dest = r.Dest
		ev.Feedback = r.Feedback
		ev.Rule = r
		ev.RuleId = r.String()
		ev.Index = i
		if a.Raw != nil {
			ev.Recorded = a.Display
		}
		return ev, nil
	}

	return nil, &InvalidContent{
		State:   s.Id,
		Problem: `no rule matched for handler "` + handler + `"`,
	}
}
