package core

import (
	"context"
	"sort"
)

// End is the destination that finishes an exploration.
const End = "END"

// DefaultRule is the name of the operator that always matches.
const DefaultRule = "Default"

// DefaultHandler is the handler used when a request doesn't name
// one.
const DefaultHandler = "submit"

// ContentType tags a Content block.
type ContentType string

const (
	TextContent   ContentType = "text"
	ImageContent  ContentType = "image"
	VideoContent  ContentType = "video"
	WidgetContent ContentType = "widget"
)

// Content is one block of a State's content.
//
// For text, the Value is a string that can contain {{param}}
// placeholders.  For images and videos, the Value is an id.  For
// widgets, the Value is a (non-interactive) widget id.
type Content struct {
	Type  ContentType `json:"type" yaml:"type"`
	Value string      `json:"value,omitempty" yaml:"value,omitempty"`
}

// ParamChange declares a parameter that a State introduces.
//
// When applied, one of the Values is chosen at random unless the
// parameter is already bound.
type ParamChange struct {
	Name   string        `json:"name" yaml:"name"`
	Values []interface{} `json:"values,omitempty" yaml:"values,omitempty"`
}

// Rule is a possible transition to the next state.
type Rule struct {
	// Name is the operator (for example "Equals" or "Default").
	Name string `json:"name" yaml:"name"`

	// Inputs are the operator's arguments.  String inputs can
	// contain {{param}} placeholders.
	Inputs map[string]interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// Dest is the id of the next state or End.
	Dest string `json:"dest" yaml:"dest"`

	// Feedback is optional text shown to the reader when this
	// Rule fires.
	Feedback string `json:"feedback,omitempty" yaml:"feedback,omitempty"`

	// Guard is an optional procedure that will prevent the
	// transition if the procedure doesn't allow it.
	Guard Guard `json:"-" yaml:"-"`

	GuardSource *GuardSource `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// Copy doesn't actually copy the Inputs or the Guard.
func (r *Rule) Copy() *Rule {
	if r == nil {
		return nil
	}
	return &Rule{
		Name:        r.Name,
		Inputs:      r.Inputs,
		Dest:        r.Dest,
		Feedback:    r.Feedback,
		Guard:       r.Guard,
		GuardSource: r.GuardSource,
	}
}

// IsDefault reports whether this rule is the catch-all.
func (r *Rule) IsDefault() bool {
	return r.Name == DefaultRule
}

// Handler is the ordered list of Rules for one interaction event.
type Handler struct {
	Name  string  `json:"name" yaml:"name"`
	Rules []*Rule `json:"rules" yaml:"rules"`
}

// Copy makes a deep copy of the Handler's Rules.
func (h *Handler) Copy() *Handler {
	if h == nil {
		return nil
	}
	rs := make([]*Rule, len(h.Rules))
	for i, r := range h.Rules {
		rs[i] = r.Copy()
	}
	return &Handler{
		Name:  h.Name,
		Rules: rs,
	}
}

// Widget is the interactive part of a State.
type Widget struct {
	WidgetId string `json:"widget_id" yaml:"widget_id"`

	// Sticky means that the widget's UI persists across a
	// transition to a State that uses the same widget.
	Sticky bool `json:"sticky,omitempty" yaml:"sticky,omitempty"`

	// Params configure the widget.  String values can contain
	// {{param}} placeholders, including {{answer}}.
	Params map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`

	Handlers []*Handler `json:"handlers,omitempty" yaml:"handlers,omitempty"`
}

// Kind returns the WidgetKind for this widget's id.
func (w *Widget) Kind() WidgetKind {
	if w == nil {
		return UnknownWidget
	}
	return KindOf(w.WidgetId)
}

// Handler finds the handler with the given name.
func (w *Widget) Handler(name string) *Handler {
	if w == nil {
		return nil
	}
	for _, h := range w.Handlers {
		if h != nil && h.Name == name {
			return h
		}
	}
	return nil
}

// Copy makes a deep copy of the Widget (but not of its Params).
func (w *Widget) Copy() *Widget {
	if w == nil {
		return nil
	}
	hs := make([]*Handler, len(w.Handlers))
	for i, h := range w.Handlers {
		hs[i] = h.Copy()
	}
	return &Widget{
		WidgetId: w.WidgetId,
		Sticky:   w.Sticky,
		Params:   w.Params,
		Handlers: hs,
	}
}

// State is one node of an exploration.
type State struct {
	Id           string        `json:"id" yaml:"id"`
	Doc          string        `json:"doc,omitempty" yaml:"doc,omitempty"`
	Content      []Content     `json:"content,omitempty" yaml:"content,omitempty"`
	Widget       *Widget       `json:"widget,omitempty" yaml:"widget,omitempty"`
	ParamChanges []ParamChange `json:"param_changes,omitempty" yaml:"param_changes,omitempty"`

	// UnresolvedAnswers counts recorded answers, keyed by
	// AnswerKey.  Authors review these counts.
	UnresolvedAnswers map[string]int `json:"unresolved_answers,omitempty" yaml:"unresolved_answers,omitempty"`
}

// Copy makes a deep copy of the State.
func (s *State) Copy() *State {
	content := make([]Content, len(s.Content))
	copy(content, s.Content)
	changes := make([]ParamChange, len(s.ParamChanges))
	copy(changes, s.ParamChanges)
	var unresolved map[string]int
	if s.UnresolvedAnswers != nil {
		unresolved = make(map[string]int, len(s.UnresolvedAnswers))
		for k, n := range s.UnresolvedAnswers {
			unresolved[k] = n
		}
	}
	return &State{
		Id:                s.Id,
		Doc:               s.Doc,
		Content:           content,
		Widget:            s.Widget.Copy(),
		ParamChanges:      changes,
		UnresolvedAnswers: unresolved,
	}
}

// Exploration is a directed graph of States.
//
// An Exploration does not change during a reading session.  Only
// the UnresolvedAnswers counters of its States change (see
// Explorations.RecordAnswer).
type Exploration struct {
	Id    string `json:"id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Public explorations can be selected at random.
	Public bool `json:"public,omitempty" yaml:"public,omitempty"`

	// Doc is general documentation (Markdown) for authors.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Version is computed by the loader from the exploration's
	// source.  This package does not read or write this value.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// InitState is the id of the State a reader sees first.
	InitState string `json:"init_state" yaml:"init_state"`

	States map[string]*State `json:"states" yaml:"states"`

	compiled bool
}

// Copy makes a deep copy of the Exploration.
func (e *Exploration) Copy() *Exploration {
	ss := make(map[string]*State, len(e.States))
	for id, s := range e.States {
		ss[id] = s.Copy()
	}
	return &Exploration{
		Id:        e.Id,
		Title:     e.Title,
		Public:    e.Public,
		Doc:       e.Doc,
		Version:   e.Version,
		InitState: e.InitState,
		States:    ss,
		compiled:  e.compiled,
	}
}

// State finds the state with the given id.
func (e *Exploration) State(id string) (*State, error) {
	s, have := e.States[id]
	if !have || s == nil {
		return nil, &NotFound{Kind: "state", Id: id}
	}
	return s, nil
}

// StateIds returns the sorted ids of the exploration's states.
func (e *Exploration) StateIds() []string {
	ids := make([]string, 0, len(e.States))
	for id := range e.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Compiled reports whether Compile has succeeded.
func (e *Exploration) Compiled() bool {
	return e.compiled
}

// Compile checks the exploration and compiles all guard sources.
//
// Compile returns an InvalidContent error when the exploration can't
// be read safely: an unknown initial state, a rule destination that
// is neither a state nor End, a handler whose last rule isn't the
// default, an operator that the widget's kind doesn't support, or a
// content block of an unknown type.
func (e *Exploration) Compile(ctx context.Context, interpreters map[string]Interpreter, force bool) error {

	bad := func(state, problem string) error {
		return &InvalidContent{
			Exploration: e.Id,
			State:       state,
			Problem:     problem,
		}
	}

	if len(e.States) == 0 {
		return bad("", "no states")
	}

	if _, have := e.States[e.InitState]; !have {
		return bad("", `unknown initial state "`+e.InitState+`"`)
	}

	for id, s := range e.States {
		if s == nil {
			return bad(id, "empty state")
		}
		if s.Id == "" {
			s.Id = id
		} else if s.Id != id {
			return bad(id, `state id "`+s.Id+`" doesn't match its key`)
		}

		for _, c := range s.Content {
			switch c.Type {
			case TextContent, ImageContent, VideoContent, WidgetContent:
			default:
				return bad(id, `unknown content type "`+string(c.Type)+`"`)
			}
		}

		if s.Widget == nil {
			return bad(id, "no widget")
		}
		kind := s.Widget.Kind()

		if len(s.Widget.Handlers) == 0 {
			return bad(id, "no handlers")
		}

		for _, h := range s.Widget.Handlers {
			if h == nil || len(h.Rules) == 0 {
				return bad(id, "handler without rules")
			}
			if last := h.Rules[len(h.Rules)-1]; last == nil || !last.IsDefault() {
				return bad(id, `handler "`+h.Name+`" doesn't end with a default rule`)
			}
			for i, r := range h.Rules {
				if r == nil {
					return bad(id, "empty rule")
				}
				if !kind.Supports(r.Name) {
					return bad(id, `operator "`+r.Name+`" not supported by `+kind.String())
				}
				if r.Dest != End {
					if _, have := e.States[r.Dest]; !have {
						return bad(id, `rule `+r.String()+` has unknown destination "`+r.Dest+`"`)
					}
				}
				if r.IsDefault() && i != len(h.Rules)-1 {
					return bad(id, `default rule before the end of handler "`+h.Name+`"`)
				}
				if r.IsDefault() && r.GuardSource != nil {
					return bad(id, `default rule of handler "`+h.Name+`" has a guard`)
				}
				if r.GuardSource != nil && (force || r.Guard == nil) {
					guard, err := r.GuardSource.Compile(ctx, interpreters)
					if err != nil {
						return bad(id, "guard for rule "+r.String()+": "+err.Error())
					}
					r.Guard = guard
				}
			}
		}
	}

	e.compiled = true

	return nil
}
