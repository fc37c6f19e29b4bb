package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// DefaultSeparator goes between feedback and the next state's content
// when both are present.
var DefaultSeparator = "<br>"

// Explorations is what a Reader needs from a store.
type Explorations interface {
	// GetExploration returns a compiled exploration or a
	// *NotFound error.
	GetExploration(ctx context.Context, id string) (*Exploration, error)

	// RecordAnswer increments the count for the given answer key
	// in the state's unresolved answers and returns the new
	// count.
	//
	// Concurrent calls must not lose increments.
	RecordAnswer(ctx context.Context, explorationId, stateId, key string) (int, error)
}

// Request is a reader's answer to the current state.
type Request struct {
	ExplorationId string `json:"exploration_id"`
	StateId       string `json:"state_id"`

	// BlockNumber is the 0-based index of the last content block
	// already on the page.
	BlockNumber int    `json:"block_number"`
	Params      Params `json:"params,omitempty"`

	// Answer is the reader's raw answer.
	Answer interface{} `json:"answer"`

	// Handler is the interaction (submit, click, etc.).  Defaults
	// to DefaultHandler.
	Handler string `json:"handler,omitempty"`

	// Session is an opaque id used only for events.
	Session string `json:"session,omitempty"`
}

// Result is what a reader sees after loading an exploration or
// answering.
type Result struct {
	ExplorationId string `json:"exploration_id"`
	StateId       string `json:"state_id"`
	Title         string `json:"title,omitempty"`
	BlockNumber   int    `json:"block_number"`
	Params        Params `json:"params"`

	// ReaderHTML echoes the reader's answer.
	ReaderHTML string `json:"reader_html,omitempty"`

	// HTML is feedback and new content.
	HTML    string             `json:"html"`
	Widgets []WidgetActivation `json:"widgets"`

	// InteractiveWidgetHTML is empty when the exploration is
	// finished or when the widget is sticky.
	InteractiveWidgetHTML string `json:"interactive_widget_html"`

	// InteractiveParams are the raw (unresolved) params of the
	// initial state's widget.
	InteractiveParams map[string]interface{} `json:"interactive_params,omitempty"`

	StickyInteractiveWidget bool `json:"sticky_interactive_widget,omitempty"`
	Finished                bool `json:"finished"`

	// DefaultAnswer is a JSON hint for the state's widget, if its
	// kind has one.
	DefaultAnswer json.RawMessage `json:"default_answer,omitempty"`

	// Evaluation is the rule evaluation behind this Result (if
	// any).
	Evaluation *Evaluation `json:"-"`
}

// Reader computes transitions.
//
// A Reader has no mutable state of its own, so one Reader can serve
// any number of concurrent sessions.
type Reader struct {
	Explorations Explorations
	Renderer     Renderer
	Catalog      Catalog

	// Events is optional.
	Events EventSink

	// Chooser picks parameter values.  Defaults to a
	// time-seeded RandChooser.
	Chooser Chooser

	// Logger is optional.
	Logger *zap.Logger

	// Separator defaults to DefaultSeparator.
	Separator string
}

// NewReader makes a Reader with a time-seeded Chooser and no logging.
func NewReader(es Explorations, r Renderer, c Catalog) *Reader {
	return &Reader{
		Explorations: es,
		Renderer:     r,
		Catalog:      c,
		Chooser:      NewRandChooser(time.Now().UnixNano()),
		Logger:       zap.NewNop(),
	}
}

func (r *Reader) chooser() Chooser {
	if r.Chooser == nil {
		return ChooserFunc(rand.Intn)
	}
	return r.Chooser
}

func (r *Reader) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Reader) separator() string {
	if r.Separator == "" {
		return DefaultSeparator
	}
	return r.Separator
}

func (r *Reader) record(ctx context.Context, e *Event) {
	if r.Events == nil {
		return
	}
	e.At = Timestamp()
	r.Events.Record(ctx, e)
}

// interactive generates the code for a state's interactive widget
// with params resolved against the given Params.
func (r *Reader) interactive(ctx context.Context, s *State, ps Params) (string, error) {
	code, err := r.Catalog.Interactive(ctx, s.Widget.WidgetId, ResolveParams(s.Widget.Params, ps))
	if err != nil {
		return "", fmt.Errorf("interactive widget for state %s: %w", s.Id, err)
	}
	return code, nil
}

// defaultAnswer sets the Result's DefaultAnswer for the state's
// widget kind.
func (res *Result) defaultAnswer(s *State) {
	x, have := s.Widget.Kind().DefaultAnswer()
	if !have {
		return
	}
	if js, err := json.Marshal(x); err == nil {
		res.DefaultAnswer = js
	}
}

// Start loads an exploration at its initial state.
//
// Params are bound from scratch.  Content starts at block zero.
func (r *Reader) Start(ctx context.Context, explorationId, session string) (*Result, error) {
	e, err := r.Explorations.GetExploration(ctx, explorationId)
	if err != nil {
		return nil, err
	}

	first, err := e.State(e.InitState)
	if err != nil {
		return nil, &InvalidContent{
			Exploration: e.Id,
			Problem:     err.Error(),
		}
	}

	ps := BindParams(first, nil, r.chooser())

	html, widgets, err := r.Renderer.Render(ctx, first.Content, ps, 0)
	if err != nil {
		return nil, withExploration(err, e.Id)
	}

	code, err := r.interactive(ctx, first, ps)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ExplorationId:         e.Id,
		StateId:               first.Id,
		Title:                 e.Title,
		BlockNumber:           0,
		Params:                ps,
		HTML:                  html,
		Widgets:               widgets,
		InteractiveWidgetHTML: code,
		InteractiveParams:     first.Widget.Params,
	}
	res.defaultAnswer(first)

	r.record(ctx, &Event{
		Type:        ExplorationVisited,
		Exploration: e.Id,
		Session:     session,
	})
	r.record(ctx, &Event{
		Type:        StateHit,
		Exploration: e.Id,
		State:       first.Id,
		Session:     session,
	})

	return res, nil
}

// Transition processes a reader's answer.
//
// The steps:
//
//  1. Bind the current state's parameter changes and add the answer
//     as the "answer" parameter for this request only.
//  2. Normalize the answer for the current widget.
//  3. Evaluate the handler's rules.
//  4. Record the answer (if the evaluation says to).
//  5. For End, render the feedback (if any) and finish.
//  6. Otherwise render the feedback and, if the destination is a
//     different state, that state's content.
//  7. Regenerate the interactive widget unless it's sticky and the
//     same widget.
//  8. Increment the block number.
//
// A destination that is neither a state nor End is an
// UnknownDestination error.
func (r *Reader) Transition(ctx context.Context, req *Request) (*Result, error) {
	log := r.logger()

	e, err := r.Explorations.GetExploration(ctx, req.ExplorationId)
	if err != nil {
		return nil, err
	}

	from, err := e.State(req.StateId)
	if err != nil {
		return nil, err
	}

	ps := BindParams(from, req.Params, r.chooser())
	ps[AnswerParam] = req.Answer

	answer := NormalizeAnswer(from.Widget, req.Answer)

	ev, err := from.Evaluate(ctx, answer, ps, req.Handler)
	if err != nil {
		return nil, withExploration(err, e.Id)
	}
	for _, gerr := range ev.GuardErrors {
		log.Warn("guard error",
			zap.String("exploration", e.Id),
			zap.String("state", from.Id),
			zap.Error(gerr))
	}

	if ev.Recorded != nil {
		key, err := AnswerKey(ev.Recorded)
		if err != nil {
			log.Warn("unrecordable answer",
				zap.String("exploration", e.Id),
				zap.String("state", from.Id),
				zap.Error(err))
		} else {
			n, err := r.Explorations.RecordAnswer(ctx, e.Id, from.Id, key)
			if err != nil {
				return nil, fmt.Errorf("recording answer at %s/%s: %w", e.Id, from.Id, err)
			}
			log.Debug("recorded answer",
				zap.String("exploration", e.Id),
				zap.String("state", from.Id),
				zap.String("answer", key),
				zap.Int("count", n))
			r.record(ctx, &Event{
				Type:        RuleHit,
				Exploration: e.Id,
				State:       from.Id,
				Session:     req.Session,
				Rule:        ev.RuleId,
				Answer:      key,
			})
		}
	}

	if ev.Dest == "" {
		return nil, &UnknownDestination{
			Exploration: e.Id,
			State:       from.Id,
		}
	}

	echo, err := r.Renderer.Echo(ctx, answer.Display)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ExplorationId: e.Id,
		StateId:       from.Id,
		BlockNumber:   req.BlockNumber + 1,
		ReaderHTML:    echo,
		Widgets:       []WidgetActivation{},
		Evaluation:    ev,
	}

	var html string
	if ev.Feedback != "" {
		fb, ws, err := r.Renderer.Feedback(ctx, ev.Feedback, ps, req.BlockNumber)
		if err != nil {
			return nil, withExploration(err, e.Id)
		}
		html = fb
		res.Widgets = append(res.Widgets, ws...)
	}

	if ev.Dest == End {
		res.HTML = html
		res.Finished = true
		res.InteractiveWidgetHTML = ""
		res.defaultAnswer(from)
		delete(ps, AnswerParam)
		res.Params = ps

		r.record(ctx, &Event{
			Type:        ExplorationCompleted,
			Exploration: e.Id,
			State:       from.Id,
			Session:     req.Session,
		})

		return res, nil
	}

	to, err := e.State(ev.Dest)
	if err != nil {
		return nil, &UnknownDestination{
			Exploration: e.Id,
			State:       from.Id,
			Dest:        ev.Dest,
		}
	}

	r.record(ctx, &Event{
		Type:        StateHit,
		Exploration: e.Id,
		State:       to.Id,
		Session:     req.Session,
	})

	if to.Id != from.Id {
		// The destination's content sees its own parameters.
		ps = BindParams(to, ps, r.chooser())

		content, ws, err := r.Renderer.Render(ctx, to.Content, ps, req.BlockNumber)
		if err != nil {
			return nil, withExploration(err, e.Id)
		}
		if content != "" && ev.Feedback != "" {
			html += r.separator()
		}
		html += content
		res.Widgets = append(res.Widgets, ws...)
	}

	res.StateId = to.Id
	res.HTML = html

	if to.Widget.Sticky && to.Widget.WidgetId == from.Widget.WidgetId {
		res.InteractiveWidgetHTML = ""
		res.StickyInteractiveWidget = true
	} else {
		code, err := r.interactive(ctx, to, ps)
		if err != nil {
			return nil, err
		}
		res.InteractiveWidgetHTML = code
	}

	res.defaultAnswer(to)

	delete(ps, AnswerParam)
	res.Params = ps

	return res, nil
}

// withExploration fills in the exploration id of an InvalidContent.
func withExploration(err error, explorationId string) error {
	if ic, is := err.(*InvalidContent); is && ic.Exploration == "" {
		ic.Exploration = explorationId
	}
	return err
}
