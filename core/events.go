package core

import (
	"context"
)

// EventType names something a Reader reports.
type EventType string

const (
	ExplorationVisited   EventType = "visited"
	StateHit             EventType = "stateHit"
	RuleHit              EventType = "ruleHit"
	ExplorationCompleted EventType = "completed"
)

// Event is an analytics record.
type Event struct {
	Type        EventType `json:"type"`
	Exploration string    `json:"exploration"`
	State       string    `json:"state,omitempty"`
	Session     string    `json:"session,omitempty"`

	// Rule is the RuleId for a RuleHit.
	Rule string `json:"rule,omitempty"`

	// Answer is the AnswerKey for a RuleHit.
	Answer string `json:"answer,omitempty"`

	At string `json:"at"`
}

// EventSink receives a Reader's events.
//
// Record should not block for long, and it doesn't return an error:
// analytics problems shouldn't break reading.
type EventSink interface {
	Record(ctx context.Context, e *Event)
}
