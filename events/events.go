// Package events has core.EventSinks.
package events

import (
	"context"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

// Nop discards events.
type Nop struct{}

func (Nop) Record(ctx context.Context, e *core.Event) {}

// Multi sends each event to every sink in order.
type Multi []core.EventSink

func (m Multi) Record(ctx context.Context, e *core.Event) {
	for _, s := range m {
		s.Record(ctx, e)
	}
}

// Log writes events to a zap.Logger at info level.
type Log struct {
	Logger *zap.Logger
}

func (l *Log) Record(ctx context.Context, e *core.Event) {
	l.Logger.Info("event",
		zap.String("type", string(e.Type)),
		zap.String("exploration", e.Exploration),
		zap.String("state", e.State),
		zap.String("session", e.Session),
		zap.String("rule", e.Rule),
		zap.String("answer", e.Answer),
		zap.String("at", e.At))
}
