package noop

import (
	"context"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

// Interpreter is an core.Interpreter whose guards allow everything.
type Interpreter struct {
	// Silent, if true, will suppress warning log messages.
	Silent bool

	Logger *zap.Logger
}

func NewInterpreter() *Interpreter {
	return &Interpreter{
		Logger: zap.NewNop(),
	}
}

func (i *Interpreter) warn(msg string) {
	if i.Silent || i.Logger == nil {
		return
	}
	i.Logger.Warn(msg)
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	i.warn("Using noop Interpreter for compilation")
	return nil, nil
}

func (i *Interpreter) Exec(ctx context.Context, ps core.Params, code interface{}, compiled interface{}) (bool, error) {
	i.warn("Using noop Interpreter for execution")
	return true, nil
}
