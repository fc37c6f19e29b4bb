package core

import (
	"context"
)

// DefaultInterpreters will be used in GuardSource.Compile if given
// nil interpreters.
var DefaultInterpreters = make(map[string]Interpreter)

// Interpreter can optionally compile and execute code for guards.
type Interpreter interface {
	// Compile can make something that helps when Exec()ing the
	// code later.
	Compile(ctx context.Context, code interface{}) (interface{}, error)

	// Exec executes the code with the given Params, which
	// include the reader's answer.  The result of previous
	// Compile() might be provided.
	//
	// Exec should not perform IO.
	Exec(ctx context.Context, ps Params, code interface{}, compiled interface{}) (bool, error)
}

// Guard decides whether a Rule whose operator matched should
// actually fire.
type Guard interface {
	Allow(context.Context, Params) (bool, error)
}

// FuncGuard is a wrapper around a Go function.
type FuncGuard struct {
	F func(context.Context, Params) (bool, error) `json:"-" yaml:"-"`
}

// Allow runs the function.  A nil FuncGuard allows everything.
func (g *FuncGuard) Allow(ctx context.Context, ps Params) (bool, error) {
	if g == nil || g.F == nil {
		return true, nil
	}
	return g.F(ctx, ps)
}

// GuardSource can be compiled to a Guard.
type GuardSource struct {
	Interpreter string      `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Source      interface{} `json:"source" yaml:"source"`
}

// Compile attempts to compile the GuardSource into a Guard using the
// given interpreters, which defaults to DefaultInterpreters.
func (g *GuardSource) Compile(ctx context.Context, interpreters map[string]Interpreter) (Guard, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	interpreter, have := interpreters[g.Interpreter]
	if !have {
		return nil, InterpreterNotFound
	}

	x, err := interpreter.Compile(ctx, g.Source)
	if err != nil {
		return nil, err
	}

	return &FuncGuard{
		F: func(ctx context.Context, ps Params) (bool, error) {
			return interpreter.Exec(ctx, ps, g.Source, x)
		},
	}, nil
}
