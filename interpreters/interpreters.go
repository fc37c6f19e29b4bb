// Package interpreters assembles the standard guard interpreters.
package interpreters

import (
	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/interpreters/goja"
	"github.com/Comcast/pathways/interpreters/noop"

	"go.uber.org/zap"
)

// Standard returns the interpreters that a service will usually want.
//
// "goja" and "ecmascript" are the same Goja interpreter.  "noop"
// allows everything.
func Standard(logger *zap.Logger) map[string]core.Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := goja.NewInterpreter()
	g.Logger = logger.Named("goja")

	n := noop.NewInterpreter()
	n.Logger = logger.Named("noop")

	return map[string]core.Interpreter{
		"goja":       g,
		"ecmascript": g,
		"noop":       n,
	}
}
