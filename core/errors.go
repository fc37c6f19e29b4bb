package core

// NotFound and InvalidContent are the two families of errors that a
// Reader returns.  The former is a request problem (a bad id).  The
// latter is a content bug that an author must fix.

import (
	"errors"
)

// NotFound occurs when an exploration, a state, or a widget does not
// exist.
type NotFound struct {
	// Kind is "exploration", "state", or "widget".
	Kind string
	Id   string
}

func (e *NotFound) Error() string {
	return e.Kind + ` "` + e.Id + `" not found`
}

// InvalidContent occurs when an exploration is broken in a way that a
// reader can't fix.  For example, an unknown content block type or a
// handler without a default rule.
type InvalidContent struct {
	Exploration string
	State       string
	Problem     string
}

func (e *InvalidContent) Error() string {
	s := "invalid content"
	if e.Exploration != "" {
		s += ` in exploration "` + e.Exploration + `"`
	}
	if e.State != "" {
		s += ` at state "` + e.State + `"`
	}
	return s + ": " + e.Problem
}

// UnknownDestination occurs when a rule fires and its destination is
// neither a state in the exploration nor End.
//
// This error is an InvalidContent (see errors.As).
type UnknownDestination struct {
	Exploration string
	State       string
	Dest        string
}

func (e *UnknownDestination) Error() string {
	return `destination "` + e.Dest + `" from state "` + e.State +
		`" not found in exploration "` + e.Exploration + `"`
}

// As lets errors.As see an UnknownDestination as an InvalidContent.
func (e *UnknownDestination) As(target interface{}) bool {
	if p, is := target.(**InvalidContent); is {
		*p = &InvalidContent{
			Exploration: e.Exploration,
			State:       e.State,
			Problem:     `unknown destination "` + e.Dest + `"`,
		}
		return true
	}
	return false
}

// MissingWidget occurs when content refers to a widget that the
// Catalog doesn't have.
//
// Renderers recover from this error by dropping the reference.
type MissingWidget struct {
	Id string
}

func (e *MissingWidget) Error() string {
	return `widget "` + e.Id + `" not found`
}

// As lets errors.As see a MissingWidget as a NotFound.
func (e *MissingWidget) As(target interface{}) bool {
	if p, is := target.(**NotFound); is {
		*p = &NotFound{Kind: "widget", Id: e.Id}
		return true
	}
	return false
}

// InterpreterNotFound occurs when you try to Compile a GuardSource,
// and the required interpreter isn't in the given map of
// interpreters.
var InterpreterNotFound = errors.New("interpreter not found")

// IsNotFound reports whether the error is (or wraps) a NotFound.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}

// IsInvalidContent reports whether the error is (or wraps) an
// InvalidContent.
func IsInvalidContent(err error) bool {
	var ic *InvalidContent
	return errors.As(err, &ic)
}
