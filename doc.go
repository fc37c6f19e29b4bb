// Package pathways provides the reader engine for explorations:
// branching learning units made of states, each with content and an
// interactive widget.
//
// The core code is in package 'core', the service is in
// `cmd/readerd`, and some command-line tools are in `cmd`.
package pathways
