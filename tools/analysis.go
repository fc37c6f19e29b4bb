/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package tools has utilities for looking at explorations: a static
// analysis, Graphviz and Mermaid renderings, and an HTML page.
package tools

import (
	"errors"
	"sort"

	"github.com/Comcast/pathways/core"
)

// Analysis is a static summary of an exploration's structure.
type Analysis struct {
	Exploration string `json:"exploration"`

	StateCount int `json:"stateCount"`
	Handlers   int `json:"handlers"`
	Rules      int `json:"rules"`
	Guards     int `json:"guards"`

	// Unreachable states can't be reached from the initial state.
	Unreachable []string `json:"unreachable,omitempty"`

	// Finishing states have a rule that goes to END.
	Finishing []string `json:"finishing,omitempty"`

	// DeadEnds are states from which END can't be reached.
	DeadEnds []string `json:"deadEnds,omitempty"`

	// MissingDests are rule destinations that aren't states.
	MissingDests []string `json:"missingDests,omitempty"`

	// Operators counts rules by operator.
	Operators map[string]int `json:"operators"`

	Interpreters []string `json:"interpreters,omitempty"`
}

// Analyze computes an Analysis.  The exploration needn't be
// compiled.
func Analyze(e *core.Exploration) (*Analysis, error) {
	if e == nil {
		return nil, errors.New("no exploration")
	}

	a := Analysis{
		Exploration: e.Id,
		StateCount:  len(e.States),
		Operators:   make(map[string]int),
	}

	edges := make(map[string][]string, len(e.States))
	finishing := make(map[string]bool)
	missing := make(map[string]bool)
	interpreters := make(map[string]bool)

	for _, id := range e.StateIds() {
		s := e.States[id]
		if s == nil || s.Widget == nil {
			continue
		}
		for _, h := range s.Widget.Handlers {
			if h == nil {
				continue
			}
			a.Handlers++
			for _, r := range h.Rules {
				if r == nil {
					continue
				}
				a.Rules++
				a.Operators[r.Name]++
				if r.GuardSource != nil || r.Guard != nil {
					a.Guards++
					if r.GuardSource != nil {
						interpreters[r.GuardSource.Interpreter] = true
					}
				}
				switch {
				case r.Dest == core.End:
					finishing[id] = true
				case e.States[r.Dest] == nil:
					missing[r.Dest] = true
				default:
					edges[id] = append(edges[id], r.Dest)
				}
			}
		}
	}

	reached := reachable(e.InitState, edges)
	if _, have := e.States[e.InitState]; !have {
		reached = map[string]bool{}
	}
	for _, id := range e.StateIds() {
		if !reached[id] {
			a.Unreachable = append(a.Unreachable, id)
		}
	}

	// A state can finish if it's finishing or it can reach a
	// finishing state.
	for _, id := range e.StateIds() {
		can := false
		for to := range reachable(id, edges) {
			if finishing[to] {
				can = true
				break
			}
		}
		if !can {
			a.DeadEnds = append(a.DeadEnds, id)
		}
	}

	a.Finishing = keys(finishing)
	a.MissingDests = keys(missing)
	a.Interpreters = keys(interpreters, "default")

	return &a, nil
}

// reachable does a breadth-first search from the given state.  The
// result includes that state.
func reachable(from string, edges map[string][]string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for 0 < len(queue) {
		id := queue[0]
		queue = queue[1:]
		for _, to := range edges[id] {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return seen
}

// keys returns the sorted keys of the map, or the optional default
// if the map is empty.
func keys(m map[string]bool, defaultValue ...string) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		if k == "" && 0 < len(defaultValue) {
			k = defaultValue[0]
		}
		acc = append(acc, k)
	}
	sort.Strings(acc)
	if len(acc) == 0 {
		return nil
	}
	return acc
}
