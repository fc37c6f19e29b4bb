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

// Package storage defines exploration persistence.
//
// See the bolt subpackage for a durable implementation.
package storage

import (
	"context"
	"errors"

	"github.com/Comcast/pathways/core"
)

// Summary describes an exploration for listings.
type Summary struct {
	Id     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Public bool   `json:"public,omitempty"`
}

// Store is a persistence interface that's suitable for a
// core.Reader.
//
// GetExploration returns a compiled copy that the caller can use
// freely.  RecordAnswer is an atomic increment.
type Store interface {
	core.Explorations

	// GetState returns a copy of a state, including its current
	// UnresolvedAnswers.
	GetState(ctx context.Context, explorationId, stateId string) (*core.State, error)

	// PutState replaces one state of an existing exploration.
	// The state's UnresolvedAnswers replace the stored counts.
	PutState(ctx context.Context, explorationId string, s *core.State) error

	// PutExploration adds or replaces an exploration after
	// compiling it.
	PutExploration(ctx context.Context, e *core.Exploration) error

	// ListExplorations returns summaries sorted by id.
	ListExplorations(ctx context.Context) ([]*Summary, error)
}

// NoPublicExplorations is returned by RandomPublic when there's
// nothing to choose from.
var NoPublicExplorations = errors.New("no public explorations")

// RandomPublic picks a public exploration other than the first public
// one listed.
//
// The first public exploration is the demo that a new reader gets by
// default, so it's not a candidate.
func RandomPublic(ctx context.Context, s Store, c core.Chooser) (string, error) {
	ss, err := s.ListExplorations(ctx)
	if err != nil {
		return "", err
	}
	public := make([]string, 0, len(ss))
	for _, x := range ss {
		if x.Public {
			public = append(public, x.Id)
		}
	}
	if len(public) < 2 {
		return "", NoPublicExplorations
	}
	candidates := public[1:]
	return candidates[c.Choose(len(candidates))], nil
}

// StripCounts returns a copy of the exploration without any
// UnresolvedAnswers along with those counts keyed by state id.
func StripCounts(e *core.Exploration) (*core.Exploration, map[string]map[string]int) {
	e = e.Copy()
	counts := make(map[string]map[string]int, len(e.States))
	for id, s := range e.States {
		if len(s.UnresolvedAnswers) > 0 {
			counts[id] = s.UnresolvedAnswers
		}
		s.UnresolvedAnswers = nil
	}
	return e, counts
}
