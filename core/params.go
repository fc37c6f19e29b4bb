/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

package core

import (
	"math/rand"
	"sync"
)

// AnswerParam is the parameter that holds the reader's latest answer
// while a transition is computed.  It is never returned to the
// caller.
const AnswerParam = "answer"

// Params is a session's map from parameter names to their values.
//
// Params accumulate as a reader moves through an exploration.  They
// are not persisted beyond the session; the caller passes them in and
// gets them back.
type Params map[string]interface{}

// Copy makes a shallow copy of the Params.
func (ps Params) Copy() Params {
	acc := make(Params, len(ps)+1)
	for k, v := range ps {
		acc[k] = v
	}
	return acc
}

// Chooser picks an index in [0,n).  Choices must be uniform.
type Chooser interface {
	Choose(n int) int
}

// ChooserFunc is a function Chooser.
type ChooserFunc func(n int) int

func (f ChooserFunc) Choose(n int) int {
	return f(n)
}

// RandChooser is a Chooser backed by math/rand.
//
// Safe for concurrent use.
type RandChooser struct {
	sync.Mutex
	r *rand.Rand
}

// NewRandChooser makes a RandChooser with the given seed.
func NewRandChooser(seed int64) *RandChooser {
	return &RandChooser{
		r: rand.New(rand.NewSource(seed)),
	}
}

func (c *RandChooser) Choose(n int) int {
	c.Lock()
	i := c.r.Intn(n)
	c.Unlock()
	return i
}

// BindParams returns a copy of the given Params extended by the
// State's parameter changes.
//
// For each change whose name isn't already bound, one of the change's
// values is chosen.  Existing bindings are never overwritten, so a
// parameter keeps the first value it gets for the whole session.
//
// A change without values is ignored.
func BindParams(s *State, ps Params, c Chooser) Params {
	acc := ps.Copy()
	if s == nil {
		return acc
	}
	for _, pc := range s.ParamChanges {
		if _, have := acc[pc.Name]; have {
			continue
		}
		if len(pc.Values) == 0 {
			continue
		}
		acc[pc.Name] = pc.Values[c.Choose(len(pc.Values))]
	}
	return acc
}
