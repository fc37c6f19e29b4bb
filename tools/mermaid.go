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

package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/pathways/core"
)

type MermaidOpts struct {
	// ShowInputs will result in an edge label that includes the
	// JSON representation of the rule's inputs (if any).
	ShowInputs bool `json:"showInputs"`

	// GuardedFill is the fill color for states with guarded
	// rules.
	GuardedFill string `json:"guardedFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given exploration.
func Mermaid(e *core.Exploration, w io.Writer, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowInputs:  true,
			GuardedFill: "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	nids := make(map[string]string)
	num := 0

	node := func(id string, s *core.State) string {
		if nid, already := nids[id]; already {
			return nid
		}
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[id] = nid

		switch {
		case id == core.End:
			fmt.Fprintf(w, "  %s((\"%s\"))\n", nid, id)
		case s == nil:
			fmt.Fprintf(w, "  %s>\"%s\"]\n", nid, id)
		default:
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, id)
			if opts.GuardedFill != "" && guarded(s) {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.GuardedFill)
			}
		}

		return nid
	}

	process := func(id string, s *core.State) error {
		nid := node(id, s)
		if s.Widget == nil {
			return nil
		}
		for _, h := range s.Widget.Handlers {
			if h == nil {
				continue
			}
			for _, r := range h.Rules {
				if r == nil {
					continue
				}
				to := node(r.Dest, e.States[r.Dest])

				label := r.Name
				if opts.ShowInputs && 0 < len(r.Inputs) {
					bs, err := json.Marshal(r.Inputs)
					if err != nil {
						return err
					}
					label += " " + string(bs)
				}
				label = strings.Replace(label, `"`, `'`, -1)

				fmt.Fprintf(w, "  %s -- \"%s\" --> %s\n", nid, label, to)
			}
		}
		return nil
	}

	if s, have := e.States[e.InitState]; have && s != nil {
		if err := process(e.InitState, s); err != nil {
			return err
		}
	}
	for _, id := range e.StateIds() {
		s := e.States[id]
		if id == e.InitState || s == nil {
			continue
		}
		if err := process(id, s); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n")
	return err
}

func guarded(s *core.State) bool {
	if s.Widget == nil {
		return false
	}
	for _, h := range s.Widget.Handlers {
		if h == nil {
			continue
		}
		for _, r := range h.Rules {
			if r != nil && (r.Guard != nil || r.GuardSource != nil) {
				return true
			}
		}
	}
	return false
}
