package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"html"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/pathways/core"

	"gopkg.in/yaml.v2"
)

var kindColors = map[core.WidgetKind]string{
	core.TextInput:           "#99ddc8",
	core.NumericInput:        "#95bf74",
	core.SetInput:            "#f2c57c",
	core.MultipleChoiceInput: "#2d93ad",
	core.Continue:            "#dddddd",
}

// Dot makes a Graphviz dot file for the given exploration.
//
// The optional fromState and toState can be the ids of the states
// during a transition.  If non-zero, then the toState will be red and
// so will the edges from fromState to toState.
func Dot(e *core.Exploration, w io.Writer, fromState, toState string) error {

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	seen := make(map[string]bool)
	node := func(id string, s *core.State) {
		if seen[id] {
			return
		}
		seen[id] = true

		if id == core.End {
			fmt.Fprintf(w, "  %s [shape=\"doublecircle\", style=\"filled\", fillcolor=\"#52aa5e\", label=\"END\"]\n", quote(id))
			return
		}

		label := html.EscapeString(id)
		fillcolor := "#ffffff"
		style := "filled"
		color := "black"
		if s == nil {
			style += ",dashed"
		} else {
			if s.Doc != "" {
				label += "<BR/><FONT POINT-SIZE='8'>" + html.EscapeString(firstSentence(s.Doc)) + "</FONT>"
			}
			if s.Widget != nil {
				label += "<BR/><FONT POINT-SIZE='8'>" + html.EscapeString(s.Widget.WidgetId) + "</FONT>"
				if c, have := kindColors[s.Widget.Kind()]; have {
					fillcolor = c
				}
			}
		}
		if id == e.InitState {
			style += ",bold"
		}
		if id == toState {
			color = "red"
			fillcolor = "#f98b8b"
		}
		fmt.Fprintf(w, "  %s [style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			quote(id), style, color, fillcolor, label)
	}

	process := func(id string, s *core.State) {
		node(id, s)
		if s == nil || s.Widget == nil {
			return
		}
		for _, h := range s.Widget.Handlers {
			if h == nil {
				continue
			}
			for i, r := range h.Rules {
				if r == nil {
					continue
				}
				node(r.Dest, e.States[r.Dest])

				label := html.EscapeString(r.Name)
				if 0 < len(r.Inputs) {
					var src string
					if bs, err := yaml.Marshal(r.Inputs); err != nil {
						src = err.Error()
					} else {
						src = string(bs)
					}
					label += `<FONT POINT-SIZE="8"><BR ALIGN="LEFT"/>` + lines(src) + `</FONT>`
				}
				if r.GuardSource != nil {
					label += `<FONT POINT-SIZE="6"><BR/>` + lines(core.Stringify(r.GuardSource.Source)) + `</FONT>`
				} else if r.Guard != nil {
					label += `<BR ALIGN="LEFT"/>guarded<BR ALIGN="LEFT"/>`
				}

				color := "black"
				if fromState == id && toState == r.Dest {
					color = "red"
				}

				fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" label = <%d/%d %s> ]\n",
					quote(id), quote(r.Dest), color, i+1, len(h.Rules), label)
			}
		}
	}

	if s, have := e.States[e.InitState]; have {
		process(e.InitState, s)
	}
	for _, id := range e.StateIds() {
		if id == e.InitState {
			continue
		}
		process(id, e.States[id])
	}

	_, err := fmt.Fprintf(w, "}\n")
	return err
}

// PNG generates a PNG image based on output from Dot.
//
// This function will write two files: basename.dot and basename.png,
// where the basename is the given string.  Requires the dot program.
func PNG(e *core.Exploration, basename string, fromState, toState string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(e, dotfile, fromState, toState); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err := dotfile.Close(); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-Gstart=1", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func quote(s string) string {
	return `"` + strings.Replace(s, `"`, `\"`, -1) + `"`
}

// lines escapes the text for a Graphviz HTML label with
// left-aligned lines.
func lines(s string) string {
	s = html.EscapeString(strings.TrimRight(s, "\n"))
	return strings.Replace(s+"\n", "\n", `<BR ALIGN="LEFT"/>`, -1)
}

func firstSentence(doc string) string {
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return strings.TrimSpace(doc)
}
