package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/interpreters/noop"
	"github.com/Comcast/pathways/loader"
	. "github.com/Comcast/pathways/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// RenderExplorationHTML writes an HTML description of the
// exploration's states and rules.  Docs are Markdown.
func RenderExplorationHTML(e *core.Exploration, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="explorationDoc doc">%s</div>`, md.Run([]byte(e.Doc)))

	fn := func(id string, s *core.State) {
		f(`<tr class="state"><td><span id="%s" class="stateName">%s</span></td><td>`, html.EscapeString(id), html.EscapeString(id))

		if s.Doc != "" {
			f(`<div class="stateDoc doc">%s</div>`, md.Run([]byte(s.Doc)))
		}
		for _, pc := range s.ParamChanges {
			f(`<div class="param">%s &isin; <code>%s</code></div>`, html.EscapeString(pc.Name), html.EscapeString(JS(pc.Values)))
		}
		for _, c := range s.Content {
			f(`<div class="content"><span class="contentType">%s</span><pre>%s</pre></div>`, c.Type, html.EscapeString(c.Value))
		}
		if s.Widget == nil {
			f(`</td></tr>`)
			return
		}
		f(`<div>widget: <span class="widget">%s</span></div>`, html.EscapeString(s.Widget.WidgetId))
		for _, h := range s.Widget.Handlers {
			if h == nil {
				continue
			}
			f(`<div class="handler">handler: <span class="handlerName">%s</span>`, html.EscapeString(h.Name))
			f(`<table class="rules">`)
			for i, r := range h.Rules {
				if r == nil {
					continue
				}
				f(`<tr><td><div class="ruleNum">%d</div></td><td>`, i)
				f(`<table>`)
				f(`<tr><td>operator</td><td><code>%s</code></td></tr>`, html.EscapeString(r.Name))
				if 0 < len(r.Inputs) {
					f(`<tr><td>inputs</td><td><code>%s</code></td></tr>`, html.EscapeString(JS(r.Inputs)))
				}
				if r.GuardSource != nil {
					f(`<tr><td>guard</td><td><div class="code"><pre>%s</pre></div></td></tr>`,
						html.EscapeString(core.Stringify(r.GuardSource.Source)))
				}
				if r.Dest == core.End {
					f(`<tr><td>dest</td><td><code>%s</code></td></tr>`, core.End)
				} else {
					f(`<tr><td>dest</td><td><a href="#%s"><code>%s</code></a></td></tr>`,
						html.EscapeString(r.Dest), html.EscapeString(r.Dest))
				}
				if r.Feedback != "" {
					f(`<tr><td>feedback</td><td>%s</td></tr>`, html.EscapeString(r.Feedback))
				}
				f(`</table>`)
				f(`</td></tr>`)
			}
			f(`</table>`)
			f(`</div>`)
		}
		f(`</td></tr>`)
	}

	f(`<div class="states"><table>`)
	if s, have := e.States[e.InitState]; have && s != nil {
		fn(e.InitState, s)
	}
	for _, id := range e.StateIds() {
		s := e.States[id]
		if id == e.InitState || s == nil {
			continue
		}
		fn(id, s)
	}
	f(`</table></div>`)

	return nil
}

// RenderExplorationPage writes a complete HTML page for the
// exploration.
func RenderExplorationPage(e *core.Exploration, out io.Writer, cssFiles []string, includeGraph bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/exploration-html.css"}
	}

	title := e.Title
	if title == "" {
		title = e.Id
	}
	title = html.EscapeString(title)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	if includeGraph {
		js, err := json.Marshal(e)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, `
  <script src="https://cdnjs.cloudflare.com/ajax/libs/mermaid/8.0.0/mermaid.min.js"></script>
  <script>
  var thisExploration = %s;
  mermaid.initialize({startOnLoad:true});
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if includeGraph {
		fmt.Fprintf(out, "<div class=\"mermaid\">\n")
		if err := Mermaid(e, &escaper{out}, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "</div>\n")
	}

	if err := RenderExplorationHTML(e, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderExplorationPage reads an exploration from a YAML file
// and writes its HTML page.  Guards are compiled with a silent noop
// interpreter, so the page can be rendered without a Javascript
// runtime.
func ReadAndRenderExplorationPage(ctx context.Context, filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	i := noop.NewInterpreter()
	i.Silent = true
	interpreters := map[string]core.Interpreter{
		"goja":       i,
		"ecmascript": i,
		"noop":       i,
		"":           i,
	}

	e, err := loader.ReadExploration(ctx, filename, interpreters)
	if err != nil {
		return err
	}

	return RenderExplorationPage(e, out, cssFiles, includeGraph)
}

// escaper HTML-escapes what it writes.
type escaper struct {
	w io.Writer
}

func (e *escaper) Write(bs []byte) (int, error) {
	if _, err := io.WriteString(e.w, html.EscapeString(string(bs))); err != nil {
		return 0, err
	}
	return len(bs), nil
}
