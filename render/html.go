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

// Package render turns exploration content into HTML fragments.
package render

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

// fragments are the templates for content blocks.
//
// Text is authored markup, so it's passed as template.HTML.  Everything
// else is escaped.
var fragments = template.Must(template.New("content").Parse(`
{{define "text"}}<div class="content-text">{{.Value}}</div>{{end}}
{{define "image"}}<div class="content-image"><img src="/imagehandler/{{.Value}}"></div>{{end}}
{{define "video"}}<div class="content-video"><iframe src="https://www.youtube.com/embed/{{.Value}}" frameborder="0" allowfullscreen></iframe></div>{{end}}
{{define "widget"}}<div class="content-widget" id="widget-{{.BlockIndex}}-{{.Index}}"></div>{{end}}
{{define "echo"}}<div class="reader-response">{{.}}</div>{{end}}
`))

// fragment is the data for one of the fragments.
type fragment struct {
	Value      interface{}
	BlockIndex int
	Index      int
}

// HTML is a core.Renderer that produces HTML.
type HTML struct {
	// Catalog provides the code for widgets embedded in content.
	Catalog core.Catalog

	// Logger is optional.
	Logger *zap.Logger

	// LineBreak joins feedback lines.  Defaults to "<br>".
	LineBreak string
}

// NewHTML makes an HTML renderer backed by the given Catalog.
func NewHTML(c core.Catalog, logger *zap.Logger) *HTML {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTML{
		Catalog: c,
		Logger:  logger,
	}
}

func (r *HTML) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func exec(buf *bytes.Buffer, name string, data interface{}) error {
	return fragments.ExecuteTemplate(buf, name, data)
}

// Render renders content blocks.
//
// Widget blocks become placeholders in the markup, and the widget
// code is returned separately as WidgetActivations.  Widgets are
// numbered from 1 within the call.  A widget that the Catalog doesn't
// have is skipped.
func (r *HTML) Render(ctx context.Context, blocks []core.Content, ps core.Params, blockNumber int) (string, []core.WidgetActivation, error) {
	var (
		buf     bytes.Buffer
		widgets = []core.WidgetActivation{}
	)

	for _, b := range blocks {
		var err error
		switch b.Type {
		case core.TextContent:
			err = exec(&buf, "text", fragment{
				Value: template.HTML(core.ResolveHTML(b.Value, ps)),
			})
		case core.ImageContent, core.VideoContent:
			err = exec(&buf, string(b.Type), fragment{
				Value: b.Value,
			})
		case core.WidgetContent:
			var code string
			if code, err = r.Catalog.NonInteractive(ctx, b.Value, ps); err != nil {
				var missing *core.MissingWidget
				if errors.As(err, &missing) {
					r.logger().Debug("skipping missing widget",
						zap.String("widget", b.Value),
						zap.Int("block", blockNumber))
					continue
				}
				return "", nil, err
			}
			w := core.WidgetActivation{
				BlockIndex: blockNumber,
				Index:      len(widgets) + 1,
				Code:       code,
			}
			err = exec(&buf, "widget", fragment{
				BlockIndex: w.BlockIndex,
				Index:      w.Index,
			})
			widgets = append(widgets, w)
		default:
			return "", nil, &core.InvalidContent{
				Problem: `invalid content type "` + string(b.Type) + `"`,
			}
		}
		if err != nil {
			return "", nil, err
		}
	}

	return buf.String(), widgets, nil
}

// Feedback renders rule feedback.
//
// The feedback is plain text.  Placeholders are resolved, each line is
// escaped, and the lines are joined with LineBreak.
func (r *HTML) Feedback(ctx context.Context, feedback string, ps core.Params, blockNumber int) (string, []core.WidgetActivation, error) {
	br := r.LineBreak
	if br == "" {
		br = "<br>"
	}

	lines := strings.Split(core.ResolveString(feedback, ps), "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}

	var buf bytes.Buffer
	if err := exec(&buf, "text", fragment{
		Value: template.HTML(strings.Join(lines, br)),
	}); err != nil {
		return "", nil, err
	}

	return buf.String(), []core.WidgetActivation{}, nil
}

// Echo renders the reader's answer.
func (r *HTML) Echo(ctx context.Context, answer interface{}) (string, error) {
	var buf bytes.Buffer
	if err := exec(&buf, "echo", core.Stringify(answer)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
