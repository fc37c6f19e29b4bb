package render

import (
	"context"
	"strings"
	"testing"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

func testCatalog() *MapCatalog {
	return NewMapCatalog(
		&WidgetCode{
			Id:     "Chart",
			Code:   `<chart of="{{what}}" size="{{size}}">`,
			Params: map[string]interface{}{"size": 3},
		},
		&WidgetCode{
			Id:          "TextInput",
			Interactive: true,
			Code:        `<input placeholder="{{placeholder}}">`,
		},
	)
}

func TestRenderBlocks(t *testing.T) {
	r := NewHTML(testCatalog(), zap.NewNop())
	ctx := context.Background()

	html, widgets, err := r.Render(ctx, []core.Content{
		{Type: core.TextContent, Value: "Hello <b>{{name}}</b>"},
		{Type: core.WidgetContent, Value: "Chart"},
		{Type: core.WidgetContent, Value: "Missing"},
		{Type: core.ImageContent, Value: "img1"},
		{Type: core.WidgetContent, Value: "Chart"},
	}, core.Params{"name": "Ada", "what": "sales"}, 2)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(html, "Hello <b>Ada</b>") {
		t.Fatal(html)
	}
	if !strings.Contains(html, `<img src="/imagehandler/img1">`) {
		t.Fatal(html)
	}
	if !strings.Contains(html, `id="widget-2-1"`) || !strings.Contains(html, `id="widget-2-2"`) {
		t.Fatal(html)
	}
	if len(widgets) != 2 {
		t.Fatalf("widgets %d", len(widgets))
	}
	for i, w := range widgets {
		if w.BlockIndex != 2 || w.Index != i+1 {
			t.Fatalf("%#v", w)
		}
		if w.Code != `<chart of="sales" size="3">` {
			t.Fatal(w.Code)
		}
	}
}

func TestRenderEscapesParams(t *testing.T) {
	r := NewHTML(testCatalog(), nil)
	ctx := context.Background()
	ps := core.Params{
		"answer": "<script>alert(1)</script>",
		"what":   `"><script>`,
	}

	html, widgets, err := r.Render(ctx, []core.Content{
		{Type: core.TextContent, Value: "<p>You said {{answer}}</p>"},
		{Type: core.WidgetContent, Value: "Chart"},
	}, ps, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal(html)
	}
	if !strings.Contains(html, "<p>You said &lt;script&gt;alert(1)&lt;/script&gt;</p>") {
		t.Fatal(html)
	}
	if len(widgets) != 1 || widgets[0].Code != `<chart of="&#34;&gt;&lt;script&gt;" size="3">` {
		t.Fatalf("%#v", widgets)
	}
}

func TestRenderBadType(t *testing.T) {
	r := NewHTML(testCatalog(), nil)
	_, _, err := r.Render(context.Background(), []core.Content{
		{Type: "audio", Value: "x"},
	}, nil, 0)
	if !core.IsInvalidContent(err) {
		t.Fatal(err)
	}
}

func TestFeedbackEscapes(t *testing.T) {
	r := NewHTML(testCatalog(), nil)
	html, widgets, err := r.Feedback(context.Background(), "Not <{{answer}}>\nTry again", core.Params{"answer": "dog"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<div class="content-text">Not &lt;dog&gt;<br>Try again</div>`; html != want {
		t.Fatal(html)
	}
	if len(widgets) != 0 {
		t.Fatal(widgets)
	}
}

func TestEcho(t *testing.T) {
	r := NewHTML(testCatalog(), nil)
	html, err := r.Echo(context.Background(), "<Blue>")
	if err != nil {
		t.Fatal(err)
	}
	if html != `<div class="reader-response">&lt;Blue&gt;</div>` {
		t.Fatal(html)
	}
	if html, _ = r.Echo(context.Background(), 2.0); !strings.Contains(html, ">2<") {
		t.Fatal(html)
	}
}

func TestCatalog(t *testing.T) {
	c := testCatalog()
	ctx := context.Background()

	code, err := c.Interactive(ctx, "TextInput", map[string]interface{}{"placeholder": "cat"})
	if err != nil {
		t.Fatal(err)
	}
	if code != `<input placeholder="cat">` {
		t.Fatal(code)
	}

	if _, err = c.Interactive(ctx, "Chart", nil); !core.IsNotFound(err) {
		t.Fatal(err)
	}
	if _, err = c.NonInteractive(ctx, "TextInput", nil); !core.IsNotFound(err) {
		t.Fatal(err)
	}

	// Given params override defaults.
	if code, _ = c.NonInteractive(ctx, "Chart", map[string]interface{}{"size": 9}); code != `<chart of="" size="9">` {
		t.Fatal(code)
	}

	if ids := c.Ids(); len(ids) != 2 || ids[0] != "Chart" {
		t.Fatal(ids)
	}
}
