package tools

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRenderExplorationHTML(t *testing.T) {
	ctx := context.Background()

	t.Run("withoutGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		err := ReadAndRenderExplorationPage(ctx, "../explorations/pets.yaml", []string{"exploration.css"}, out, false)
		if err != nil {
			t.Fatal(err)
		}

		page := out.String()
		for _, want := range []string{
			"<title>Pets</title>",
			"<strong>meow</strong>",
			`<span id="meow" class="stateName">meow</span>`,
			`<a href="#sound">`,
			"exploration.css",
		} {
			if !strings.Contains(page, want) {
				t.Fatalf("missing %s", want)
			}
		}
		if strings.Contains(page, "mermaid") {
			t.Fatal("unexpected graph")
		}
	})

	t.Run("withGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		err := ReadAndRenderExplorationPage(ctx, "../explorations/numbers.yaml", nil, out, true)
		if err != nil {
			t.Fatal(err)
		}

		page := out.String()
		if !strings.Contains(page, `<div class="mermaid">`) {
			t.Fatal("no graph")
		}
		if !strings.Contains(page, "return _.answer % 2 == 0;") {
			t.Fatal("no guard")
		}
	})
}
