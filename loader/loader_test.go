package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/interpreters"
	"github.com/Comcast/pathways/render"
	"github.com/Comcast/pathways/storage"
)

const tiny = `
title: Tiny
init_state: q
states:
  q:
    content:
      - type: text
        value: <p>Say hi.</p>
    widget:
      widget_id: TextInput
      handlers:
        - name: submit
          rules:
            - name: Equals
              inputs:
                x: hi
              dest: END
            - name: Default
              dest: q
`

func TestParseExploration(t *testing.T) {
	ctx := context.Background()
	e, err := ParseExploration(ctx, "tiny", []byte(tiny), nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Id != "tiny" {
		t.Fatal(e.Id)
	}
	if e.Version != Hash([]byte(tiny)) {
		t.Fatal(e.Version)
	}
	if !e.Compiled() {
		t.Fatal("not compiled")
	}
	if e.States["q"].Id != "q" {
		t.Fatal(e.States["q"].Id)
	}
}

func TestParseExplorationBad(t *testing.T) {
	ctx := context.Background()
	src := strings.Replace(tiny, "dest: END", "dest: nowhere", 1)
	_, err := ParseExploration(ctx, "tiny", []byte(src), nil)
	var ic *core.InvalidContent
	if !errors.As(err, &ic) {
		t.Fatal(err)
	}
	if ic.State != "q" {
		t.Fatal(ic.State)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Fatal("collision")
	}
	if Hash([]byte("a")) != Hash([]byte("a")) {
		t.Fatal("unstable")
	}
}

func TestReadDir(t *testing.T) {
	ctx := context.Background()
	es, err := ReadDir(ctx, "../explorations", interpreters.Standard(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"0", "colors", "numbers", "pets"}
	if len(es) != len(want) {
		t.Fatal(len(es))
	}
	for i, e := range es {
		if e.Id != want[i] {
			t.Fatalf("%d: %s != %s", i, e.Id, want[i])
		}
		if e.Version == "" {
			t.Fatal(e.Id + " has no version")
		}
	}
}

func TestReadDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		src := "id: same\n" + tiny
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDir(context.Background(), dir, nil, nil); err == nil {
		t.Fatal("expected a duplicate id error")
	}
}

func TestReadExplorationDefaultId(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "hello.yaml")
	if err := os.WriteFile(filename, []byte(tiny), 0644); err != nil {
		t.Fatal(err)
	}
	e, err := ReadExploration(context.Background(), filename, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Id != "hello" {
		t.Fatal(e.Id)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	is := interpreters.Standard(nil)
	s := storage.NewMem(is, nil)
	n, err := Load(ctx, s, "../explorations", is, nil)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := s.ListExplorations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(ss) || n != 4 {
		t.Fatalf("%d %d", n, len(ss))
	}
}

func TestReadCatalog(t *testing.T) {
	c, err := ReadCatalog("../widgets.yaml")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, id := range []string{"TextInput", "NumericInput", "SetInput", "MultipleChoiceInput", "Continue"} {
		if _, err := c.Interactive(ctx, id, nil); err != nil {
			t.Fatal(id, err)
		}
	}

	code, err := c.Interactive(ctx, "Continue", map[string]interface{}{"label": "Next"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(code, ">Next<") {
		t.Fatal(code)
	}

	if _, err := c.NonInteractive(ctx, "Chart", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.NonInteractive(ctx, "TextInput", nil); err == nil {
		t.Fatal("TextInput isn't embeddable")
	}
}

func TestParseCatalogNoId(t *testing.T) {
	if _, err := ParseCatalog([]byte("widgets:\n  - code: <hr>\n")); err == nil {
		t.Fatal("expected an error")
	}
}

func newReader(t *testing.T) *core.Reader {
	ctx := context.Background()
	is := interpreters.Standard(nil)
	s := storage.NewMem(is, nil)
	if _, err := Load(ctx, s, "../explorations", is, nil); err != nil {
		t.Fatal(err)
	}
	c, err := ReadCatalog("../widgets.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return core.NewReader(s, render.NewHTML(c, nil), c)
}

func TestPetsWalkthrough(t *testing.T) {
	ctx := context.Background()
	r := newReader(t)

	res, err := r.Start(ctx, "pets", "s")
	if err != nil {
		t.Fatal(err)
	}
	if res.StateId != "meow" || !strings.Contains(res.InteractiveWidgetHTML, "Type an animal") {
		t.Fatal(res.StateId, res.InteractiveWidgetHTML)
	}

	res, err = r.Transition(ctx, &core.Request{
		ExplorationId: "pets",
		StateId:       res.StateId,
		BlockNumber:   res.BlockNumber,
		Params:        res.Params,
		Answer:        "Cat",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.StateId != "sound" {
		t.Fatal(res.StateId)
	}
	animal, _ := res.Params["animal"].(string)
	if animal == "" {
		t.Fatal(res.Params)
	}
	if !strings.Contains(res.HTML, "What sound does a "+animal) {
		t.Fatal(res.HTML)
	}
	if !res.StickyInteractiveWidget || res.InteractiveWidgetHTML != "" {
		t.Fatal("expected the sticky TextInput to stay")
	}

	res, err = r.Transition(ctx, &core.Request{
		ExplorationId: "pets",
		StateId:       res.StateId,
		BlockNumber:   res.BlockNumber,
		Params:        res.Params,
		Answer:        "moo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished {
		t.Fatal("not finished")
	}
}

func TestNumbersGuard(t *testing.T) {
	ctx := context.Background()
	r := newReader(t)

	res, err := r.Start(ctx, "numbers", "s")
	if err != nil {
		t.Fatal(err)
	}

	// An even number trips the guarded rule.
	res, err = r.Transition(ctx, &core.Request{
		ExplorationId: "numbers",
		StateId:       res.StateId,
		BlockNumber:   res.BlockNumber,
		Params:        res.Params,
		Answer:        4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.StateId != "guess" || !strings.Contains(res.HTML, "An odd number") {
		t.Fatal(res.StateId, res.HTML)
	}

	res, err = r.Transition(ctx, &core.Request{
		ExplorationId: "numbers",
		StateId:       res.StateId,
		BlockNumber:   res.BlockNumber,
		Params:        res.Params,
		Answer:        res.Params["target"],
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.StateId != "pi" {
		t.Fatal(res.StateId)
	}
}
