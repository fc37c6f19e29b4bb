// Package storagetest has checks that every storage.Store should
// pass.
package storagetest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/storage"
)

// Sample makes a small exploration with the given id.
//
// State "q" asks for a word.  "cat" goes to state "done", anything
// else loops back to "q".
func Sample(id string, public bool) *core.Exploration {
	return &core.Exploration{
		Id:        id,
		Title:     "Sample " + id,
		Public:    public,
		InitState: "q",
		States: map[string]*core.State{
			"q": {
				Content: []core.Content{
					{Type: core.TextContent, Value: "What says meow?"},
				},
				Widget: &core.Widget{
					WidgetId: "TextInput",
					Handlers: []*core.Handler{
						{
							Name: core.DefaultHandler,
							Rules: []*core.Rule{
								{
									Name:     "Equals",
									Inputs:   map[string]interface{}{"x": "cat"},
									Dest:     "done",
									Feedback: "Yes",
								},
								{
									Name: core.DefaultRule,
									Dest: "q",
								},
							},
						},
					},
				},
			},
			"done": {
				Content: []core.Content{
					{Type: core.TextContent, Value: "Bye"},
				},
				Widget: &core.Widget{
					WidgetId: "Continue",
					Handlers: []*core.Handler{
						{
							Name: core.DefaultHandler,
							Rules: []*core.Rule{
								{Name: core.DefaultRule, Dest: core.End},
							},
						},
					},
				},
			},
		},
	}
}

// Conformance exercises a Store that starts empty.
func Conformance(t *testing.T, s storage.Store) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		if _, err := s.GetExploration(ctx, "nope"); !core.IsNotFound(err) {
			t.Fatal(err)
		}
		if _, err := s.RecordAnswer(ctx, "nope", "q", `"x"`); !core.IsNotFound(err) {
			t.Fatal(err)
		}
	})

	t.Run("put", func(t *testing.T) {
		for _, e := range []*core.Exploration{
			Sample("a", true),
			Sample("b", true),
			Sample("c", false),
			Sample("d", true),
		} {
			if err := s.PutExploration(ctx, e); err != nil {
				t.Fatal(err)
			}
		}

		e, err := s.GetExploration(ctx, "b")
		if err != nil {
			t.Fatal(err)
		}
		if !e.Compiled() || e.Title != "Sample b" {
			t.Fatalf("%#v", e)
		}

		bad := Sample("bad", true)
		bad.InitState = "zzz"
		if err := s.PutExploration(ctx, bad); !core.IsInvalidContent(err) {
			t.Fatal(err)
		}
	})

	t.Run("list", func(t *testing.T) {
		ss, err := s.ListExplorations(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(ss) != 4 {
			t.Fatalf("%d summaries", len(ss))
		}
		for i, id := range []string{"a", "b", "c", "d"} {
			if ss[i].Id != id {
				t.Fatalf("%d: %s", i, ss[i].Id)
			}
		}
		if ss[2].Public {
			t.Fatal("c is public")
		}

		seen := make(map[string]bool)
		for i := 0; i < 3; i++ {
			chooser := core.ChooserFunc(func(n int) int { return i % n })
			id, err := storage.RandomPublic(ctx, s, chooser)
			if err != nil {
				t.Fatal(err)
			}
			seen[id] = true
		}
		if seen["a"] || seen["c"] || !seen["b"] || !seen["d"] {
			t.Fatal(seen)
		}
	})

	t.Run("record", func(t *testing.T) {
		n, err := s.RecordAnswer(ctx, "a", "q", `"dog"`)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("count %d", n)
		}
		if _, err = s.RecordAnswer(ctx, "a", "zzz", `"dog"`); !core.IsNotFound(err) {
			t.Fatal(err)
		}
	})

	t.Run("longAnswer", func(t *testing.T) {
		long := `"` + strings.Repeat("a", 40000) + `"`
		for want := 1; want <= 2; want++ {
			n, err := s.RecordAnswer(ctx, "b", "q", long)
			if err != nil {
				t.Fatal(err)
			}
			if n != want {
				t.Fatalf("count %d", n)
			}
		}

		other := `"` + strings.Repeat("a", 40000) + `b"`
		n, err := s.RecordAnswer(ctx, "b", "q", other)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("count %d for a different long answer", n)
		}

		st, err := s.GetState(ctx, "b", "q")
		if err != nil {
			t.Fatal(err)
		}
		if len(st.UnresolvedAnswers) != 2 {
			t.Fatalf("%d keys", len(st.UnresolvedAnswers))
		}
	})

	t.Run("concurrent", func(t *testing.T) {
		var (
			n   = 40
			wg  sync.WaitGroup
			mu  sync.Mutex
			bad []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.RecordAnswer(ctx, "d", "q", `"fish"`); err != nil {
					mu.Lock()
					bad = append(bad, err)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if len(bad) > 0 {
			t.Fatal(bad[0])
		}
		st, err := s.GetState(ctx, "d", "q")
		if err != nil {
			t.Fatal(err)
		}
		if got := st.UnresolvedAnswers[`"fish"`]; got != n {
			t.Fatalf("count %d", got)
		}
	})

	t.Run("putState", func(t *testing.T) {
		st, err := s.GetState(ctx, "a", "q")
		if err != nil {
			t.Fatal(err)
		}
		if st.UnresolvedAnswers[`"dog"`] != 1 {
			t.Fatalf("%v", st.UnresolvedAnswers)
		}

		// An author resolves the answers.
		st.UnresolvedAnswers = nil
		st.Content[0].Value = "What purrs?"
		if err := s.PutState(ctx, "a", st); err != nil {
			t.Fatal(err)
		}

		if st, err = s.GetState(ctx, "a", "q"); err != nil {
			t.Fatal(err)
		}
		if len(st.UnresolvedAnswers) != 0 {
			t.Fatalf("%v", st.UnresolvedAnswers)
		}
		if st.Content[0].Value != "What purrs?" {
			t.Fatal(st.Content[0].Value)
		}

		broken := st.Copy()
		broken.Widget.Handlers[0].Rules[0].Dest = "nowhere"
		if err := s.PutState(ctx, "a", broken); !core.IsInvalidContent(err) {
			t.Fatal(err)
		}
		if err := s.PutState(ctx, "nope", st); !core.IsNotFound(err) {
			t.Fatal(err)
		}
	})

	t.Run("copies", func(t *testing.T) {
		e, err := s.GetExploration(ctx, "b")
		if err != nil {
			t.Fatal(err)
		}
		e.States["q"].Content = nil
		if again, _ := s.GetExploration(ctx, "b"); len(again.States["q"].Content) == 0 {
			t.Fatal("GetExploration didn't return a copy")
		}
	})
}
