package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"paragraphs", "<p>One.</p><p>Two.</p>", "One.\n\nTwo."},
		{"br", "Right!<br>Well done.", "Right!\nWell done."},
		{"entities", "<p>Tom &amp; Jerry</p>", "Tom & Jerry"},
		{"image", `<img src="/imagehandler/sky.png">`, "[image /imagehandler/sky.png]"},
		{"input", `<input type="text" placeholder="Your answer">`, "[Your answer]"},
		{"choices", `<div class="multiple-choice" data-choices='["Red","Blue"]'></div>`, "0) Red\n1) Blue"},
		{"escaped choices", `<div class="multiple-choice" data-choices='[&#34;Red&#34;,&#34;Blue&#34;]'></div>`, "0) Red\n1) Blue"},
		{"script", "<p>a</p><script>alert(1)</script>", "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Text(tc.src)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("%q != %q", got, tc.want)
			}
		})
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		line string
		want interface{}
	}{
		{"cat", "cat"},
		{" 3 ", 3.0},
		{`["red","blue"]`, []interface{}{"red", "blue"}},
		{`"quoted"`, "quoted"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ParseAnswer(tc.line); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%q: %#v", tc.line, got)
		}
	}
}

// fakeService serves a two-state exploration: "cat" finishes, and
// anything else stays put.
func fakeService(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, res *core.Result) {
		if err := json.NewEncoder(w).Encode(res); err != nil {
			t.Error(err)
		}
	}
	mux.HandleFunc("GET /explore/pets", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "pathways_session", Value: "s", Path: "/"})
		reply(w, &core.Result{
			ExplorationId:         "pets",
			StateId:               "meow",
			Title:                 "Pets",
			HTML:                  "<p>Which animal says meow?</p>",
			InteractiveWidgetHTML: `<input placeholder="Type an animal">`,
			Params:                core.Params{"n": 1.0},
		})
	})
	mux.HandleFunc("POST /explore/pets/meow", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("pathways_session"); err != nil || c.Value != "s" {
			http.Error(w, `{"error":"no session"}`, http.StatusBadRequest)
			return
		}
		var p struct {
			BlockNumber int         `json:"block_number"`
			Params      core.Params `json:"params"`
			Answer      interface{} `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Params["n"] != 1.0 {
			http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
			return
		}
		res := &core.Result{
			ExplorationId:           "pets",
			StateId:                 "meow",
			BlockNumber:             p.BlockNumber + 1,
			Params:                  p.Params,
			ReaderHTML:              "<div>" + core.Stringify(p.Answer) + "</div>",
			HTML:                    "<p>No.</p>",
			StickyInteractiveWidget: true,
		}
		if p.Answer == "cat" {
			res.HTML = "<p>Yes.</p>"
			res.Finished = true
		}
		reply(w, res)
	})
	return httptest.NewServer(mux)
}

func TestExplore(t *testing.T) {
	srv := fakeService(t)
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	in := strings.NewReader("dog\ncat\n")
	if err := Explore(context.Background(), c, "pets", in, &out, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	s := out.String()
	for _, want := range []string{"# Pets", "Which animal says meow?", "[Type an animal]", "dog", "No.", "Yes.", "(END)"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in\n%s", want, s)
		}
	}
}

func TestExploreEOF(t *testing.T) {
	srv := fakeService(t)
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Explore(context.Background(), c, "pets", strings.NewReader("dog\n"), &out, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "(END)") {
		t.Fatal(out.String())
	}
}

func TestServiceError(t *testing.T) {
	srv := fakeService(t)
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Start(context.Background(), "nope")
	se, is := err.(*ServiceError)
	if !is || se.StatusCode != http.StatusNotFound {
		t.Fatal(err)
	}
}
