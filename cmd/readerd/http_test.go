package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/pathways/core"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, db bool) *Config {
	cfg := &Config{
		ExplorationsDir: "../../explorations",
		Widgets:         "../../widgets.yaml",
		Seed:            1,
	}
	if db {
		cfg.DB = filepath.Join(t.TempDir(), "pathways.db")
	}
	return cfg
}

func newServer(t *testing.T, db bool) *Server {
	s, cleanup, err := Assemble(context.Background(), testConfig(t, db), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cleanup)
	return s
}

func do(t *testing.T, h http.Handler, r *http.Request) (*httptest.ResponseRecorder, *core.Result) {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		return w, nil
	}
	var res core.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return w, &res
}

func TestPing(t *testing.T) {
	h := newServer(t, false).Handler()
	w, _ := do(t, h, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `"pong"` {
		t.Fatal(w.Code, w.Body.String())
	}
}

func TestStart(t *testing.T) {
	h := newServer(t, false).Handler()

	w, res := do(t, h, httptest.NewRequest("GET", "/explore/pets", nil))
	if res == nil {
		t.Fatal(w.Code, w.Body.String())
	}
	if res.StateId != "meow" || res.BlockNumber != 0 {
		t.Fatal(res.StateId, res.BlockNumber)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Fatal("no session cookie")
	}
	if string(res.DefaultAnswer) != `""` {
		t.Fatal(string(res.DefaultAnswer))
	}

	w, _ = do(t, h, httptest.NewRequest("GET", "/explore/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatal(w.Code)
	}
}

func transitionRequest(t *testing.T, path string, p *Payload, form bool) *http.Request {
	js, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !form {
		r := httptest.NewRequest("POST", path, strings.NewReader(string(js)))
		r.Header.Set("Content-Type", "application/json")
		return r
	}
	body := url.Values{"payload": {string(js)}}.Encode()
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestTransition(t *testing.T) {
	for _, db := range []bool{false, true} {
		for _, form := range []bool{false, true} {
			h := newServer(t, db).Handler()

			_, res := do(t, h, httptest.NewRequest("GET", "/explore/pets", nil))
			if res == nil {
				t.Fatal("no start")
			}

			p := &Payload{
				BlockNumber: res.BlockNumber,
				Params:      res.Params,
				Answer:      "cat",
			}
			w, res := do(t, h, transitionRequest(t, "/explore/pets/meow", p, form))
			if res == nil {
				t.Fatal(db, form, w.Code, w.Body.String())
			}
			if res.StateId != "sound" || res.BlockNumber != 1 {
				t.Fatal(res.StateId, res.BlockNumber)
			}
			if !strings.Contains(res.ReaderHTML, "cat") {
				t.Fatal(res.ReaderHTML)
			}
		}
	}
}

func TestTransitionLongAnswer(t *testing.T) {
	h := newServer(t, true).Handler()

	_, res := do(t, h, httptest.NewRequest("GET", "/explore/pets", nil))
	if res == nil {
		t.Fatal("no start")
	}

	p := &Payload{
		BlockNumber: res.BlockNumber,
		Params:      res.Params,
		Answer:      strings.Repeat("a", 40000),
	}
	w, res := do(t, h, transitionRequest(t, "/explore/pets/meow", p, false))
	if res == nil {
		t.Fatal(w.Code, w.Body.String())
	}
	if res.StateId != "meow" {
		t.Fatal(res.StateId)
	}
}

func TestTransitionErrors(t *testing.T) {
	h := newServer(t, false).Handler()

	tests := []struct {
		name   string
		r      *http.Request
		status int
	}{
		{
			name:   "garbage",
			r:      httptest.NewRequest("POST", "/explore/pets/meow", strings.NewReader("{")),
			status: http.StatusBadRequest,
		},
		{
			name:   "empty",
			r:      httptest.NewRequest("POST", "/explore/pets/meow", strings.NewReader("")),
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown state",
			r:      transitionRequest(t, "/explore/pets/bark", &Payload{Answer: "x"}, false),
			status: http.StatusNotFound,
		},
		{
			name:   "unknown exploration",
			r:      transitionRequest(t, "/explore/nope/meow", &Payload{Answer: "x"}, true),
			status: http.StatusNotFound,
		},
		{
			name:   "wrong method",
			r:      httptest.NewRequest("GET", "/explore/pets/meow", nil),
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, h, tc.r)
			if w.Code != tc.status {
				t.Fatal(w.Code, w.Body.String())
			}
		})
	}
}

func TestRandom(t *testing.T) {
	h := newServer(t, false).Handler()

	for i := 0; i < 10; i++ {
		w, _ := do(t, h, httptest.NewRequest("GET", "/random", nil))
		if w.Code != http.StatusFound {
			t.Fatal(w.Code)
		}
		switch loc := w.Header().Get("Location"); loc {
		case "/explore/colors", "/explore/pets":
		default:
			t.Fatal(loc)
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&core.NotFound{Kind: "state", Id: "x"}, http.StatusNotFound},
		{&core.InvalidContent{Problem: "bad"}, http.StatusInternalServerError},
		{&core.UnknownDestination{Dest: "x"}, http.StatusInternalServerError},
		{&core.MissingWidget{Id: "w"}, http.StatusInternalServerError},
		{&BadRequest{Problem: "bad"}, http.StatusBadRequest},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := StatusCode(tc.err); got != tc.status {
			t.Fatalf("%v: %d != %d", tc.err, got, tc.status)
		}
	}
}

func TestWebSocket(t *testing.T) {
	srv := httptest.NewServer(newServer(t, false).Handler())
	defer srv.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	roundTrip := func(op interface{}) *OpResult {
		if err := c.WriteJSON(op); err != nil {
			t.Fatal(err)
		}
		var reply OpResult
		if err := c.ReadJSON(&reply); err != nil {
			t.Fatal(err)
		}
		return &reply
	}

	reply := roundTrip(map[string]interface{}{
		"op":             "start",
		"exploration_id": "colors",
	})
	if reply.Error != "" || reply.Result.StateId != "sky" {
		t.Fatalf("%#v", reply)
	}

	reply = roundTrip(map[string]interface{}{
		"op":             "transition",
		"exploration_id": "colors",
		"state_id":       "sky",
		"block_number":   reply.Result.BlockNumber,
		"params":         reply.Result.Params,
		"answer":         1,
	})
	if reply.Error != "" || reply.Result.StateId != "mix" {
		t.Fatalf("%#v", reply)
	}
	if !strings.Contains(reply.Result.ReaderHTML, "Blue") {
		t.Fatal(reply.Result.ReaderHTML)
	}

	reply = roundTrip(map[string]interface{}{
		"op": "dance",
	})
	if reply.Status != http.StatusBadRequest {
		t.Fatalf("%#v", reply)
	}

	if err := c.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	var bad OpResult
	if err := c.ReadJSON(&bad); err != nil {
		t.Fatal(err)
	}
	if bad.Status != http.StatusBadRequest {
		t.Fatalf("%#v", bad)
	}

	reply = roundTrip(map[string]interface{}{
		"op":             "start",
		"exploration_id": "nope",
	})
	if reply.Status != http.StatusNotFound {
		t.Fatalf("%#v", reply)
	}
}
