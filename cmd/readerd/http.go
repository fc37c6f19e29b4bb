/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/storage"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionCookie holds the reader's session id.
const SessionCookie = "pathways_session"

// Payload is what a client submits to transition out of a state.
type Payload struct {
	BlockNumber int         `json:"block_number"`
	Params      core.Params `json:"params,omitempty"`
	Answer      interface{} `json:"answer"`
	Handler     string      `json:"handler,omitempty"`
}

// BadRequest is a malformed request from a client.
type BadRequest struct {
	Problem string
}

func (e *BadRequest) Error() string {
	return "bad request: " + e.Problem
}

// Server is the reader's HTTP API.
type Server struct {
	Reader  *core.Reader
	Store   storage.Store
	Chooser core.Chooser
	Logger  *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(r *core.Reader, s storage.Store, c core.Chooser, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Reader:  r,
		Store:   s,
		Chooser: c,
		Logger:  logger,
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "\"pong\"\n")
	})
	mux.HandleFunc("GET /explore/{id}", s.start)
	mux.HandleFunc("POST /explore/{id}/{stateId}", s.transition)
	mux.HandleFunc("GET /random", s.random)
	mux.HandleFunc("GET /ws", s.ws)

	return mux
}

// session finds or makes the reader's session id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return id
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.Reader.Start(r.Context(), id, s.session(w, r))
	if err != nil {
		s.punt(w, err)
		return
	}
	s.reply(w, res)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r)
	if err != nil {
		s.punt(w, err)
		return
	}

	req := &core.Request{
		ExplorationId: r.PathValue("id"),
		StateId:       r.PathValue("stateId"),
		BlockNumber:   p.BlockNumber,
		Params:        p.Params,
		Answer:        p.Answer,
		Handler:       p.Handler,
		Session:       s.session(w, r),
	}

	res, err := s.Reader.Transition(r.Context(), req)
	if err != nil {
		s.punt(w, err)
		return
	}
	s.reply(w, res)
}

// readPayload gets the Payload from the "payload" form value or, if
// that's absent, from the request body.
func readPayload(r *http.Request) (*Payload, error) {
	var js []byte
	if x := r.FormValue("payload"); x != "" {
		js = []byte(x)
	} else {
		bs, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, &BadRequest{Problem: err.Error()}
		}
		js = bs
	}
	if len(js) == 0 {
		return nil, &BadRequest{Problem: "no payload"}
	}

	var p Payload
	if err := json.Unmarshal(js, &p); err != nil {
		return nil, &BadRequest{Problem: "can't parse payload: " + err.Error()}
	}
	return &p, nil
}

func (s *Server) random(w http.ResponseWriter, r *http.Request) {
	id, err := storage.RandomPublic(r.Context(), s.Store, s.Chooser)
	if err != nil {
		if err == storage.NoPublicExplorations {
			err = &core.NotFound{Kind: "public exploration"}
		}
		s.punt(w, err)
		return
	}
	http.Redirect(w, r, "/explore/"+url.PathEscape(id), http.StatusFound)
}

// StatusCode maps an error to an HTTP status.
func StatusCode(err error) int {
	var (
		br *BadRequest
		mw *core.MissingWidget
	)
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.As(err, &mw), core.IsInvalidContent(err):
		return http.StatusInternalServerError
	case core.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// punt writes an error as JSON.
func (s *Server) punt(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.Error(err))
	} else {
		s.Logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}

	msg := map[string]interface{}{
		"error": err.Error(),
	}
	js, jerr := json.Marshal(&msg)
	if jerr != nil {
		js = []byte(`{"error":"unknown"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%s\n", js)
}

func (s *Server) reply(w http.ResponseWriter, res *core.Result) {
	js, err := json.Marshal(res)
	if err != nil {
		s.punt(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "%s\n", js)
}
