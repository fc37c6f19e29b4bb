package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

// Op is a WebSocket request.  Op is "start" or "transition".
type Op struct {
	Op string `json:"op"`
	core.Request
}

// OpResult is the reply to an Op.
type OpResult struct {
	Op     string       `json:"op"`
	Result *core.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
	Status int          `json:"status,omitempty"`
}

// Do performs the operation.  The session is the connection's, not
// the one (if any) given in the request.
func (op *Op) Do(ctx context.Context, r *core.Reader, session string) *OpResult {
	var (
		res *core.Result
		err error
	)

	switch op.Op {
	case "start":
		res, err = r.Start(ctx, op.ExplorationId, session)
	case "transition":
		req := op.Request
		req.Session = session
		res, err = r.Transition(ctx, &req)
	default:
		err = &BadRequest{Problem: `unknown op "` + op.Op + `"`}
	}

	if err != nil {
		return &OpResult{
			Op:     op.Op,
			Error:  err.Error(),
			Status: StatusCode(err),
		}
	}
	return &OpResult{
		Op:     op.Op,
		Result: res,
	}
}

// ws serves a WebSocket connection.  Each text frame is an Op, and
// each Op gets one OpResult in reply.
func (s *Server) ws(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)

	c, err := s.upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		s.Logger.Warn("upgrade error", zap.Error(err))
		return
	}
	defer c.Close()

	log := s.Logger.With(zap.String("session", session))
	log.Debug("websocket opened")

	ctx := r.Context()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			log.Debug("websocket closed", zap.Error(err))
			return
		}

		var reply *OpResult
		var op Op
		if err := json.Unmarshal(message, &op); err != nil {
			reply = &OpResult{
				Error:  (&BadRequest{Problem: "can't parse: " + err.Error()}).Error(),
				Status: http.StatusBadRequest,
			}
		} else {
			reply = op.Do(ctx, s.Reader, session)
		}

		js, err := json.Marshal(reply)
		if err != nil {
			log.Warn("websocket reply marshal error", zap.Error(err))
			continue
		}
		if err := c.WriteMessage(mt, js); err != nil {
			log.Debug("websocket write error", zap.Error(err))
			return
		}
	}
}
