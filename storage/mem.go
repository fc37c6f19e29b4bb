package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Comcast/pathways/core"

	"go.uber.org/zap"
)

// Mem is an in-memory Store.
type Mem struct {
	sync.Mutex

	// Interpreters are used to compile guards.
	Interpreters map[string]core.Interpreter

	Logger *zap.Logger

	explorations map[string]*core.Exploration
}

// NewMem makes an empty Mem.
func NewMem(interpreters map[string]core.Interpreter, logger *zap.Logger) *Mem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mem{
		Interpreters: interpreters,
		Logger:       logger,
		explorations: make(map[string]*core.Exploration),
	}
}

func (s *Mem) get(id string) (*core.Exploration, error) {
	e, have := s.explorations[id]
	if !have {
		return nil, &core.NotFound{Kind: "exploration", Id: id}
	}
	return e, nil
}

func (s *Mem) GetExploration(ctx context.Context, id string) (*core.Exploration, error) {
	s.Lock()
	defer s.Unlock()

	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return e.Copy(), nil
}

func (s *Mem) GetState(ctx context.Context, eid, sid string) (*core.State, error) {
	s.Lock()
	defer s.Unlock()

	e, err := s.get(eid)
	if err != nil {
		return nil, err
	}
	st, err := e.State(sid)
	if err != nil {
		return nil, err
	}
	return st.Copy(), nil
}

func (s *Mem) RecordAnswer(ctx context.Context, eid, sid, key string) (int, error) {
	s.Lock()
	defer s.Unlock()

	e, err := s.get(eid)
	if err != nil {
		return 0, err
	}
	st, err := e.State(sid)
	if err != nil {
		return 0, err
	}
	if st.UnresolvedAnswers == nil {
		st.UnresolvedAnswers = make(map[string]int)
	}
	st.UnresolvedAnswers[key]++
	n := st.UnresolvedAnswers[key]

	if ce := s.Logger.Check(zap.DebugLevel, "RecordAnswer"); ce != nil {
		ce.Write(zap.String("exploration", eid), zap.String("state", sid),
			zap.String("answer", key), zap.Int("count", n))
	}

	return n, nil
}

func (s *Mem) PutExploration(ctx context.Context, e *core.Exploration) error {
	e = e.Copy()
	if err := e.Compile(ctx, s.Interpreters, true); err != nil {
		return err
	}

	s.Lock()
	s.explorations[e.Id] = e
	s.Unlock()

	s.Logger.Debug("PutExploration", zap.String("exploration", e.Id))

	return nil
}

func (s *Mem) PutState(ctx context.Context, eid string, st *core.State) error {
	s.Lock()
	defer s.Unlock()

	e, err := s.get(eid)
	if err != nil {
		return err
	}
	if _, err = e.State(st.Id); err != nil {
		return err
	}

	e = e.Copy()
	e.States[st.Id] = st.Copy()
	if err := e.Compile(ctx, s.Interpreters, true); err != nil {
		return err
	}
	s.explorations[eid] = e

	return nil
}

func (s *Mem) ListExplorations(ctx context.Context) ([]*Summary, error) {
	s.Lock()
	acc := make([]*Summary, 0, len(s.explorations))
	for _, e := range s.explorations {
		acc = append(acc, &Summary{
			Id:     e.Id,
			Title:  e.Title,
			Public: e.Public,
		})
	}
	s.Unlock()

	sort.Slice(acc, func(i, j int) bool {
		return acc[i].Id < acc[j].Id
	})

	return acc, nil
}
