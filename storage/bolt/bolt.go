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

// Package bolt is a storage.Store backed by bbolt.
//
// Explorations (without their answer counts) are JSON values in the
// "explorations" bucket.  Answer counts live in the "answers" bucket,
// which has a sub-bucket per exploration, which has a sub-bucket per
// state, which maps answer keys to 8-byte big-endian counts.
package bolt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/storage"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	explorationsBucket = []byte("explorations")
	answersBucket      = []byte("answers")
)

type Storage struct {
	// Interpreters are used to compile guards.
	Interpreters map[string]core.Interpreter

	Logger *zap.Logger

	filename string
	db       *bolt.DB

	sync.Mutex
	compiled map[string]*cached
}

// cached is a compiled exploration (without counts) and the JSON it
// came from.
type cached struct {
	js []byte
	e  *core.Exploration
}

func NewStorage(filename string, interpreters map[string]core.Interpreter, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{
		Interpreters: interpreters,
		Logger:       logger,
		filename:     filename,
		compiled:     make(map[string]*cached),
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{explorationsBucket, answersBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Storage) logf(msg string, fields ...zap.Field) {
	s.Logger.Debug("BoltDB Storage."+msg, fields...)
}

func notFound(id string) error {
	return &core.NotFound{Kind: "exploration", Id: id}
}

// load gets the compiled exploration from the cache if the cached
// version matches the stored JSON.  Otherwise load compiles what's
// stored.
func (s *Storage) load(ctx context.Context, tx *bolt.Tx, id string) (*core.Exploration, error) {
	js := tx.Bucket(explorationsBucket).Get([]byte(id))
	if js == nil {
		return nil, notFound(id)
	}

	s.Lock()
	c, have := s.compiled[id]
	s.Unlock()
	if have && bytes.Equal(c.js, js) {
		return c.e, nil
	}

	e := &core.Exploration{}
	if err := json.Unmarshal(js, e); err != nil {
		return nil, err
	}
	if err := e.Compile(ctx, s.Interpreters, true); err != nil {
		return nil, err
	}

	s.logf("load", zap.String("exploration", id))

	// js is only valid during the transaction.
	s.Lock()
	s.compiled[id] = &cached{
		js: append([]byte(nil), js...),
		e:  e,
	}
	s.Unlock()

	return e, nil
}

func (s *Storage) forget(id string) {
	s.Lock()
	delete(s.compiled, id)
	s.Unlock()
}

// counts reads the answer counts for a state.
func counts(tx *bolt.Tx, eid, sid string) map[string]int {
	eb := tx.Bucket(answersBucket).Bucket([]byte(eid))
	if eb == nil {
		return nil
	}
	sb := eb.Bucket([]byte(sid))
	if sb == nil {
		return nil
	}
	acc := make(map[string]int)
	sb.ForEach(func(k, v []byte) error {
		acc[string(k)] = int(binary.BigEndian.Uint64(v))
		return nil
	})
	return acc
}

// writeCounts replaces the answer counts for a state.
func writeCounts(tx *bolt.Tx, eid, sid string, m map[string]int) error {
	eb, err := tx.Bucket(answersBucket).CreateBucketIfNotExists([]byte(eid))
	if err != nil {
		return err
	}
	if eb.Bucket([]byte(sid)) != nil {
		if err = eb.DeleteBucket([]byte(sid)); err != nil {
			return err
		}
	}
	if len(m) == 0 {
		return nil
	}
	sb, err := eb.CreateBucket([]byte(sid))
	if err != nil {
		return err
	}
	for k, n := range m {
		if err := sb.Put(answerKey(k), encodeCount(n)); err != nil {
			return err
		}
	}
	return nil
}

// keyPrefix is how much of an oversized answer key survives in its
// bounded form.
const keyPrefix = 1024

// answerKey bounds an answer key to what bbolt accepts.  A key longer
// than bolt.MaxKeySize becomes a prefix of itself followed by the
// SHA256 of the whole key.
func answerKey(key string) []byte {
	if len(key) <= bolt.MaxKeySize {
		return []byte(key)
	}
	i := keyPrefix
	for 0 < i && !utf8.RuneStart(key[i]) {
		i--
	}
	sum := sha256.Sum256([]byte(key))
	return []byte(key[:i] + "...sha256:" + hex.EncodeToString(sum[:]))
}

func encodeCount(n int) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, uint64(n))
	return bs
}

func (s *Storage) GetExploration(ctx context.Context, id string) (*core.Exploration, error) {
	var acc *core.Exploration
	err := s.db.View(func(tx *bolt.Tx) error {
		e, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		acc = e.Copy()
		for sid, st := range acc.States {
			st.UnresolvedAnswers = counts(tx, id, sid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Storage) GetState(ctx context.Context, eid, sid string) (*core.State, error) {
	var acc *core.State
	err := s.db.View(func(tx *bolt.Tx) error {
		e, err := s.load(ctx, tx, eid)
		if err != nil {
			return err
		}
		st, err := e.State(sid)
		if err != nil {
			return err
		}
		acc = st.Copy()
		acc.UnresolvedAnswers = counts(tx, eid, sid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// RecordAnswer increments a count in one transaction.  bbolt
// serializes writers, so concurrent increments aren't lost.
func (s *Storage) RecordAnswer(ctx context.Context, eid, sid, key string) (int, error) {
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		e, err := s.load(ctx, tx, eid)
		if err != nil {
			return err
		}
		if _, err = e.State(sid); err != nil {
			return err
		}
		eb, err := tx.Bucket(answersBucket).CreateBucketIfNotExists([]byte(eid))
		if err != nil {
			return err
		}
		sb, err := eb.CreateBucketIfNotExists([]byte(sid))
		if err != nil {
			return err
		}
		k := answerKey(key)
		if bs := sb.Get(k); bs != nil {
			n = int(binary.BigEndian.Uint64(bs))
		}
		n++
		return sb.Put(k, encodeCount(n))
	})
	if err != nil {
		return 0, err
	}

	s.logf("RecordAnswer",
		zap.String("exploration", eid),
		zap.String("state", sid),
		zap.String("answer", key),
		zap.Int("count", n))

	return n, nil
}

func (s *Storage) PutExploration(ctx context.Context, e *core.Exploration) error {
	if err := e.Copy().Compile(ctx, s.Interpreters, true); err != nil {
		return err
	}

	stripped, cs := storage.StripCounts(e)
	js, err := json.Marshal(stripped)
	if err != nil {
		return err
	}

	s.logf("PutExploration", zap.String("exploration", e.Id), zap.Int("bytes", len(js)))

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(explorationsBucket).Put([]byte(e.Id), js); err != nil {
			return err
		}
		answers := tx.Bucket(answersBucket)
		if answers.Bucket([]byte(e.Id)) != nil {
			if err := answers.DeleteBucket([]byte(e.Id)); err != nil {
				return err
			}
		}
		for sid, m := range cs {
			if err := writeCounts(tx, e.Id, sid, m); err != nil {
				return err
			}
		}
		return nil
	})

	s.forget(e.Id)

	return err
}

func (s *Storage) PutState(ctx context.Context, eid string, st *core.State) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(explorationsBucket)
		js := b.Get([]byte(eid))
		if js == nil {
			return notFound(eid)
		}
		e := &core.Exploration{}
		if err := json.Unmarshal(js, e); err != nil {
			return err
		}
		if _, err := e.State(st.Id); err != nil {
			return err
		}

		e.States[st.Id] = st.Copy()
		if err := e.Copy().Compile(ctx, s.Interpreters, true); err != nil {
			return err
		}

		stripped, _ := storage.StripCounts(e)
		bs, err := json.Marshal(stripped)
		if err != nil {
			return err
		}
		if err = b.Put([]byte(eid), bs); err != nil {
			return err
		}

		return writeCounts(tx, eid, st.Id, st.UnresolvedAnswers)
	})

	s.forget(eid)

	return err
}

func (s *Storage) ListExplorations(ctx context.Context) ([]*storage.Summary, error) {
	acc := make([]*storage.Summary, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(explorationsBucket).Cursor()
		for id, js := c.First(); id != nil; id, js = c.Next() {
			var x storage.Summary
			if err := json.Unmarshal(js, &x); err != nil {
				return err
			}
			x.Id = string(id)
			acc = append(acc, &x)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}
