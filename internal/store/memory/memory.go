// Package memory is an in-process Store, used by tests and by the memory
// backend. Nothing survives the process.
package memory

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ErrInjected is returned while a failure is injected with Fail.
var ErrInjected = errors.New("injected failure")

type bucket struct {
	order  []string
	items  map[string]store.Record
	lastID int64
}

type Store struct {
	mu      sync.Mutex
	buckets map[core.Kind]*bucket
	failing bool
	closed  bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	s := &Store{buckets: make(map[core.Kind]*bucket)}
	for _, k := range store.Kinds() {
		s.buckets[k] = &bucket{items: make(map[string]store.Record)}
	}
	return s
}

// Fail makes every following call fail as unavailable until Recover.
func (s *Store) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = true
}

// Recover clears an injected failure.
func (s *Store) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = false
}

func (s *Store) check(op string, kind core.Kind) (*bucket, error) {
	if s.closed {
		return nil, store.Unavailable(op, errors.New("store closed"))
	}
	if s.failing {
		return nil, store.Unavailable(op, ErrInjected)
	}
	b, ok := s.buckets[kind]
	if !ok {
		return nil, errors.New("unknown record kind " + string(kind))
	}
	return b, nil
}

func (s *Store) Put(_ context.Context, kind core.Kind, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.check("put", kind)
	if err != nil {
		return err
	}
	id := rec.ID()
	if id == "" {
		return errors.New("record without id")
	}
	if _, exists := b.items[id]; !exists {
		b.order = append(b.order, id)
	}
	b.items[id] = rec.Clone()
	if n, ok := store.NumericID(id); ok && n > b.lastID {
		b.lastID = n
	}
	return nil
}

func (s *Store) LastID(_ context.Context, kind core.Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.check("last id", kind)
	if err != nil {
		return 0, err
	}
	return b.lastID, nil
}

func (s *Store) GetAll(_ context.Context, kind core.Kind) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.check("get all", kind)
	if err != nil {
		return nil, err
	}
	out := make([]store.Record, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.items[id].Clone())
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.check("delete", kind)
	if err != nil {
		return err
	}
	if _, exists := b.items[id]; !exists {
		return store.NotFound(kind, id)
	}
	delete(b.items, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
