package memory

import (
	"context"
	"sync"

	"duebook/internal/core"
	"duebook/internal/persistence"
)

// Store keeps the last saved snapshot in process memory.
type Store struct {
	mu    sync.Mutex
	items []core.Record
	saves int
}

var _ persistence.Repository = (*Store)(nil)

func New(seed ...core.Record) *Store {
	return &Store{items: clone(seed)}
}

func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items), nil
}

func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = clone(records)
	s.saves++
	return nil
}

// Saves reports how many snapshots have been written.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(in []core.Record) []core.Record {
	if len(in) == 0 {
		return nil
	}
	return append([]core.Record(nil), in...)
}
