// Package memory provides an in-process episodelog.Store backed by a mutex-
// guarded map, for tests and single-process demos.
package memory

import (
	"context"
	"sync"

	"github.com/haicosystem/episodesim/episodelog"
)

// Store is an in-memory episodelog.Store.
type Store struct {
	mu   sync.RWMutex
	logs map[string]episodelog.Log
}

// New constructs an empty Store.
func New() *Store {
	return &Store{logs: make(map[string]episodelog.Log)}
}

// Save implements episodelog.Store.
func (s *Store) Save(_ context.Context, log episodelog.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = log
	return nil
}

// Get implements episodelog.Store.
func (s *Store) Get(_ context.Context, id string) (episodelog.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[id]
	if !ok {
		return episodelog.Log{}, episodelog.ErrNotFound
	}
	return l, nil
}

// List implements episodelog.Store.
func (s *Store) List(_ context.Context) ([]episodelog.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]episodelog.Log, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l)
	}
	return out, nil
}
