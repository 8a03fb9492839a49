// Package memory provides an in-process scenario.Store backed by a mutex-
// guarded map, for tests and single-process demos.
package memory

import (
	"context"
	"sync"

	"github.com/haicosystem/episodesim/scenario"
)

// Store is an in-memory scenario.Store.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]scenario.Profile
}

// New constructs an empty Store.
func New() *Store {
	return &Store{profiles: make(map[string]scenario.Profile)}
}

// Put implements scenario.Store.
func (s *Store) Put(_ context.Context, p scenario.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

// Get implements scenario.Store.
func (s *Store) Get(_ context.Context, id string) (scenario.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return scenario.Profile{}, scenario.ErrNotFound
	}
	return p, nil
}

// List implements scenario.Store.
func (s *Store) List(_ context.Context) ([]scenario.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scenario.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}
