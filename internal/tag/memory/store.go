// Package memory provides an in-memory tag.Registry implementation.
// Intended for testing and embedded use. Tags are not persisted across
// restarts, so ids are only stable for the life of the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tagdex/internal/tag"
)

// Store is an in-memory tag.Registry implementation.
type Store struct {
	mu         sync.RWMutex
	ids        map[tag.Name]tag.ID
	next       tag.ID
	registryID string
}

var _ tag.Registry = (*Store)(nil)

// NewStore creates an empty in-memory registry with a fresh identity.
func NewStore() *Store {
	return &Store{
		ids:        make(map[tag.Name]tag.ID),
		registryID: uuid.Must(uuid.NewV7()).String(),
	}
}

// Find returns the id for name if the tag exists.
func (s *Store) Find(ctx context.Context, name tag.Name) (tag.ID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ids[name]
	return id, ok, nil
}

// Create assigns the next sequential id to name.
func (s *Store) Create(ctx context.Context, name tag.Name) (tag.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[name]; ok {
		return 0, fmt.Errorf("create tag %q: %w", name, tag.ErrTagExists)
	}
	s.next++
	s.ids[name] = s.next
	return s.next, nil
}

// List returns a copy of all known tags.
func (s *Store) List(ctx context.Context) (map[tag.Name]tag.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[tag.Name]tag.ID, len(s.ids))
	for name, id := range s.ids {
		out[name] = id
	}
	return out, nil
}

// RegistryID returns the identity minted when this store was created.
func (s *Store) RegistryID(ctx context.Context) (string, error) {
	return s.registryID, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
