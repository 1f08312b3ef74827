// Package file provides a file-based tag.Registry implementation.
//
// The registry is persisted as a versioned JSON envelope:
//
//	{"version": 1, "registry_id": "…", "next_id": 3, "tags": {"env": 1, "app": 2}}
//
// Every mutation loads the full file, mutates in memory, and atomically
// rewrites it (temp file + rename with round-trip validation). Uniqueness
// is enforced under the store's own mutex, which makes this backend
// single-writer per file: concurrent processes must use the sqlite
// backend instead.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"tagdex/internal/tag"
)

const currentVersion = 1

// envelope is the versioned on-disk format.
type envelope struct {
	Version    int                 `json:"version"`
	RegistryID string              `json:"registry_id"`
	NextID     tag.ID              `json:"next_id"`
	Tags       map[tag.Name]tag.ID `json:"tags"`
}

// Store is a file-based tag.Registry implementation. Tags are persisted as
// JSON for human readability.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ tag.Registry = (*Store)(nil)

// NewStore creates a file-based registry at path. The file is created on
// first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Find returns the id for name if the tag exists.
func (s *Store) Find(ctx context.Context, name tag.Name) (tag.ID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return 0, false, err
	}
	if env == nil {
		return 0, false, nil
	}
	id, ok := env.Tags[name]
	return id, ok, nil
}

// Create assigns the next sequential id to name and persists it.
func (s *Store) Create(ctx context.Context, name tag.Name) (tag.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.loadOrEmpty()
	if err != nil {
		return 0, err
	}
	if _, ok := env.Tags[name]; ok {
		return 0, fmt.Errorf("create tag %q: %w", name, tag.ErrTagExists)
	}

	env.NextID++
	env.Tags[name] = env.NextID
	if err := s.flush(env); err != nil {
		return 0, err
	}
	return env.NextID, nil
}

// List returns all known tags.
func (s *Store) List(ctx context.Context) (map[tag.Name]tag.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[tag.Name]tag.ID)
	if env != nil {
		for name, id := range env.Tags {
			out[name] = id
		}
	}
	return out, nil
}

// RegistryID returns the registry's stable identity, minting and
// persisting one if the file does not exist yet.
func (s *Store) RegistryID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return "", err
	}
	if env == nil {
		env, err = s.loadOrEmpty()
		if err != nil {
			return "", err
		}
		if err := s.flush(env); err != nil {
			return "", err
		}
	}
	return env.RegistryID, nil
}

// Close is a no-op; the file is not held open between operations.
func (s *Store) Close() error { return nil }

// load reads and parses the registry file. Returns nil,nil if not found.
func (s *Store) load() (*envelope, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}
	if env.Version == 0 {
		return nil, fmt.Errorf("unversioned registry file %s", s.path)
	}
	if env.Version > currentVersion {
		return nil, fmt.Errorf("registry file version %d is newer than supported version %d", env.Version, currentVersion)
	}
	if env.Tags == nil {
		env.Tags = make(map[tag.Name]tag.ID)
	}
	return &env, nil
}

// loadOrEmpty loads the registry, returning a fresh envelope with a newly
// minted identity if the file does not exist.
func (s *Store) loadOrEmpty() (*envelope, error) {
	env, err := s.load()
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = &envelope{
			Version:    currentVersion,
			RegistryID: uuid.Must(uuid.NewV7()).String(),
			Tags:       make(map[tag.Name]tag.ID),
		}
	}
	return env, nil
}

// flush atomically writes the registry to disk with round-trip validation.
func (s *Store) flush(env *envelope) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Round-trip validation: re-read and verify valid JSON.
	check, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("read-back temp file: %w", err)
	}
	var verify envelope
	if err := json.Unmarshal(check, &verify); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("round-trip validation failed: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename registry file: %w", err)
	}
	return nil
}
