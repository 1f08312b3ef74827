package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tagdex/internal/tag"
	"tagdex/internal/tag/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "tags.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.TestRegistry(t, func(t *testing.T) tag.Registry {
		return newTestStore(t)
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	ctx := context.Background()

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, err := s.Create(ctx, "env")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	regID, err := s.RegistryID(ctx)
	if err != nil {
		t.Fatalf("RegistryID: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Find(ctx, "env")
	if err != nil {
		t.Fatalf("Find after reopen: %v", err)
	}
	if !ok || got != id {
		t.Errorf("Find after reopen = %d, %v; want %d, true", got, ok, id)
	}

	gotReg, err := reopened.RegistryID(ctx)
	if err != nil {
		t.Fatalf("RegistryID after reopen: %v", err)
	}
	if gotReg != regID {
		t.Errorf("registry id changed across reopen: %s then %s", regID, gotReg)
	}
}

func TestConflictBetweenConnections(t *testing.T) {
	// Two independent connections to the same database model two
	// processes racing to create the same tag.
	path := filepath.Join(t.TempDir(), "tags.db")
	ctx := context.Background()

	a, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore a: %v", err)
	}
	defer a.Close()
	b, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore b: %v", err)
	}
	defer b.Close()

	winner, err := a.Create(ctx, "env")
	if err != nil {
		t.Fatalf("Create via a: %v", err)
	}

	_, err = b.Create(ctx, "env")
	if !errors.Is(err, tag.ErrTagExists) {
		t.Fatalf("Create via b = %v, want ErrTagExists", err)
	}

	// The loser re-reads and adopts the winner's id.
	got, ok, err := b.Find(ctx, "env")
	if err != nil {
		t.Fatalf("Find via b: %v", err)
	}
	if !ok || got != winner {
		t.Errorf("Find via b = %d, %v; want %d, true", got, ok, winner)
	}
}

func TestResolverOverSqlite(t *testing.T) {
	s := newTestStore(t)
	r := tag.New(s, tag.Config{})

	ids, err := r.ResolveAll(context.Background(), []tag.Name{"env", "app", "env"})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	if ids["env"] == ids["app"] {
		t.Errorf("distinct names got the same id %d", ids["env"])
	}
}
