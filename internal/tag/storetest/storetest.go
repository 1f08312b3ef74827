// Package storetest provides a shared conformance test suite for
// tag.Registry implementations. Each backend (memory, file, sqlite) wires
// this suite to verify it satisfies the full Registry contract.
package storetest

import (
	"context"
	"errors"
	"testing"

	"tagdex/internal/tag"
)

// TestRegistry runs the full conformance suite against a Registry
// implementation. newRegistry must return a fresh, empty registry for each
// sub-test; cleanup belongs on t.
func TestRegistry(t *testing.T, newRegistry func(t *testing.T) tag.Registry) {
	t.Run("FindMissing", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		_, ok, err := r.Find(ctx, "env")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if ok {
			t.Fatal("Find reported a tag in an empty registry")
		}
	})

	t.Run("CreateThenFind", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		created, err := r.Create(ctx, "env")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		found, ok, err := r.Find(ctx, "env")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if !ok {
			t.Fatal("Find missed a created tag")
		}
		if found != created {
			t.Errorf("Find = %d, Create returned %d", found, created)
		}
	})

	t.Run("DuplicateCreate", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		if _, err := r.Create(ctx, "env"); err != nil {
			t.Fatalf("Create: %v", err)
		}
		_, err := r.Create(ctx, "env")
		if !errors.Is(err, tag.ErrTagExists) {
			t.Fatalf("duplicate Create = %v, want ErrTagExists", err)
		}
	})

	t.Run("DistinctIDs", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		names := []tag.Name{"env", "app", "region", "host"}
		seen := make(map[tag.ID]tag.Name, len(names))
		for _, name := range names {
			id, err := r.Create(ctx, name)
			if err != nil {
				t.Fatalf("Create(%s): %v", name, err)
			}
			if prev, dup := seen[id]; dup {
				t.Fatalf("id %d assigned to both %s and %s", id, prev, name)
			}
			seen[id] = name
		}
	})

	t.Run("List", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		want := make(map[tag.Name]tag.ID)
		for _, name := range []tag.Name{"env", "app"} {
			id, err := r.Create(ctx, name)
			if err != nil {
				t.Fatalf("Create(%s): %v", name, err)
			}
			want[name] = id
		}

		got, err := r.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("List returned %d tags, want %d", len(got), len(want))
		}
		for name, id := range want {
			if got[name] != id {
				t.Errorf("List[%s] = %d, want %d", name, got[name], id)
			}
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		r := newRegistry(t)

		got, err := r.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("List returned %d tags from an empty registry", len(got))
		}
	})

	t.Run("RegistryIDStable", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()

		first, err := r.RegistryID(ctx)
		if err != nil {
			t.Fatalf("RegistryID: %v", err)
		}
		if first == "" {
			t.Fatal("empty registry id")
		}
		second, err := r.RegistryID(ctx)
		if err != nil {
			t.Fatalf("RegistryID: %v", err)
		}
		if second != first {
			t.Errorf("registry id changed: %s then %s", first, second)
		}
	})
}
