package memory

import (
	"context"
	"sync"
	"testing"

	"tagdex/internal/tag"
	"tagdex/internal/tag/storetest"
)

func TestConformance(t *testing.T) {
	storetest.TestRegistry(t, func(t *testing.T) tag.Registry {
		return NewStore()
	})
}

func TestConcurrentCreateDistinctNames(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	names := []tag.Name{"a", "b", "c", "d", "e", "f", "g", "h"}
	ids := make([]tag.ID, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Create(ctx, name)
			if err != nil {
				t.Errorf("Create(%s): %v", name, err)
				return
			}
			ids[i] = id
		}()
	}
	wg.Wait()

	seen := make(map[tag.ID]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
		if id == 0 {
			t.Errorf("name %s got no id", names[i])
		}
	}
}

func TestFreshIdentityPerInstance(t *testing.T) {
	ctx := context.Background()
	a, _ := NewStore().RegistryID(ctx)
	b, _ := NewStore().RegistryID(ctx)
	if a == b {
		t.Errorf("two instances share registry id %s", a)
	}
}
