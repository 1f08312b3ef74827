// Package tag assigns small stable integer ids to tag names used to
// classify events, so that journals and indexes can reference tags
// compactly instead of repeating strings.
//
// The Resolver is the entry point. It fronts a Store with a process-wide
// resolution cache: each tag name is looked up (and, if absent, created)
// against the store at most once per process lifetime, with concurrent
// requests for the same name coalesced into a single store round trip.
// The store's uniqueness constraint is the only cross-process coordination
// point; when two processes race to create the same name, the loser
// re-reads and adopts the winner's id.
package tag

import (
	"context"
	"errors"
	"io"
)

// Name is a tag name. Opaque and non-empty; equality is exact string
// equality. The package performs no validation or normalization.
type Name string

// ID is a store-assigned tag id, unique per name and stable for the
// lifetime of the store.
type ID int64

// ErrTagExists is returned (wrapped) by Store.Create when another writer
// has concurrently created the same name. The Resolver does not
// distinguish it from other create failures, but stores must return it so
// tests and operators can tell a conflict from an outage.
var ErrTagExists = errors.New("tag already exists")

// Store is the persistent name → id mapping the Resolver coordinates
// against. Implementations must enforce name uniqueness themselves;
// Create racing Create (in this or another process) must fail for all but
// one writer.
type Store interface {
	// Find returns the id for name if the tag exists. ok reports whether
	// it was found. Find has no side effects.
	Find(ctx context.Context, name Name) (id ID, ok bool, err error)

	// Create allocates and persists a new id for name. It returns an
	// error wrapping ErrTagExists if the name already exists.
	Create(ctx context.Context, name Name) (ID, error)
}

// Registry extends Store with the administrative surface shared by the
// concrete backends. Tag ids are only meaningful relative to one registry
// instance, so consumers pairing a journal with a registry should record
// its RegistryID.
type Registry interface {
	Store
	io.Closer

	// List returns all known tags.
	List(ctx context.Context) (map[Name]ID, error)

	// RegistryID returns the stable identity of this registry instance,
	// minted when the backing store was first created.
	RegistryID(ctx context.Context) (string, error)
}
