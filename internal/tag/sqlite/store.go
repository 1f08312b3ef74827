// Package sqlite provides a SQLite-based tag.Registry implementation.
//
// This is the backend for shared registries: the UNIQUE constraint on the
// tag name is enforced by the database itself, so two processes racing to
// create the same tag produce exactly one row, and the loser observes a
// conflict it can recover from by re-reading.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tagdex/internal/tag"
)

const timeFormat = time.RFC3339

// Store is a SQLite-based tag.Registry implementation.
type Store struct {
	db   *sql.DB
	path string
}

var _ tag.Registry = (*Store)(nil)

// NewStore opens a SQLite database at path, runs migrations, and mints the
// registry identity if the database is new.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := ensureIdentity(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// ensureIdentity inserts the meta row on first open. The insert is
// guarded so two openers racing on a fresh database keep a single row;
// the loser adopts the winner's identity.
func ensureIdentity(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM meta").Scan(&count); err != nil {
		return fmt.Errorf("query meta: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := db.Exec(
		"INSERT INTO meta (registry_id, created_at) SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM meta)",
		uuid.Must(uuid.NewV7()).String(), time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Find returns the id for name if the tag exists.
func (s *Store) Find(ctx context.Context, name tag.Name) (tag.ID, bool, error) {
	var id tag.ID
	err := s.db.QueryRowContext(ctx, "SELECT id FROM tag WHERE name = ?", string(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find tag: %w", err)
	}
	return id, true, nil
}

// Create inserts a row for name, letting the UNIQUE constraint arbitrate
// concurrent creators. The losing writer gets ErrTagExists.
func (s *Store) Create(ctx context.Context, name tag.Name) (tag.ID, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tag (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		string(name), time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("insert tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("create tag %q: %w", name, tag.ErrTagExists)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return tag.ID(id), nil
}

// List returns all known tags.
func (s *Store) List(ctx context.Context) (map[tag.Name]tag.ID, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, id FROM tag")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := make(map[tag.Name]tag.ID)
	for rows.Next() {
		var name string
		var id tag.ID
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out[tag.Name(name)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

// RegistryID returns the identity minted when the database was created.
func (s *Store) RegistryID(ctx context.Context) (string, error) {
	var id string
	if err := s.db.QueryRowContext(ctx, "SELECT registry_id FROM meta").Scan(&id); err != nil {
		return "", fmt.Errorf("query registry id: %w", err)
	}
	return id, nil
}
