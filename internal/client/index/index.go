// Package index keeps a local SQLite record of content the CLI has stored,
// so repeated stores of the same data can skip the gateway round trip.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/kachery/gateway/internal/client/index/migrations"
	"github.com/kachery/gateway/internal/common"
)

// Entry is one stored-content record.
type Entry struct {
	Hash     string
	Size     int64
	Zone     string
	StoredAt int64
}

// Index is the SQLite-backed store.
type Index struct {
	db *sql.DB
}

// Open opens (and if needed creates) the index database at dsn and applies
// pending migrations.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

func (i *Index) Close() error { return i.db.Close() }

// Record remembers that hash was stored in zone. Re-recording a hash
// refreshes the entry.
func (i *Index) Record(ctx context.Context, e *Entry) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO stored_files (hash, size, zone, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (hash) DO UPDATE SET size = excluded.size, zone = excluded.zone, stored_at = excluded.stored_at`,
		e.Hash, e.Size, e.Zone, e.StoredAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Lookup returns the entry for hash or common.ErrNotFound.
func (i *Index) Lookup(ctx context.Context, hash string) (*Entry, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT hash, size, zone, stored_at FROM stored_files WHERE hash = ?`, hash)

	var e Entry
	if err := row.Scan(&e.Hash, &e.Size, &e.Zone, &e.StoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

// List returns every stored entry, most recent first.
func (i *Index) List(ctx context.Context) ([]*Entry, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT hash, size, zone, stored_at FROM stored_files ORDER BY stored_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Size, &e.Zone, &e.StoredAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
