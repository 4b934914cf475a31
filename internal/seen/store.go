// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seen persists the identifiers of items that already triggered (or
// must never trigger) a notification. The store is the only writer of the
// seen table; one process owns the database file.
package seen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const table = "seen"

// Record is one persisted seen id.
type Record struct {
	ID     string    `json:"id" yaml:"id"`
	SeenAt time.Time `json:"seen_at" yaml:"seen_at"`
}

// Store manages the seen-set SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the seen-set database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS seen (
			id TEXT PRIMARY KEY,
			seen_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_seen_at ON seen(seen_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Has reports whether id was previously recorded. An unknown id is not an
// error.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Select("1").From(table).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("building lookup: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return true, nil
}

// MarkSeen records id if it is absent. It reports whether a row was
// inserted; marking an id that is already present returns false and no
// error.
func (s *Store) MarkSeen(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Insert(table).
		Options("OR IGNORE").
		Columns("id", "seen_at").
		Values(id, s.now().UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("marking %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking %s: %w", id, err)
	}
	return n == 1, nil
}

// Count returns the number of recorded ids.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("count(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting seen ids: %w", err)
	}
	return n, nil
}

// List returns up to limit records, most recently seen first. A limit of
// zero or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	b := sq.Select("id", "seen_at").From(table).OrderBy("seen_at DESC", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing seen ids: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r      Record
			seenAt string
		)
		if err := rows.Scan(&r.ID, &seenAt); err != nil {
			return nil, fmt.Errorf("scanning seen row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, seenAt); parseErr == nil {
			r.SeenAt = t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seen rows: %w", err)
	}
	return records, nil
}
