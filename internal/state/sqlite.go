package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-careerwatch/internal/dedup"

	_ "modernc.org/sqlite"
)

const sqliteBackend = "sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_postings (
	id TEXT PRIMARY KEY,
	first_seen_at TEXT NOT NULL
);`

// SQLite keeps the seen IDs in a single table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
// A file that is not a database fails here with ErrCorrupt.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &Error{Backend: sqliteBackend, Op: "open", Err: errors.New("path is required")}
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &Error{Backend: sqliteBackend, Op: "open", Err: fmt.Errorf("create db dir: %w", err)}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &Error{Backend: sqliteBackend, Op: "open", Err: err}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, corrupt(sqliteBackend, fmt.Errorf("migrate: %w", err))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) (dedup.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_postings`)
	if err != nil {
		return nil, corrupt(sqliteBackend, err)
	}
	defer func() { _ = rows.Close() }()

	seen := dedup.NewSeenSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, corrupt(sqliteBackend, err)
		}
		seen.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, corrupt(sqliteBackend, err)
	}

	log.Printf("📋 Loaded %d previously seen postings", seen.Len())
	return seen, nil
}

// Save makes the table hold exactly seen, in one transaction.
// Rows already present keep their first_seen_at.
func (s *SQLite) Save(ctx context.Context, seen dedup.SeenSet) error {
	fail := func(e error) error {
		return &Error{Backend: sqliteBackend, Op: "save", Err: e}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := existingIDs(ctx, tx)
	if err != nil {
		return fail(err)
	}

	for id := range existing {
		if seen.Has(id) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seen_postings WHERE id = ?`, id); err != nil {
			return fail(fmt.Errorf("delete %q: %w", id, err))
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range seen.IDs() {
		if existing.Has(id) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO seen_postings (id, first_seen_at) VALUES (?, ?)`, id, now); err != nil {
			return fail(fmt.Errorf("insert %q: %w", id, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit: %w", err))
	}
	log.Printf("💾 Saved %d seen postings to sqlite", seen.Len())
	return nil
}

func existingIDs(ctx context.Context, tx *sql.Tx) (dedup.SeenSet, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM seen_postings`)
	if err != nil {
		return nil, fmt.Errorf("read existing: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := dedup.NewSeenSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan existing: %w", err)
		}
		ids.Add(id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
