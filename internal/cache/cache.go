// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists the last known collection snapshot in SQLite so
// that the CLI can render the collection without contacting the server.
// The server stays authoritative: the cache is overwritten whole after
// every successful fetch or confirmed mutation and is never merged.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdfsum/pkg/types"
)

const (
	dbFile     = "summaries.db"
	keySavedAt = "saved_at"
	keyBaseURL = "base_url"
)

// ErrEmpty is returned by Load when no snapshot has been saved.
var ErrEmpty = errors.New("no cached snapshot")

// Snapshot is a saved copy of the collection.
type Snapshot struct {
	Summaries []types.Summary
	// BaseURL is the API the snapshot was fetched from.
	BaseURL string
	SavedAt time.Time
}

// Store manages the cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates dir/summaries.db and its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			title TEXT,
			summary TEXT,
			key_messages TEXT,
			file_path TEXT,
			external_link TEXT,
			date_added TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_position ON summaries(position)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save replaces the cached snapshot with snap in one transaction. A zero
// SavedAt is set to the current time.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("clearing summaries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO summaries (id, position, title, summary, key_messages, file_path, external_link, date_added)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, sum := range snap.Summaries {
		msgs, _ := json.Marshal(sum.KeyMessages)
		added := ""
		if !sum.DateAdded.IsZero() {
			added = sum.DateAdded.UTC().Format(time.RFC3339Nano)
		}
		_, err := stmt.ExecContext(ctx,
			sum.ID.String(), i, sum.Title, sum.SummaryText, string(msgs),
			sum.FilePath, sum.ExternalLink, added,
		)
		if err != nil {
			return fmt.Errorf("inserting summary %s: %w", sum.ID, err)
		}
	}

	meta := map[string]string{
		keySavedAt: snap.SavedAt.UTC().Format(time.RFC3339Nano),
		keyBaseURL: snap.BaseURL,
	}
	for k, v := range meta {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, k, v)
		if err != nil {
			return fmt.Errorf("updating %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// Load returns the cached snapshot in its saved order. It returns ErrEmpty
// when nothing has been saved.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return snap, fmt.Errorf("reading cache metadata: %w", err)
	}
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scanning metadata: %w", err)
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("reading cache metadata: %w", err)
	}

	savedAt, ok := meta[keySavedAt]
	if !ok {
		return snap, ErrEmpty
	}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return snap, fmt.Errorf("parsing saved_at: %w", err)
	}
	snap.BaseURL = meta[keyBaseURL]

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, title, summary, key_messages, file_path, external_link, date_added
		 FROM summaries ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sum            types.Summary
			id, msgs, date string
		)
		if err := rows.Scan(&id, &sum.Title, &sum.SummaryText, &msgs, &sum.FilePath, &sum.ExternalLink, &date); err != nil {
			return snap, fmt.Errorf("scanning summary: %w", err)
		}
		sum.ID = types.SummaryID(id)
		if msgs != "" {
			if err := json.Unmarshal([]byte(msgs), &sum.KeyMessages); err != nil {
				return snap, fmt.Errorf("summary %s: decoding key_messages: %w", id, err)
			}
		}
		if date != "" {
			if sum.DateAdded, err = time.Parse(time.RFC3339Nano, date); err != nil {
				return snap, fmt.Errorf("summary %s: parsing date_added: %w", id, err)
			}
		}
		snap.Summaries = append(snap.Summaries, sum)
	}
	return snap, rows.Err()
}
