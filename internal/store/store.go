// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists per-document enrichment results that are costly to
// recompute: keyword lists and summaries. Results are keyed by document ID
// and merged across runs, so a later run only fills in what is missing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Summary is a stored summary and its display-cleaned form.
type Summary struct {
	Raw     string
	Cleaned string
}

// Store manages the enrichment SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
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
		`CREATE TABLE IF NOT EXISTS keywords (
			doc_id TEXT PRIMARY KEY,
			keywords TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			doc_id TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			cleaned TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// MergeKeywords upserts keyword lists. Documents absent from kw keep their
// stored lists.
func (s *Store) MergeKeywords(ctx context.Context, kw map[string][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO keywords (doc_id, keywords, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET
			keywords=excluded.keywords, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing keyword upsert: %w", err)
	}
	defer stmt.Close()

	ts := now()
	for id, words := range kw {
		if words == nil {
			words = []string{}
		}
		data, err := json.Marshal(words)
		if err != nil {
			return fmt.Errorf("encoding keywords for %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(data), ts); err != nil {
			return fmt.Errorf("upserting keywords for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Keywords returns every stored keyword list.
func (s *Store) Keywords(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id, keywords FROM keywords`)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning keywords: %w", err)
		}
		var words []string
		if err := json.Unmarshal([]byte(data), &words); err != nil {
			return nil, fmt.Errorf("decoding keywords for %s: %w", id, err)
		}
		out[id] = words
	}
	return out, rows.Err()
}

// MergeSummaries upserts summaries.
func (s *Store) MergeSummaries(ctx context.Context, sums map[string]Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO summaries (doc_id, summary, cleaned, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET
			summary=excluded.summary, cleaned=excluded.cleaned, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing summary upsert: %w", err)
	}
	defer stmt.Close()

	ts := now()
	for id, sum := range sums {
		if _, err := stmt.ExecContext(ctx, id, sum.Raw, sum.Cleaned, ts); err != nil {
			return fmt.Errorf("upserting summary for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Summaries returns every stored summary.
func (s *Store) Summaries(ctx context.Context) (map[string]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id, summary, cleaned FROM summaries`)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Summary)
	for rows.Next() {
		var id string
		var sum Summary
		if err := rows.Scan(&id, &sum.Raw, &sum.Cleaned); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out[id] = sum
	}
	return out, rows.Err()
}

// Counts reports how many keyword lists and summaries are stored.
func (s *Store) Counts(ctx context.Context) (keywords, summaries int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM keywords`).Scan(&keywords); err != nil {
		return 0, 0, fmt.Errorf("counting keywords: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM summaries`).Scan(&summaries); err != nil {
		return 0, 0, fmt.Errorf("counting summaries: %w", err)
	}
	return keywords, summaries, nil
}
