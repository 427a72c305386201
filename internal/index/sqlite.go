// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// SQLiteIndex is a local search index backed by SQLite FTS5. Builds need
// the sqlite_fts5 tag.
type SQLiteIndex struct {
	db         *sql.DB
	maxResults int
}

// OpenSQLite opens or creates the index database at path.
func OpenSQLite(path string, maxResults int) (*SQLiteIndex, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	ix := &SQLiteIndex{db: db, maxResults: maxResults}
	if err := ix.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return ix, nil
}

// Close releases the database connection.
func (ix *SQLiteIndex) Close() error {
	return ix.db.Close()
}

func (ix *SQLiteIndex) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			abstract TEXT,
			text TEXT,
			keywords TEXT,
			topics TEXT,
			is_clinical INTEGER NOT NULL DEFAULT 0,
			publish_date TEXT,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_publish_date ON documents(publish_date)`,
		`CREATE TABLE IF NOT EXISTS treatments (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			num_paper_mentions INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := ix.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE documents_fts USING fts5(
			title, abstract, text, keywords, content=documents, content_rowid=rowid)`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, title, abstract, text, keywords)
			VALUES (new.rowid, new.title, new.abstract, new.text, new.keywords);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, abstract, text, keywords)
			VALUES ('delete', old.rowid, old.title, old.abstract, old.text, old.keywords);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, abstract, text, keywords)
			VALUES ('delete', old.rowid, old.title, old.abstract, old.text, old.keywords);
			INSERT INTO documents_fts(rowid, title, abstract, text, keywords)
			VALUES (new.rowid, new.title, new.abstract, new.text, new.keywords);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// PublishDocuments upserts documents keyed by ID. The whole batch is
// rejected with ErrMissingTitle if any document is untitled.
func (ix *SQLiteIndex) PublishDocuments(ctx context.Context, docs []types.Document) (int, error) {
	if err := checkTitles(docs); err != nil {
		return 0, err
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, title, abstract, text, keywords, topics, is_clinical, publish_date, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, text=excluded.text,
			keywords=excluded.keywords, topics=excluded.topics,
			is_clinical=excluded.is_clinical, publish_date=excluded.publish_date,
			data=excluded.data`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		topicsJSON, _ := json.Marshal(orEmpty(d.Topics))
		data, err := json.Marshal(d)
		if err != nil {
			return 0, fmt.Errorf("encoding document %s: %w", d.ID, err)
		}
		date := ""
		if !d.PublishDate.IsZero() {
			date = d.PublishDate.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Title, d.Abstract, d.Text, strings.Join(d.Keywords, "; "),
			string(topicsJSON), d.IsClinical, date, string(data),
		); err != nil {
			return 0, fmt.Errorf("upserting document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing documents: %w", err)
	}
	return len(docs), nil
}

// PublishTreatments upserts treatments keyed by types.Treatment.Key.
func (ix *SQLiteIndex) PublishTreatments(ctx context.Context, treatments []types.Treatment) (int, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO treatments (id, name, num_paper_mentions, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, num_paper_mentions=excluded.num_paper_mentions, data=excluded.data`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range treatments {
		data, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("encoding treatment %s: %w", t.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, t.Key(), t.Name, t.NumPaperMentions, string(data)); err != nil {
			return 0, fmt.Errorf("upserting treatment %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing treatments: %w", err)
	}
	return len(treatments), nil
}

// Query holds the parameters of a read-only search.
type Query struct {
	// Text is matched against title, abstract, text and keywords. Each
	// whitespace-separated term must appear. Empty matches everything.
	Text string

	// Topic restricts results to documents assigned this topic.
	Topic string

	// ClinicalOnly restricts results to clinical papers.
	ClinicalOnly bool

	// Limit caps the result count. Zero uses the index default.
	Limit int
}

// Result is a matched document. Rank is the FTS5 bm25 rank (lower is
// better), zero when the query has no text.
type Result struct {
	types.Document
	Rank float64 `json:"rank" yaml:"rank"`
}

// ftsQuery quotes each term so punctuation in user input is matched
// literally instead of parsed as FTS5 syntax.
func ftsQuery(text string) string {
	var terms []string
	for _, f := range strings.Fields(text) {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

// Search runs q. Text queries are ordered by rank, then publish date
// descending; other queries by publish date descending.
func (ix *SQLiteIndex) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = ix.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		match  = ftsQuery(q.Text)
		useFTS = match != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT d.data, documents_fts.rank
			FROM documents_fts
			JOIN documents d ON d.rowid = documents_fts.rowid
			WHERE documents_fts MATCH ?`)
		args = append(args, match)
	} else {
		qb.WriteString(`SELECT d.data, 0 AS rank FROM documents d WHERE 1=1`)
	}

	if q.Topic != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(d.topics) WHERE value = ?)`)
		args = append(args, q.Topic)
	}
	if q.ClinicalOnly {
		qb.WriteString(` AND d.is_clinical = 1`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY documents_fts.rank, d.publish_date DESC`)
	} else {
		qb.WriteString(` ORDER BY d.publish_date DESC, d.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			data string
			r    Result
		)
		if err := rows.Scan(&data, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Document); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Get returns the document with the given ID.
func (ix *SQLiteIndex) Get(ctx context.Context, id string) (types.Document, error) {
	var data string
	err := ix.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Document{}, fmt.Errorf("document %s not found", id)
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("looking up document: %w", err)
	}

	var doc types.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return types.Document{}, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// Treatments returns all treatments, most mentioned first.
func (ix *SQLiteIndex) Treatments(ctx context.Context) ([]types.Treatment, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT data FROM treatments ORDER BY num_paper_mentions DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("querying treatments: %w", err)
	}
	defer rows.Close()

	var out []types.Treatment
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var t types.Treatment
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("decoding treatment: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountMentions returns the number of indexed documents whose title,
// abstract or text contains any of the given terms as a phrase.
func (ix *SQLiteIndex) CountMentions(ctx context.Context, terms []string) (int, error) {
	var phrases []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			phrases = append(phrases, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
		}
	}
	if len(phrases) == 0 {
		return 0, nil
	}

	match := "{title abstract text} : (" + strings.Join(phrases, " OR ") + ")"
	var n int
	if err := ix.db.QueryRowContext(ctx,
		`SELECT count(*) FROM documents_fts WHERE documents_fts MATCH ?`, match,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting mentions: %w", err)
	}
	return n, nil
}
