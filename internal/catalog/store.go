// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists harvested paper records in a local SQLite
// database and keeps a full-text index over titles and abstracts.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/saucebing/paper-fetch/pkg/types"
)

// Store manages the paper catalog SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the catalog database at cfg.DBPath and
// creates the schema if it does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			authors TEXT NOT NULL DEFAULT '[]',
			conference TEXT NOT NULL,
			year INTEGER NOT NULL,
			abstract TEXT NOT NULL DEFAULT '',
			citation_count INTEGER NOT NULL DEFAULT 0,
			affiliations TEXT NOT NULL DEFAULT '',
			UNIQUE(title, conference, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_conference ON papers(conference, year)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=id)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.id, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.id, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.id, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.id, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// LoadSummary holds counts from a catalog load run.
type LoadSummary struct {
	Loaded  int
	Updated int
	Skipped int
}

// Total returns the number of records processed.
func (s LoadSummary) Total() int {
	return s.Loaded + s.Updated + s.Skipped
}

// Load upserts paper records into the catalog. Records are keyed by
// (title, conference, year); a record that already exists has its
// enrichment columns refreshed instead of creating a duplicate row.
func (s *Store) Load(ctx context.Context, records []types.PaperRecord, w io.Writer) (LoadSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (title, authors, conference, year, abstract, citation_count, affiliations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(title, conference, year) DO UPDATE SET
			authors=excluded.authors, abstract=excluded.abstract,
			citation_count=excluded.citation_count, affiliations=excluded.affiliations`)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var summary LoadSummary
	for i, r := range records {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if r.Title == "" {
			fmt.Fprintf(w, "skipped row %d: no title\n", i+1)
			summary.Skipped++
			continue
		}

		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE title = ? AND conference = ? AND year = ?`,
			r.Title, r.Conference, r.Year,
		).Scan(&existing); err != nil {
			return summary, fmt.Errorf("checking row %d: %w", i+1, err)
		}

		authorsJSON, _ := json.Marshal(r.Authors)
		if _, err := stmt.ExecContext(ctx,
			r.Title, string(authorsJSON), r.Conference, r.Year,
			r.Abstract, r.CitationCount, r.Affiliations,
		); err != nil {
			return summary, fmt.Errorf("upserting row %d: %w", i+1, err)
		}

		if existing > 0 {
			summary.Updated++
		} else {
			summary.Loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing load: %w", err)
	}

	fmt.Fprintf(w, "loaded: %d, updated: %d, skipped: %d\n",
		summary.Loaded, summary.Updated, summary.Skipped)
	return summary, nil
}
