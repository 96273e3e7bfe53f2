// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore caches normalized documents in a SQLite database and
// serves full-text search over the cached corpus.
//
// Full-text search uses an FTS5 virtual table, which mattn/go-sqlite3 only
// includes when built with the sqlite_fts5 tag (the mage targets pass it).
// Without the tag the store still works, falling back to substring matching.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/insights-engine/pkg/types"
)

const dbFile = "insights.db"

// Store manages the document cache SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
	fts        bool
}

// NewStore opens or creates the document cache at dataDir/insights.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

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
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT,
			url TEXT,
			abstract TEXT,
			authors TEXT,
			journal TEXT,
			publication_date TEXT,
			doi TEXT,
			brief_summary TEXT,
			detailed_description TEXT,
			overall_status TEXT,
			phase TEXT,
			conditions TEXT,
			interventions TEXT,
			sponsor TEXT,
			locations TEXT,
			start_date TEXT,
			completion_date TEXT,
			search_query TEXT,
			topic TEXT,
			fetched_at TEXT,
			UNIQUE(source, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(
		`CREATE VIRTUAL TABLE documents_fts USING fts5(
			title, abstract, brief_summary,
			content=documents, content_rowid=rowid)`,
	); err != nil {
		// The fts5 module is only compiled in under the sqlite_fts5 build
		// tag. Without it, keep the store usable with substring search.
		if strings.Contains(err.Error(), "no such module: fts5") {
			s.fts = false
			return nil
		}
		return fmt.Errorf("creating FTS infrastructure: %w", err)
	}

	ftsStatements := []string{
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, title, abstract, brief_summary)
			VALUES (new.rowid, new.title, new.abstract, new.brief_summary);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, abstract, brief_summary)
			VALUES('delete', old.rowid, old.title, old.abstract, old.brief_summary);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, abstract, brief_summary)
			VALUES('delete', old.rowid, old.title, old.abstract, old.brief_summary);
			INSERT INTO documents_fts(rowid, title, abstract, brief_summary)
			VALUES (new.rowid, new.title, new.abstract, new.brief_summary);
		END`,
		// Index rows written before the virtual table existed, e.g. a
		// database first populated by a binary built without sqlite_fts5.
		`INSERT INTO documents_fts(documents_fts) VALUES('rebuild')`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true

	return nil
}

// Save upserts documents into the cache. An existing (source, id) row is
// overwritten with the newer record. Returns the number of documents
// written.
func (s *Store) Save(ctx context.Context, docs []types.Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (
			source, id, title, url,
			abstract, authors, journal, publication_date, doi,
			brief_summary, detailed_description, overall_status, phase,
			conditions, interventions, sponsor, locations,
			start_date, completion_date,
			search_query, topic, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, id) DO UPDATE SET
			title=excluded.title, url=excluded.url,
			abstract=excluded.abstract, authors=excluded.authors,
			journal=excluded.journal, publication_date=excluded.publication_date,
			doi=excluded.doi, brief_summary=excluded.brief_summary,
			detailed_description=excluded.detailed_description,
			overall_status=excluded.overall_status, phase=excluded.phase,
			conditions=excluded.conditions, interventions=excluded.interventions,
			sponsor=excluded.sponsor, locations=excluded.locations,
			start_date=excluded.start_date, completion_date=excluded.completion_date,
			search_query=excluded.search_query, topic=excluded.topic,
			fetched_at=excluded.fetched_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	saved := 0
	for _, doc := range docs {
		if doc.ID == "" || doc.Source == "" {
			continue
		}
		authorsJSON, _ := json.Marshal(doc.Authors)
		conditionsJSON, _ := json.Marshal(doc.Conditions)
		interventionsJSON, _ := json.Marshal(doc.Interventions)
		locationsJSON, _ := json.Marshal(doc.Locations)

		_, err := stmt.ExecContext(ctx,
			string(doc.Source), doc.ID, doc.Title, doc.URL,
			doc.Abstract, string(authorsJSON), doc.Journal, doc.PublicationDate, doc.DOI,
			doc.BriefSummary, doc.DetailedDescription, doc.OverallStatus, doc.Phase,
			string(conditionsJSON), string(interventionsJSON), doc.Sponsor, string(locationsJSON),
			doc.StartDate, doc.CompletionDate,
			doc.SearchQuery, doc.Topic, fetchedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting document %s: %w", doc.Key(), err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return saved, nil
}
