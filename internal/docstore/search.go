// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// QueryOptions holds parameters for document cache queries.
type QueryOptions struct {
	// Query is the full-text search string over title, abstract, and
	// summary.
	Query string

	// Source filters by document source.
	Source types.DocumentSource

	// Status filters trial records by overall status.
	Status string

	// Topic filters by the strategic topic a document was collected for.
	Topic string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Source == "" && q.Status == "" && q.Topic == ""
}

// Search queries the cache with optional full-text search and structured
// filters. Full-text queries rank by relevance; structured-only queries
// sort by source and id. When the fts5 module is unavailable, text queries
// fall back to case-insensitive substring matching.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]types.Document, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	switch {
	case useFTS:
		qb.WriteString(
			`SELECT d.source, d.id, d.title, d.url,
				d.abstract, d.authors, d.journal, d.publication_date, d.doi,
				d.brief_summary, d.detailed_description, d.overall_status, d.phase,
				d.conditions, d.interventions, d.sponsor, d.locations,
				d.start_date, d.completion_date, d.search_query, d.topic
			FROM documents_fts
			JOIN documents d ON d.rowid = documents_fts.rowid
			WHERE documents_fts MATCH ?`)
		args = append(args, opts.Query)
	case opts.Query != "":
		qb.WriteString(
			`SELECT d.source, d.id, d.title, d.url,
				d.abstract, d.authors, d.journal, d.publication_date, d.doi,
				d.brief_summary, d.detailed_description, d.overall_status, d.phase,
				d.conditions, d.interventions, d.sponsor, d.locations,
				d.start_date, d.completion_date, d.search_query, d.topic
			FROM documents d
			WHERE (d.title LIKE ? OR d.abstract LIKE ? OR d.brief_summary LIKE ?)`)
		pattern := "%" + opts.Query + "%"
		args = append(args, pattern, pattern, pattern)
	default:
		qb.WriteString(
			`SELECT d.source, d.id, d.title, d.url,
				d.abstract, d.authors, d.journal, d.publication_date, d.doi,
				d.brief_summary, d.detailed_description, d.overall_status, d.phase,
				d.conditions, d.interventions, d.sponsor, d.locations,
				d.start_date, d.completion_date, d.search_query, d.topic
			FROM documents d
			WHERE 1=1`)
	}

	if opts.Source != "" {
		qb.WriteString(` AND d.source = ?`)
		args = append(args, string(opts.Source))
	}
	if opts.Status != "" {
		qb.WriteString(` AND d.overall_status = ?`)
		args = append(args, opts.Status)
	}
	if opts.Topic != "" {
		qb.WriteString(` AND d.topic = ?`)
		args = append(args, opts.Topic)
	}

	if useFTS {
		qb.WriteString(` ORDER BY documents_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY d.source, d.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying document cache: %w", err)
	}
	defer rows.Close()

	var results []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}

	return results, rows.Err()
}

func scanDocument(rows *sql.Rows) (types.Document, error) {
	var (
		doc               types.Document
		source            string
		authorsJSON       sql.NullString
		conditionsJSON    sql.NullString
		interventionsJSON sql.NullString
		locationsJSON     sql.NullString
	)

	if err := rows.Scan(
		&source, &doc.ID, &doc.Title, &doc.URL,
		&doc.Abstract, &authorsJSON, &doc.Journal, &doc.PublicationDate, &doc.DOI,
		&doc.BriefSummary, &doc.DetailedDescription, &doc.OverallStatus, &doc.Phase,
		&conditionsJSON, &interventionsJSON, &doc.Sponsor, &locationsJSON,
		&doc.StartDate, &doc.CompletionDate, &doc.SearchQuery, &doc.Topic,
	); err != nil {
		return types.Document{}, fmt.Errorf("scanning row: %w", err)
	}

	doc.Source = types.DocumentSource(source)
	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &doc.Authors)
	}
	if conditionsJSON.Valid {
		json.Unmarshal([]byte(conditionsJSON.String), &doc.Conditions)
	}
	if interventionsJSON.Valid {
		json.Unmarshal([]byte(interventionsJSON.String), &doc.Interventions)
	}
	if locationsJSON.Valid {
		json.Unmarshal([]byte(locationsJSON.String), &doc.Locations)
	}

	return doc, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalDocuments int            `json:"total_documents"`
	BySource       map[string]int `json:"by_source"`
	Topics         []string       `json:"topics"`
}

// Stats reports document counts overall and per source, plus the
// distinct topics present in the cache.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: map[string]int{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, count(*) FROM documents GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return Stats{}, fmt.Errorf("scanning count: %w", err)
		}
		stats.BySource[source] = count
		stats.TotalDocuments += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	topicRows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT topic FROM documents WHERE topic != '' ORDER BY topic`)
	if err != nil {
		return Stats{}, fmt.Errorf("listing topics: %w", err)
	}
	defer topicRows.Close()

	for topicRows.Next() {
		var topic string
		if err := topicRows.Scan(&topic); err != nil {
			return Stats{}, fmt.Errorf("scanning topic: %w", err)
		}
		stats.Topics = append(stats.Topics, topic)
	}

	return stats, topicRows.Err()
}
