// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/saucebing/paper-fetch/pkg/types"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Text is the FTS5 full-text search string, matched against titles
	// and abstracts.
	Text string

	// Conference filters by venue abbreviation.
	Conference string

	// Year filters by edition year. Zero means all years.
	Year int

	// MinCitations drops papers below the threshold. Zero disables.
	MinCitations int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Conference == "" && q.Year == 0 && q.MinCitations == 0
}

// Query searches the catalog with optional full-text search and
// structured filters. Full-text queries are ranked by relevance;
// structured-only queries are sorted by citations, then year, then
// title.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.PaperRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Text != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.title, p.authors, p.conference, p.year, p.abstract, p.citation_count, p.affiliations
			FROM papers_fts
			JOIN papers p ON p.id = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(
			`SELECT p.title, p.authors, p.conference, p.year, p.abstract, p.citation_count, p.affiliations
			FROM papers p
			WHERE 1=1`)
	}

	if opts.Conference != "" {
		qb.WriteString(` AND p.conference = ?`)
		args = append(args, opts.Conference)
	}
	if opts.Year != 0 {
		qb.WriteString(` AND p.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.MinCitations > 0 {
		qb.WriteString(` AND p.citation_count >= ?`)
		args = append(args, opts.MinCitations)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.citation_count DESC, p.year DESC, p.title`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []types.PaperRecord
	for rows.Next() {
		var (
			rec         types.PaperRecord
			authorsJSON string
		)
		if err := rows.Scan(
			&rec.Title, &authorsJSON, &rec.Conference, &rec.Year,
			&rec.Abstract, &rec.CitationCount, &rec.Affiliations,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		json.Unmarshal([]byte(authorsJSON), &rec.Authors)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// VenueStat summarizes one (conference, year) group.
type VenueStat struct {
	Conference string `json:"conference" yaml:"conference"`
	Year       int    `json:"year" yaml:"year"`
	Papers     int    `json:"papers" yaml:"papers"`
	Citations  int    `json:"citations" yaml:"citations"`
}

// Stats summarizes catalog contents.
type Stats struct {
	Papers       int         `json:"papers" yaml:"papers"`
	WithAbstract int         `json:"with_abstract" yaml:"with_abstract"`
	Citations    int         `json:"citations" yaml:"citations"`
	Venues       []VenueStat `json:"venues" yaml:"venues"`
}

// Stats returns totals and a per-venue breakdown.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
			coalesce(sum(CASE WHEN abstract != '' THEN 1 ELSE 0 END), 0),
			coalesce(sum(citation_count), 0)
		 FROM papers`,
	).Scan(&st.Papers, &st.WithAbstract, &st.Citations)
	if err != nil {
		return Stats{}, fmt.Errorf("querying totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT conference, year, count(*), coalesce(sum(citation_count), 0)
		 FROM papers
		 GROUP BY conference, year
		 ORDER BY conference, year DESC`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying venue stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v VenueStat
		if err := rows.Scan(&v.Conference, &v.Year, &v.Papers, &v.Citations); err != nil {
			return Stats{}, fmt.Errorf("scanning venue stats: %w", err)
		}
		st.Venues = append(st.Venues, v)
	}

	return st, rows.Err()
}
