// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// AuthorSeparator joins author names when a record is serialized to a
// single column.
const AuthorSeparator = "; "

// PaperRecord is one row of the harvested paper table. The collector
// fills the first four fields; the enricher adds the rest.
type PaperRecord struct {
	// Title is the paper title as listed by the venue. Titles are the
	// (imperfect) join key for enrichment and are not guaranteed unique.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in listing order.
	Authors []string `json:"authors" yaml:"authors"`

	// Conference is the venue abbreviation (e.g. "OSDI").
	Conference string `json:"conference" yaml:"conference"`

	// Year is the edition year the record was collected for.
	Year int `json:"year" yaml:"year"`

	// Abstract is filled by enrichment; empty when the lookup found nothing.
	Abstract string `json:"abstract" yaml:"abstract"`

	// CitationCount is filled by enrichment; zero when the lookup found nothing.
	CitationCount int `json:"citationCount" yaml:"citation_count"`

	// Affiliations holds per-author affiliation summaries when the
	// enricher runs with affiliations enabled, empty otherwise.
	Affiliations string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`
}

// JoinedAuthors returns the authors as a single semicolon-joined string.
func (p PaperRecord) JoinedAuthors() string {
	return strings.Join(p.Authors, AuthorSeparator)
}

// SplitAuthors parses a semicolon-joined author string back into names.
// Empty segments are dropped.
func SplitAuthors(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
