// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads and writes the paper record table as CSV.
// Files carry a UTF-8 BOM so spreadsheet tools pick up the encoding;
// the BOM is stripped on read. Writes go through a temp file and
// rename, so an interrupted checkpoint never truncates the previous
// table.
package records

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/saucebing/paper-fetch/pkg/types"
)

const bom = "﻿"

// Columns selects the header set a table is written with. The
// collector writes Base; the enricher writes Enriched, or
// EnrichedAffiliations when affiliation lookups were on.
type Columns int

const (
	Base Columns = iota
	Enriched
	EnrichedAffiliations
)

func (c Columns) header() []string {
	h := []string{"title", "authors", "conference", "year"}
	if c >= Enriched {
		h = append(h, "abstract", "citationCount")
	}
	if c >= EnrichedAffiliations {
		h = append(h, "affiliations")
	}
	return h
}

func (c Columns) row(r types.PaperRecord) []string {
	row := []string{r.Title, r.JoinedAuthors(), r.Conference, strconv.Itoa(r.Year)}
	if c >= Enriched {
		row = append(row, r.Abstract, strconv.Itoa(r.CitationCount))
	}
	if c >= EnrichedAffiliations {
		row = append(row, r.Affiliations)
	}
	return row
}

// Write persists records to path as CSV with the given column set,
// replacing any existing file.
func Write(path string, recs []types.PaperRecord, cols Columns) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(bom); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(tmp)
	if err := cw.Write(cols.header()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(cols.row(r)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Read loads a record table from path. Column order is taken from the
// header, so enriched and base tables both parse; missing enrichment
// columns default to empty/zero. A malformed citationCount or year
// falls back to zero rather than failing the row.
func Read(path string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record table: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), bom)))
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing record table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	recs := make([]types.PaperRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := types.PaperRecord{
			Title:        field(row, "title"),
			Authors:      types.SplitAuthors(field(row, "authors")),
			Conference:   field(row, "conference"),
			Abstract:     field(row, "abstract"),
			Affiliations: field(row, "affiliations"),
		}
		r.Year, _ = strconv.Atoi(strings.TrimSpace(field(row, "year")))
		r.CitationCount = parseCount(field(row, "citationCount"))
		recs = append(recs, r)
	}
	return recs, nil
}

// parseCount converts a citation count cell to an int, treating blank
// or malformed values as zero.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PartialPath derives the file name used when a run is interrupted and
// partial results are saved: "papers.csv" becomes "papers_partial.csv".
func PartialPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_partial" + ext
}
