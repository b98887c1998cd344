// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich merges Semantic Scholar data into collected records.
// The pipeline is strictly sequential and crash-tolerant: progress is
// checkpointed by rewriting the whole output table at a fixed row
// cadence, so an interrupted run can resume from the last checkpoint
// with --start-from.
package enrich

import (
	"context"
	"fmt"
	"io"

	"github.com/saucebing/paper-fetch/internal/scholar"
	"github.com/saucebing/paper-fetch/pkg/types"
)

// DefaultCheckpointInterval is how many processed rows trigger a
// checkpoint write.
const DefaultCheckpointInterval = 50

// Service is the lookup dependency; *scholar.Client satisfies it.
type Service interface {
	Lookup(ctx context.Context, title string) (scholar.Enrichment, bool, error)
}

// SaveFunc persists the full record table. It is called for every
// checkpoint and must overwrite the previous checkpoint in place.
type SaveFunc func(records []types.PaperRecord) error

// Summary reports what an enrichment run did.
type Summary struct {
	Processed int // rows looked up
	Enriched  int // rows that gained an abstract or citations
	Missed    int // rows looked up but left empty
	Skipped   int // rows skipped because they already had an abstract
	Writes    int // checkpoint writes, including the final flush
}

// Run enriches records[start:end) in place, where start is
// cfg.StartFrom and the window is bounded by cfg.MaxPapers. Rows
// outside the window are left untouched but still written with every
// checkpoint, since a checkpoint is always the whole table.
//
// A checkpoint is written each time cfg.CheckpointInterval rows have
// been processed since the last write, and once more after the loop
// iff at least one row was processed since the last periodic write. A
// run whose tail lands exactly on the cadence therefore does not
// write a redundant final copy, and a run that processed nothing
// writes nothing.
//
// Lookup failures are soft: the row's enrichment fields are set to
// their empty values and the run continues. Cancellation flushes any
// rows processed since the last write, then returns the context
// error.
func Run(ctx context.Context, svc Service, records []types.PaperRecord, cfg types.EnrichConfig, save SaveFunc, w io.Writer) (Summary, error) {
	var sum Summary

	interval := cfg.CheckpointInterval
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}

	start := cfg.StartFrom
	if start < 0 {
		start = 0
	}
	end := len(records)
	if cfg.MaxPapers > 0 && start+cfg.MaxPapers < end {
		end = start + cfg.MaxPapers
	}

	flush := func() error {
		if err := save(records); err != nil {
			return fmt.Errorf("saving checkpoint: %w", err)
		}
		sum.Writes++
		return nil
	}

	sinceFlush := 0
	for idx := start; idx < end; idx++ {
		if ctx.Err() != nil {
			break
		}
		rec := &records[idx]
		fmt.Fprintf(w, "[%d/%d] %s\n", idx+1, len(records), shorten(rec.Title, 60))

		if cfg.SkipExisting && rec.Abstract != "" {
			fmt.Fprintf(w, "  already enriched, skipping\n")
			sum.Skipped++
			continue
		}

		enr, found, err := svc.Lookup(ctx, rec.Title)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				// The lookup died with the context; don't count the row.
				continue
			}
			rec.Abstract, rec.CitationCount, rec.Affiliations = "", 0, ""
			sum.Missed++
			fmt.Fprintf(w, "  lookup failed: %v\n", err)
		case !found:
			rec.Abstract, rec.CitationCount, rec.Affiliations = "", 0, ""
			sum.Missed++
			fmt.Fprintf(w, "  no match\n")
		default:
			rec.Abstract = enr.Abstract
			rec.CitationCount = enr.CitationCount
			rec.Affiliations = enr.Affiliations
			if enr.Abstract == "" && enr.CitationCount == 0 {
				sum.Missed++
				fmt.Fprintf(w, "  matched but empty\n")
			} else {
				sum.Enriched++
				fmt.Fprintf(w, "  citations: %d, abstract: %d chars\n", enr.CitationCount, len(enr.Abstract))
			}
		}
		sum.Processed++
		sinceFlush++

		if sinceFlush >= interval {
			if err := flush(); err != nil {
				return sum, err
			}
			sinceFlush = 0
			fmt.Fprintf(w, "  [checkpoint saved: %d rows done]\n", idx+1-start)
		}
	}

	if sinceFlush > 0 {
		if err := flush(); err != nil {
			return sum, err
		}
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
