// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect drives the metadata collection pipeline: every
// venue, every year, every listing URL, appended into one record
// list in configuration order.
package collect

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/saucebing/paper-fetch/internal/dblp"
	"github.com/saucebing/paper-fetch/pkg/types"
)

// Summary reports what a collection run did.
type Summary struct {
	Venues   int // venues processed
	Listings int // listing URLs fetched
	Papers   int // records collected
	Failed   int // listings that produced nothing
}

// HasFailures reports whether any listing came up empty-handed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Run collects publication records for the configured venues. Sources
// are tried in order per listing; a listing where every source fails
// is reported on w and skipped, it never aborts the run. Records are
// concatenated in venue order, year order, URL order, with no
// deduplication across listings.
//
// On context cancellation Run returns the records gathered so far
// together with the context error, so the caller can still save a
// partial result.
func Run(ctx context.Context, sources []dblp.Source, venues []types.VenueDescriptor, cfg types.CollectConfig, w io.Writer) ([]types.PaperRecord, Summary, error) {
	years := cfg.Years
	if len(years) == 0 {
		years = types.DefaultYears
	}
	// Listing URLs in the configuration are written for the first
	// configured year; other years substitute it.
	baseYear := years[0]

	limit := len(venues)
	if cfg.MaxConferences > 0 && cfg.MaxConferences < limit {
		limit = cfg.MaxConferences
	}

	var (
		records []types.PaperRecord
		sum     Summary
	)
	for _, venue := range venues[:limit] {
		sum.Venues++
		for _, year := range venue.Years(years) {
			fmt.Fprintf(w, "%s %d\n", venue.Abbreviation, year)

			taken := 0
			for _, rawURL := range venue.DBLPURLs {
				if err := ctx.Err(); err != nil {
					return records, sum, err
				}
				if cfg.MaxPapers > 0 && taken >= cfg.MaxPapers {
					break
				}

				listingURL := types.URLForYear(rawURL, baseYear, year)
				fmt.Fprintf(w, "  %s\n", listingURL)
				sum.Listings++

				pubs, err := dblp.TrySources(ctx, sources, listingURL, w)
				if err != nil {
					if ctx.Err() != nil {
						return records, sum, ctx.Err()
					}
					fmt.Fprintf(w, "    skipping listing: %v\n", err)
					sum.Failed++
				} else if len(pubs) == 0 {
					sum.Failed++
				}

				for _, pub := range pubs {
					if cfg.MaxPapers > 0 && taken >= cfg.MaxPapers {
						break
					}
					records = append(records, types.PaperRecord{
						Title:      pub.Title,
						Authors:    pub.Authors,
						Conference: venue.Abbreviation,
						Year:       year,
					})
					taken++
					sum.Papers++
				}
				fmt.Fprintf(w, "    %d papers\n", len(pubs))

				if err := sleep(ctx, cfg.RequestDelay); err != nil {
					return records, sum, err
				}
			}
		}
	}
	return records, sum, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
