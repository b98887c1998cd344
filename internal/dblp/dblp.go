// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dblp retrieves conference publication listings from DBLP.
//
// Listings come from the public export API when possible. Some pages
// rate-limit plain HTTP clients or only assemble their content in the
// browser, so the package also ships a headless-browser source that
// reads the same export payload through a rendered page. Callers hold
// both behind the Source interface and try them in order.
package dblp

import (
	"context"
	"fmt"
	"io"
)

// Publication is one entry of a conference listing. Venue and year are
// not carried here; the caller knows which venue and year it asked
// for.
type Publication struct {
	Title   string
	Authors []string
}

// Source fetches the publications behind one DBLP listing URL.
type Source interface {
	// Name identifies the source in progress output.
	Name() string
	// Listing returns all publications for the given listing URL.
	Listing(ctx context.Context, url string) ([]Publication, error)
}

// TrySources asks each source in order and returns the first non-empty
// result. A source that errors or comes back empty is reported on w
// and the next one is tried. When every source errors the last error
// is returned; when they all succeed with empty results the result is
// empty with no error.
func TrySources(ctx context.Context, sources []Source, url string, w io.Writer) ([]Publication, error) {
	var lastErr error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pubs, err := src.Listing(ctx, url)
		if err != nil {
			fmt.Fprintf(w, "    %s: %v\n", src.Name(), err)
			lastErr = err
			continue
		}
		if len(pubs) == 0 {
			fmt.Fprintf(w, "    %s: no publications\n", src.Name())
			continue
		}
		return pubs, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all sources failed: %w", lastErr)
	}
	return nil, nil
}
