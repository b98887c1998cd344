// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar looks up papers in the Semantic Scholar Graph API
// to pull in abstracts, citation counts, and optionally author
// affiliations.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saucebing/paper-fetch/internal/httputil"
)

// API endpoints, declared as vars so tests can substitute an httptest
// server.
var (
	searchAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"
	authorAPIBase = "https://api.semanticscholar.org/graph/v1/author"
)

const (
	searchFields = "title,abstract,citationCount,authors"
	searchLimit  = 10
)

// Enrichment carries the fields merged into a collected record.
type Enrichment struct {
	Abstract      string
	CitationCount int
	Affiliations  string
}

// Client queries Semantic Scholar. It is not safe for concurrent use;
// the enrichment pipeline is strictly sequential and the request pacer
// depends on that.
type Client struct {
	// Client is the HTTP client to use. Nil means http.DefaultClient.
	Client *http.Client
	// APIKey is sent as x-api-key when non-empty. Without a key the
	// public rate limits apply.
	APIKey string
	// UserAgent is sent with every request when non-empty.
	UserAgent string
	// MinInterval is the minimum spacing between consecutive API
	// requests. Zero disables pacing.
	MinInterval time.Duration
	// Affiliations turns on per-author affiliation lookups. Each
	// author costs one extra paced request.
	Affiliations bool
	// MaxAffiliationAuthors bounds how many authors get an
	// affiliation lookup. Zero means all of them; later authors
	// appear by name only.
	MaxAffiliationAuthors int

	last time.Time
}

// Lookup searches for a paper by title and returns the best-matching
// hit's enrichment fields. The found flag is false when the search
// came back empty; an error covers transport and decoding failures.
// Callers treat both outcomes as a miss and keep going.
func (c *Client) Lookup(ctx context.Context, title string) (Enrichment, bool, error) {
	query := cleanQuery(title)
	if query == "" {
		return Enrichment{}, false, errors.New("empty title")
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(searchLimit)},
		"fields": {searchFields},
	}

	var sr searchResponse
	if err := c.getJSON(ctx, searchAPIBase+"?"+params.Encode(), &sr); err != nil {
		return Enrichment{}, false, fmt.Errorf("searching %q: %w", query, err)
	}
	if len(sr.Data) == 0 {
		return Enrichment{}, false, nil
	}

	best := bestMatch(title, sr.Data)
	enr := Enrichment{
		Abstract:      best.Abstract,
		CitationCount: best.CitationCount,
	}
	if c.Affiliations {
		enr.Affiliations = c.affiliations(ctx, best.Authors)
	}
	return enr, true, nil
}

// affiliations formats the author list as
// "Name: Aff1; Aff2 | Name: (none) | Name". Authors past the lookup
// bound appear by name only. Lookup failures read as (none); this is
// best-effort detail, never a reason to drop the record.
func (c *Client) affiliations(ctx context.Context, authors []paperAuthor) string {
	limit := len(authors)
	if c.MaxAffiliationAuthors > 0 && c.MaxAffiliationAuthors < limit {
		limit = c.MaxAffiliationAuthors
	}

	parts := make([]string, 0, len(authors))
	for i, author := range authors {
		if i >= limit {
			parts = append(parts, author.Name)
			continue
		}
		affs := c.authorAffiliations(ctx, author.AuthorID)
		if len(affs) == 0 {
			parts = append(parts, author.Name+": (none)")
			continue
		}
		parts = append(parts, author.Name+": "+strings.Join(affs, "; "))
	}
	return strings.Join(parts, " | ")
}

func (c *Client) authorAffiliations(ctx context.Context, authorID string) []string {
	if authorID == "" {
		return nil
	}
	var detail authorDetail
	if err := c.getJSON(ctx, authorAPIBase+"/"+authorID+"?fields=affiliations", &detail); err != nil {
		return nil
	}
	return detail.Affiliations
}

// getJSON performs one paced GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// wait blocks until MinInterval has passed since the previous request.
// This is a hard spacing guarantee, not an average rate: a request
// never starts early, however long the caller spent between calls.
func (c *Client) wait(ctx context.Context) error {
	if c.MinInterval > 0 && !c.last.IsZero() {
		if remaining := c.MinInterval - time.Since(c.last); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
	c.last = time.Now()
	return nil
}

// Semantic Scholar API JSON structures. A null abstract decodes to ""
// and a null citationCount to 0, which are exactly the miss values.
type searchResponse struct {
	Total int           `json:"total"`
	Data  []paperResult `json:"data"`
}

type paperResult struct {
	PaperID       string        `json:"paperId"`
	Title         string        `json:"title"`
	Abstract      string        `json:"abstract"`
	CitationCount int           `json:"citationCount"`
	Authors       []paperAuthor `json:"authors"`
}

type paperAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type authorDetail struct {
	AuthorID     string   `json:"authorId"`
	Affiliations []string `json:"affiliations"`
}
