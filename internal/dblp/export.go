// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dblp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/saucebing/paper-fetch/internal/httputil"
)

// ExportAPIBase is the DBLP publication search endpoint. Tests swap
// this for an httptest server.
var ExportAPIBase = "https://dblp.org/search/publ/api"

// confPathRE matches proceedings listing URLs such as
// https://dblp.org/db/conf/osdi/osdi2025.html.
var confPathRE = regexp.MustCompile(`/conf/([^/]+)/([^/]+)\.html`)

// ExportURL derives the JSON export URL for a listing page.
//
// Proceedings pages map to a table-of-contents query
// (toc:db/conf/{venue}/{volume}.bht:). Search pages reuse their own q
// parameter. Anything else has no export form and returns an error.
func ExportURL(listingURL string) (string, error) {
	if m := confPathRE.FindStringSubmatch(listingURL); m != nil {
		return exportQueryURL(fmt.Sprintf("toc:db/conf/%s/%s.bht:", m[1], m[2])), nil
	}
	if strings.Contains(listingURL, "search") {
		parsed, err := url.Parse(listingURL)
		if err != nil {
			return "", fmt.Errorf("parsing search URL: %w", err)
		}
		if q := parsed.Query().Get("q"); q != "" {
			return exportQueryURL(q), nil
		}
	}
	return "", fmt.Errorf("no export form for %s", listingURL)
}

func exportQueryURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("h", "1000")
	params.Set("format", "json")
	return ExportAPIBase + "?" + params.Encode()
}

// APISource fetches listings straight from the export API. This is the
// fast path; it needs no browser.
type APISource struct {
	// Client is the HTTP client to use. Nil means http.DefaultClient.
	Client *http.Client
	// UserAgent is sent with every request when non-empty.
	UserAgent string
	// MaxRetries bounds retries on HTTP 429. Zero means the
	// httputil default.
	MaxRetries int
}

// Name implements Source.
func (s *APISource) Name() string { return "export-api" }

// Listing implements Source.
func (s *APISource) Listing(ctx context.Context, listingURL string) ([]Publication, error) {
	exportURL, err := ExportURL(listingURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building export request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export API returned %s", resp.Status)
	}
	return DecodePublications(resp.Body)
}

// DecodePublications parses an export API payload. Hits without a
// title are dropped; authors may be missing.
func DecodePublications(r io.Reader) ([]Publication, error) {
	var payload exportPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding export JSON: %w", err)
	}

	hits := payload.Result.Hits.Hit
	pubs := make([]Publication, 0, len(hits))
	for _, hit := range hits {
		title := strings.TrimSpace(string(hit.Info.Title))
		if title == "" {
			continue
		}
		pubs = append(pubs, Publication{
			Title:   title,
			Authors: hit.Info.Authors.Author,
		})
	}
	return pubs, nil
}

// The export payload plays loose with shapes: single-element
// collections come back as bare objects, and text fields flip between
// strings and {"text": ...} objects. The types below absorb that.

type exportPayload struct {
	Result struct {
		Hits struct {
			Hit hitList `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type exportHit struct {
	Info struct {
		Title   flexText      `json:"title"`
		Authors exportAuthors `json:"authors"`
	} `json:"info"`
}

type hitList []exportHit

func (h *hitList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var items []exportHit
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*h = items
		return nil
	}
	var one exportHit
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*h = hitList{one}
	return nil
}

type exportAuthors struct {
	Author authorList `json:"author"`
}

type authorList []string

func (a *authorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var items []flexText
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, item := range items {
			if name := strings.TrimSpace(string(item)); name != "" {
				*a = append(*a, name)
			}
		}
		return nil
	}
	var one flexText
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if name := strings.TrimSpace(string(one)); name != "" {
		*a = append(*a, name)
	}
	return nil
}

// flexText is a string that also accepts {"text": ...} objects and
// takes the first element of an array.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = flexText(s)
	case '[':
		var items []flexText
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if len(items) > 0 {
			*t = items[0]
		}
	default:
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = flexText(obj.Text)
	}
	return nil
}
