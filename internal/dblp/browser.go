// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dblp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderFunc fetches the fully rendered HTML of a URL through a real
// browser.
type RenderFunc func(ctx context.Context, url string) (string, error)

// BrowserSource reads the export payload through a headless browser.
// It is the slow path, used when the plain HTTP source was refused or
// came back empty. The browser receives the export URL directly; when
// a listing has no derivable export form the source renders the
// listing page and follows its JSON export link instead.
type BrowserSource struct {
	Render RenderFunc
}

// Name implements Source.
func (s *BrowserSource) Name() string { return "browser" }

// Listing implements Source.
func (s *BrowserSource) Listing(ctx context.Context, listingURL string) ([]Publication, error) {
	if s.Render == nil {
		return nil, errors.New("no renderer configured")
	}

	target, err := ExportURL(listingURL)
	if err != nil {
		target, err = s.findExportLink(ctx, listingURL)
		if err != nil {
			return nil, err
		}
	}

	html, err := s.Render(ctx, target)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(html)
	if err != nil {
		return nil, err
	}
	return DecodePublications(strings.NewReader(raw))
}

// findExportLink renders the listing page and returns the first link
// that points at a JSON export.
func (s *BrowserSource) findExportLink(ctx context.Context, listingURL string) (string, error) {
	html, err := s.Render(ctx, listingURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing listing page: %w", err)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "format=json") || strings.Contains(href, "/search/publ/api") {
			found = href
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("no JSON export link on %s", listingURL)
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("parsing listing URL: %w", err)
	}
	ref, err := url.Parse(found)
	if err != nil {
		return "", fmt.Errorf("parsing export link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// extractJSON pulls the JSON payload out of a rendered API response.
// The browser wraps plain JSON in an HTML skeleton with the payload
// inside a <pre> element.
func extractJSON(html string) (string, error) {
	trimmed := strings.TrimSpace(html)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing rendered page: %w", err)
	}
	text := strings.TrimSpace(doc.Find("pre").First().Text())
	if !strings.HasPrefix(text, "{") {
		return "", errors.New("rendered page holds no JSON payload")
	}
	return text, nil
}
