// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches paper PDFs. It walks the same venue and
// year sweep as the collector, but instead of reading the export API
// it renders each listing page, follows the per-paper detail links,
// and saves whatever PDF each detail page offers.
package download

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/saucebing/paper-fetch/internal/dblp"
	"github.com/saucebing/paper-fetch/pkg/types"
)

// defaultMinPDFSize rejects bodies that are too small to be a real
// PDF; they are usually HTML error pages.
const defaultMinPDFSize = 1000

// Result holds the outcome of a download run.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of papers processed.
func (r Result) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Downloader fetches PDFs for every paper linked from the configured
// venues' listing pages. Listing and detail pages go through Render;
// the PDFs themselves are plain HTTP.
type Downloader struct {
	Render dblp.RenderFunc
	Client *http.Client
	Config types.DownloadConfig
}

// Run sweeps the venues and downloads PDFs into the configured
// directory as {ABBR}_{YEAR}_{title}.pdf. Every failure is per-paper
// and soft; the run only stops on context cancellation.
func (d *Downloader) Run(ctx context.Context, venues []types.VenueDescriptor, w io.Writer) (Result, error) {
	cfg := d.Config
	years := cfg.Years
	if len(years) == 0 {
		years = types.DefaultYears
	}
	baseYear := years[0]

	limit := len(venues)
	if cfg.MaxConferences > 0 && cfg.MaxConferences < limit {
		limit = cfg.MaxConferences
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating download directory: %w", err)
	}

	var result Result
	for _, venue := range venues[:limit] {
		for _, year := range venue.Years(years) {
			for _, rawURL := range venue.DBLPURLs {
				if err := ctx.Err(); err != nil {
					return result, err
				}
				listingURL := types.URLForYear(rawURL, baseYear, year)
				fmt.Fprintf(w, "%s %d: %s\n", venue.Abbreviation, year, listingURL)

				r, err := d.listing(ctx, listingURL, venue.Abbreviation, year, w)
				result.Downloaded += r.Downloaded
				result.Skipped += r.Skipped
				result.Failed += r.Failed
				if err != nil {
					if ctx.Err() != nil {
						return result, ctx.Err()
					}
					fmt.Fprintf(w, "  listing failed: %v\n", err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// listing renders one listing page and processes each linked paper.
func (d *Downloader) listing(ctx context.Context, listingURL, abbr string, year int, w io.Writer) (Result, error) {
	var result Result

	html, err := d.Render(ctx, listingURL)
	if err != nil {
		return result, fmt.Errorf("rendering listing: %w", err)
	}
	base, err := url.Parse(listingURL)
	if err != nil {
		return result, fmt.Errorf("parsing listing URL: %w", err)
	}
	links, err := paperLinks(html, base)
	if err != nil {
		return result, fmt.Errorf("parsing listing page: %w", err)
	}
	if len(links) == 0 {
		fmt.Fprintf(w, "  no paper links found\n")
		return result, nil
	}

	// The first link on a proceedings page is front matter (opening
	// remarks and the like), not a paper.
	papers := links
	if len(papers) > 1 {
		papers = papers[1:]
	}
	if d.Config.MaxPapers > 0 && len(papers) > d.Config.MaxPapers {
		papers = papers[:d.Config.MaxPapers]
	}
	fmt.Fprintf(w, "  %d paper links\n", len(papers))

	for i, pageURL := range papers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fmt.Fprintf(w, "  [%d/%d] %s\n", i+1, len(papers), pageURL)

		skipped, err := d.paper(ctx, pageURL, abbr, year, w)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "    failed: %v\n", err)
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
	}
	return result, nil
}

// paper renders one detail page, finds its PDF, and downloads it. The
// skipped return value reports that the file already existed.
func (d *Downloader) paper(ctx context.Context, pageURL, abbr string, year int, w io.Writer) (skipped bool, err error) {
	if err := d.sleep(ctx); err != nil {
		return false, err
	}
	html, err := d.Render(ctx, pageURL)
	if err != nil {
		return false, fmt.Errorf("rendering detail page: %w", err)
	}

	title := pageTitle(html)
	if title == "" {
		// Last resort: the URL's final path segment.
		if parsed, perr := url.Parse(pageURL); perr == nil {
			seg := path.Base(parsed.Path)
			if unescaped, uerr := url.PathUnescape(seg); uerr == nil {
				seg = unescaped
			}
			title = seg
		}
	}
	title = sanitizeFilename(title)
	if title == "" || title == "." {
		return false, fmt.Errorf("no usable title for %s", pageURL)
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("parsing page URL: %w", err)
	}
	pdfURL := findPDF(html, page)
	if pdfURL == "" {
		return false, fmt.Errorf("no PDF link on %s", pageURL)
	}

	filename := fmt.Sprintf("%s_%d_%s.pdf", abbr, year, title)
	dest := filepath.Join(d.Config.DownloadDir, filename)
	if _, statErr := os.Stat(dest); statErr == nil {
		fmt.Fprintf(w, "    exists, skipping: %s\n", filename)
		return true, nil
	}

	if err := d.sleep(ctx); err != nil {
		return false, err
	}
	fmt.Fprintf(w, "    downloading: %s\n", filename)
	if err := d.fetchPDF(ctx, pdfURL, dest); err != nil {
		return false, err
	}
	return false, nil
}

// fetchPDF downloads a PDF to destPath via a temporary file, renamed
// into place only after the body passed the size check.
func (d *Downloader) fetchPDF(ctx context.Context, pdfURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if d.Config.UserAgent != "" {
		req.Header.Set("User-Agent", d.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, pdfURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	minSize := d.Config.MinPDFSize
	if minSize <= 0 {
		minSize = defaultMinPDFSize
	}
	if n < minSize {
		os.Remove(tmpPath)
		return fmt.Errorf("downloaded file too small (%d bytes), likely an error page", n)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// sleep pauses for a random duration between MinDelay and MaxDelay.
// Scraping conference sites at machine speed gets the client blocked.
func (d *Downloader) sleep(ctx context.Context) error {
	min, max := d.Config.MinDelay, d.Config.MaxDelay
	if min <= 0 && max <= 0 {
		return nil
	}
	delay := min
	if span := max - min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
