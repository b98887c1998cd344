package download

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// linkKeywords mark anchors that lead to a paper's detail page.
var linkKeywords = []string{"presentation", "paper", "view", "detail", "abstract"}

var (
	absolutePDFRE = regexp.MustCompile(`https?://[^\s"'<>]+\.pdf`)
	hrefPDFRE     = regexp.MustCompile(`(?i)href=["']([^"']+\.pdf)["']`)
)

// paperLinks extracts candidate detail-page links from a rendered
// listing page. An anchor qualifies when its href or its text mentions
// one of the paper keywords. Links are resolved against base and
// deduplicated, keeping document order.
func paperLinks(html string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" {
			return
		}
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if !keywordMatch(strings.ToLower(href)) && !keywordMatch(text) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !strings.HasPrefix(abs, "http") || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links, nil
}

func keywordMatch(s string) bool {
	for _, kw := range linkKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// findPDF returns the first PDF link on a detail page, resolved
// against the page URL. Empty means none found.
func findPDF(html string, page *url.URL) string {
	if m := absolutePDFRE.FindString(html); m != "" {
		return m
	}
	if m := hrefPDFRE.FindStringSubmatch(html); m != nil {
		return resolvePDF(m[1], page)
	}
	return ""
}

func resolvePDF(href string, page *url.URL) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return page.ResolveReference(ref).String()
}

// titleSelectors are tried in order on a detail page.
var titleSelectors = []string{
	"h1", "h2", ".paper-title", ".title", "[class*='title']", "[class*='Title']",
}

// minTitleLen guards against picking up short navigation headings.
const minTitleLen = 10

var titleSuffixRE = regexp.MustCompile(`\s*[-|].*$`)

// pageTitle extracts the paper title from a detail page, falling back
// to the document title with its site suffix stripped.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, sel := range titleSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if len(text) > minTitleLen {
			return text
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return strings.TrimSpace(titleSuffixRE.ReplaceAllString(t, ""))
	}
	return ""
}

var (
	illegalFilenameRE = regexp.MustCompile(`[<>:"/\\|?*]`)
	underscoreRunRE   = regexp.MustCompile(`_+`)
)

const maxFilenameLen = 200

// sanitizeFilename makes a title safe as a filename: spaces and
// illegal characters become underscores, runs of underscores
// collapse, and the result is capped at maxFilenameLen.
func sanitizeFilename(name string) string {
	s := strings.ReplaceAll(name, " ", "_")
	s = illegalFilenameRE.ReplaceAllString(s, "_")
	s = underscoreRunRE.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if runes := []rune(s); len(runes) > maxFilenameLen {
		s = string(runes[:maxFilenameLen])
	}
	return s
}
