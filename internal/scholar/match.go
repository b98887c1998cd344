// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

const (
	// maxQueryLen bounds the search query; very long titles trip the
	// API's query validation.
	maxQueryLen = 200
	// minSimilarity is the Jaro-Winkler floor below which a fuzzy
	// candidate is not trusted.
	minSimilarity = 0.5
)

// cleanQuery prepares a title for the search API: trailing punctuation
// goes (DBLP titles end with a period), and the query is capped at
// maxQueryLen runes.
func cleanQuery(title string) string {
	q := strings.TrimSpace(title)
	q = strings.TrimRight(q, ".,;:!?")
	if utf8.RuneCountInString(q) > maxQueryLen {
		q = string([]rune(q)[:maxQueryLen])
	}
	return strings.TrimSpace(q)
}

// bestMatch picks the search hit that most plausibly is the paper we
// asked about. Exact title match wins outright. Otherwise mutual
// containment is scored by length ratio, then Jaro-Winkler similarity
// catches near-identical titles. When nothing clears the bar the
// first hit is returned; search ranking is a better guess than
// nothing.
func bestMatch(title string, papers []paperResult) paperResult {
	want := strings.ToLower(strings.TrimSpace(title))

	bestIdx := -1
	bestScore := 0.0
	for i, p := range papers {
		got := strings.ToLower(strings.TrimSpace(p.Title))
		if got == want {
			return papers[i]
		}
		if got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
			if score := lengthRatio(want, got); score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
	}
	if bestIdx >= 0 {
		return papers[bestIdx]
	}

	for i, p := range papers {
		got := strings.ToLower(strings.TrimSpace(p.Title))
		if score := matchr.JaroWinkler(want, got, false); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestIdx >= 0 && bestScore >= minSimilarity {
		return papers[bestIdx]
	}
	return papers[0]
}

// lengthRatio scores mutual containment: the closer the two lengths,
// the more of the longer title is accounted for.
func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if la < lb {
		return float64(la) / float64(lb)
	}
	return float64(lb) / float64(la)
}
