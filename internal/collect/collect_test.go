// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/saucebing/paper-fetch/internal/dblp"
	"github.com/saucebing/paper-fetch/pkg/types"
)

// stubSource serves canned publications keyed by listing URL.
type stubSource struct {
	name   string
	byURL  map[string][]dblp.Publication
	errs   map[string]error
	calls  []string
	onCall func()
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Listing(_ context.Context, url string) ([]dblp.Publication, error) {
	s.calls = append(s.calls, url)
	if s.onCall != nil {
		s.onCall()
	}
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	return s.byURL[url], nil
}

func venue(abbr string, urls ...string) types.VenueDescriptor {
	return types.VenueDescriptor{
		ID:           1,
		Abbreviation: abbr,
		FullName:     abbr + " Conference",
		DBLPURLs:     urls,
	}
}

// --- year sweep ---

func TestRunCollectsBothYears(t *testing.T) {
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			"https://dblp.org/db/conf/osdi/osdi2025.html": {
				{Title: "Paper A.", Authors: []string{"Alice Arkwright"}},
				{Title: "Paper B.", Authors: []string{"Bob Besson", "Carol Chen"}},
			},
			"https://dblp.org/db/conf/osdi/osdi2024.html": {
				{Title: "Paper C."},
			},
		},
	}

	records, sum, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", "https://dblp.org/db/conf/osdi/osdi2025.html")},
		types.CollectConfig{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []types.PaperRecord{
		{Title: "Paper A.", Authors: []string{"Alice Arkwright"}, Conference: "OSDI", Year: 2025},
		{Title: "Paper B.", Authors: []string{"Bob Besson", "Carol Chen"}, Conference: "OSDI", Year: 2025},
		{Title: "Paper C.", Conference: "OSDI", Year: 2024},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("Run() records = %+v, want %+v", records, want)
	}
	if sum.Papers != 3 || sum.Listings != 2 || sum.Venues != 1 {
		t.Errorf("Run() summary = %+v, want 3 papers over 2 listings", sum)
	}
	if sum.HasFailures() {
		t.Errorf("Run() summary reports failures: %+v", sum)
	}
}

func TestRunOnly2024(t *testing.T) {
	searchURL := "https://dblp.org/search?q=MLSys+2024"
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			searchURL: {{Title: "Sys Paper."}},
		},
	}

	v := venue("MLSys", searchURL)
	v.Only2024 = true

	records, _, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{v}, types.CollectConfig{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(src.calls) != 1 || src.calls[0] != searchURL {
		t.Errorf("calls = %v, want the search URL exactly once", src.calls)
	}
	if len(records) != 1 || records[0].Year != 2024 {
		t.Errorf("records = %+v, want one record for 2024", records)
	}
}

// --- fallback and soft failure ---

func TestRunFallbackEngaged(t *testing.T) {
	url2025 := "https://dblp.org/db/conf/sosp/sosp2025.html"
	url2024 := "https://dblp.org/db/conf/sosp/sosp2024.html"

	flaky := &stubSource{
		name: "flaky",
		errs: map[string]error{
			url2025: errors.New("refused"),
			url2024: errors.New("refused"),
		},
	}
	steady := &stubSource{
		name: "steady",
		byURL: map[string][]dblp.Publication{
			url2025: {{Title: "Rescued 25."}},
			url2024: {{Title: "Rescued 24."}},
		},
	}

	records, sum, err := Run(context.Background(), []dblp.Source{flaky, steady},
		[]types.VenueDescriptor{venue("SOSP", url2025)}, types.CollectConfig{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Run() returned %d records, want 2", len(records))
	}
	if sum.HasFailures() {
		t.Errorf("fallback succeeded but summary reports failures: %+v", sum)
	}
}

func TestRunListingFailureIsSoft(t *testing.T) {
	good := "https://dblp.org/db/conf/nsdi/nsdi2025.html"
	bad := "https://dblp.org/db/conf/nsdi/nsdi-workshop2025.html"

	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			good: {{Title: "Survivor."}},
		},
		errs: map[string]error{
			bad: errors.New("boom"),
		},
	}

	// Restrict to one year so the failure count is easy to pin down.
	var out bytes.Buffer
	records, sum, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("NSDI", bad, good)},
		types.CollectConfig{Years: []int{2025}}, &out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(records) != 1 || records[0].Title != "Survivor." {
		t.Errorf("records = %+v, want only the good listing's paper", records)
	}
	if sum.Failed != 1 {
		t.Errorf("Failed = %d, want 1", sum.Failed)
	}
	if !bytes.Contains(out.Bytes(), []byte("NSDI")) {
		t.Errorf("progress output should mention the venue, got %q", out.String())
	}
}

// --- limits ---

func TestRunMaxConferences(t *testing.T) {
	first := "https://dblp.org/db/conf/osdi/osdi2025.html"
	second := "https://dblp.org/db/conf/sosp/sosp2025.html"
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			first: {{Title: "Kept."}},
		},
	}

	records, _, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", first), venue("SOSP", second)},
		types.CollectConfig{Years: []int{2025}, MaxConferences: 1}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(records) != 1 || records[0].Conference != "OSDI" {
		t.Errorf("records = %+v, want only the first venue", records)
	}
	for _, call := range src.calls {
		if call == second {
			t.Errorf("second venue was fetched despite MaxConferences=1")
		}
	}
}

func TestRunMaxPapersPerVenueYear(t *testing.T) {
	many := []dblp.Publication{
		{Title: "P1."}, {Title: "P2."}, {Title: "P3."}, {Title: "P4."}, {Title: "P5."},
	}
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			"https://dblp.org/db/conf/osdi/osdi2025.html": many,
			"https://dblp.org/db/conf/osdi/osdi2024.html": many,
		},
	}

	records, _, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", "https://dblp.org/db/conf/osdi/osdi2025.html")},
		types.CollectConfig{MaxPapers: 3}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The cap applies per venue and year, so both sweeps contribute.
	byYear := map[int]int{}
	for _, r := range records {
		byYear[r.Year]++
	}
	if byYear[2025] != 3 || byYear[2024] != 3 {
		t.Errorf("records per year = %v, want 3 for each of 2025 and 2024", byYear)
	}
}

func TestRunMaxPapersSpansURLs(t *testing.T) {
	main := "https://dblp.org/db/conf/usenix/usenix2025.html"
	workshop := "https://dblp.org/db/conf/usenix/usenixw2025.html"
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			main:     {{Title: "M1."}, {Title: "M2."}},
			workshop: {{Title: "W1."}, {Title: "W2."}, {Title: "W3."}},
		},
	}

	records, _, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("ATC", main, workshop)},
		types.CollectConfig{Years: []int{2025}, MaxPapers: 3}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.Title
	}
	want := []string{"M1.", "M2.", "W1."}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

// --- concatenation semantics ---

func TestRunKeepsDuplicates(t *testing.T) {
	first := "https://dblp.org/db/conf/osdi/osdi2025.html"
	second := "https://dblp.org/db/conf/osdi/osdi-extra2025.html"
	same := dblp.Publication{Title: "Twice Listed.", Authors: []string{"Alice Arkwright"}}
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			first:  {same},
			second: {same},
		},
	}

	records, _, err := Run(context.Background(), []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", first, second)},
		types.CollectConfig{Years: []int{2025}}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(records) != 2 {
		t.Errorf("Run() returned %d records, want duplicate kept (2)", len(records))
	}
}

// --- cancellation ---

func TestRunContextCancelledUpfront(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubSource{name: "stub"}
	_, _, err := Run(ctx, []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", "https://dblp.org/db/conf/osdi/osdi2025.html")},
		types.CollectConfig{}, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(src.calls) != 0 {
		t.Errorf("source called %d times after cancellation, want 0", len(src.calls))
	}
}

func TestRunContextCancelledMidRunKeepsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := "https://dblp.org/db/conf/osdi/osdi2025.html"
	src := &stubSource{
		name: "stub",
		byURL: map[string][]dblp.Publication{
			first: {{Title: "Before Cancel."}},
		},
	}
	// Cancel as soon as the first listing has been served.
	src.onCall = func() { cancel() }

	records, _, err := Run(ctx, []dblp.Source{src},
		[]types.VenueDescriptor{venue("OSDI", first)},
		types.CollectConfig{}, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(records) != 1 || records[0].Title != "Before Cancel." {
		t.Errorf("records = %+v, want the pre-cancellation record preserved", records)
	}
}
