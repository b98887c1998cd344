// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/saucebing/paper-fetch/internal/scholar"
	"github.com/saucebing/paper-fetch/pkg/types"
)

// fakeService answers lookups from a function, defaulting to a
// deterministic hit for every title.
type fakeService struct {
	fn    func(title string) (scholar.Enrichment, bool, error)
	calls []string
}

func (f *fakeService) Lookup(_ context.Context, title string) (scholar.Enrichment, bool, error) {
	f.calls = append(f.calls, title)
	if f.fn != nil {
		return f.fn(title)
	}
	return scholar.Enrichment{Abstract: "abstract of " + title, CitationCount: 7}, true, nil
}

// saveRecorder keeps a deep copy of every checkpoint.
type saveRecorder struct {
	snapshots [][]types.PaperRecord
	err       error
}

func (s *saveRecorder) save(records []types.PaperRecord) error {
	if s.err != nil {
		return s.err
	}
	cp := make([]types.PaperRecord, len(records))
	copy(cp, records)
	s.snapshots = append(s.snapshots, cp)
	return nil
}

func makeRecords(n int) []types.PaperRecord {
	records := make([]types.PaperRecord, n)
	for i := range records {
		records[i] = types.PaperRecord{
			Title:      fmt.Sprintf("Paper %03d.", i+1),
			Conference: "OSDI",
			Year:       2025,
		}
	}
	return records
}

// --- checkpoint cadence ---

func TestRunCheckpointCadence(t *testing.T) {
	tests := []struct {
		name       string
		records    int
		wantWrites int
	}{
		{"nothing to process", 0, 0},
		{"below one interval", 5, 1},
		{"exactly one interval", 50, 1},
		{"interval plus remainder", 73, 2},
		{"two exact intervals", 100, 2},
		{"two intervals plus one", 101, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &saveRecorder{}
			sum, err := Run(context.Background(), &fakeService{}, makeRecords(tt.records),
				types.EnrichConfig{}, rec.save, io.Discard)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if sum.Writes != tt.wantWrites {
				t.Errorf("Writes = %d, want %d", sum.Writes, tt.wantWrites)
			}
			if len(rec.snapshots) != tt.wantWrites {
				t.Errorf("recorded %d snapshots, want %d", len(rec.snapshots), tt.wantWrites)
			}
			if sum.Processed != tt.records {
				t.Errorf("Processed = %d, want %d", sum.Processed, tt.records)
			}
		})
	}
}

func TestRunCheckpointSnapshotsFullTable(t *testing.T) {
	rec := &saveRecorder{}
	sum, err := Run(context.Background(), &fakeService{}, makeRecords(73),
		types.EnrichConfig{}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Enriched != 73 {
		t.Errorf("Enriched = %d, want 73", sum.Enriched)
	}

	// The first checkpoint holds all 73 rows: the first 50 enriched,
	// the rest still untouched.
	first := rec.snapshots[0]
	if len(first) != 73 {
		t.Fatalf("first snapshot has %d rows, want the full table (73)", len(first))
	}
	if first[49].Abstract == "" {
		t.Error("row 50 should be enriched in the first checkpoint")
	}
	if first[50].Abstract != "" {
		t.Error("row 51 should still be empty in the first checkpoint")
	}

	final := rec.snapshots[1]
	if final[72].Abstract == "" {
		t.Error("last row should be enriched in the final flush")
	}
}

func TestRunCustomInterval(t *testing.T) {
	rec := &saveRecorder{}
	sum, err := Run(context.Background(), &fakeService{}, makeRecords(10),
		types.EnrichConfig{CheckpointInterval: 4}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// 4 + 4 + final flush of the trailing 2.
	if sum.Writes != 3 {
		t.Errorf("Writes = %d, want 3", sum.Writes)
	}
}

// --- resume window ---

func TestRunResumeWindow(t *testing.T) {
	records := makeRecords(20)
	svc := &fakeService{}
	rec := &saveRecorder{}

	sum, err := Run(context.Background(), svc, records,
		types.EnrichConfig{StartFrom: 10, MaxPapers: 5}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(svc.calls) != 5 {
		t.Fatalf("looked up %d rows, want 5", len(svc.calls))
	}
	if svc.calls[0] != "Paper 011." || svc.calls[4] != "Paper 015." {
		t.Errorf("calls = %v, want rows 11 through 15", svc.calls)
	}

	for i, r := range records {
		inWindow := i >= 10 && i < 15
		if inWindow && r.Abstract == "" {
			t.Errorf("row %d inside the window was not enriched", i)
		}
		if !inWindow && r.Abstract != "" {
			t.Errorf("row %d outside the window was modified", i)
		}
	}

	if sum.Writes != 1 {
		t.Errorf("Writes = %d, want 1", sum.Writes)
	}
	if len(rec.snapshots[0]) != 20 {
		t.Errorf("checkpoint has %d rows, want the full table (20)", len(rec.snapshots[0]))
	}
}

func TestRunStartFromPastEnd(t *testing.T) {
	svc := &fakeService{}
	rec := &saveRecorder{}

	sum, err := Run(context.Background(), svc, makeRecords(5),
		types.EnrichConfig{StartFrom: 10}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Writes != 0 || sum.Processed != 0 {
		t.Errorf("summary = %+v, want no processing and no writes", sum)
	}
	if len(svc.calls) != 0 {
		t.Errorf("service called %d times, want 0", len(svc.calls))
	}
}

// --- soft failure ---

func TestRunLookupFailuresAreSoft(t *testing.T) {
	svc := &fakeService{fn: func(title string) (scholar.Enrichment, bool, error) {
		switch title {
		case "Paper 001.":
			return scholar.Enrichment{}, false, errors.New("API down")
		case "Paper 002.":
			return scholar.Enrichment{}, false, nil
		default:
			return scholar.Enrichment{Abstract: "found", CitationCount: 1}, true, nil
		}
	}}
	records := makeRecords(3)
	rec := &saveRecorder{}

	sum, err := Run(context.Background(), svc, records, types.EnrichConfig{}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Missed != 2 || sum.Enriched != 1 {
		t.Errorf("summary = %+v, want 2 missed and 1 enriched", sum)
	}
	if records[0].Abstract != "" || records[0].CitationCount != 0 {
		t.Errorf("failed row = %+v, want empty enrichment fields", records[0])
	}
	if records[2].Abstract != "found" {
		t.Errorf("healthy row = %+v, want enrichment applied", records[2])
	}
}

func TestRunMissClearsStaleValues(t *testing.T) {
	records := makeRecords(1)
	records[0].Abstract = "stale abstract"
	records[0].CitationCount = 99

	svc := &fakeService{fn: func(string) (scholar.Enrichment, bool, error) {
		return scholar.Enrichment{}, false, nil
	}}

	if _, err := Run(context.Background(), svc, records, types.EnrichConfig{}, (&saveRecorder{}).save, io.Discard); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if records[0].Abstract != "" || records[0].CitationCount != 0 {
		t.Errorf("record = %+v, want stale values cleared on miss", records[0])
	}
}

// --- skip existing ---

func TestRunSkipExisting(t *testing.T) {
	records := makeRecords(3)
	records[1].Abstract = "already here"
	records[1].CitationCount = 12

	svc := &fakeService{}
	sum, err := Run(context.Background(), svc, records,
		types.EnrichConfig{SkipExisting: true}, (&saveRecorder{}).save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Skipped != 1 || sum.Processed != 2 {
		t.Errorf("summary = %+v, want 1 skipped and 2 processed", sum)
	}
	for _, call := range svc.calls {
		if call == "Paper 002." {
			t.Error("pre-enriched row was looked up despite SkipExisting")
		}
	}
	if records[1].Abstract != "already here" || records[1].CitationCount != 12 {
		t.Errorf("skipped row = %+v, want it untouched", records[1])
	}
}

func TestRunAllSkippedWritesNothing(t *testing.T) {
	records := makeRecords(4)
	for i := range records {
		records[i].Abstract = "done"
	}

	rec := &saveRecorder{}
	sum, err := Run(context.Background(), &fakeService{}, records,
		types.EnrichConfig{SkipExisting: true}, rec.save, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Writes != 0 {
		t.Errorf("Writes = %d, want 0 when every row was skipped", sum.Writes)
	}
}

// --- cancellation ---

func TestRunCancelFlushesPendingRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var served int
	svc := &fakeService{fn: func(title string) (scholar.Enrichment, bool, error) {
		served++
		if served == 3 {
			cancel()
		}
		return scholar.Enrichment{Abstract: "a", CitationCount: 1}, true, nil
	}}

	rec := &saveRecorder{}
	sum, err := Run(ctx, svc, makeRecords(10), types.EnrichConfig{}, rec.save, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	if sum.Processed != 3 {
		t.Errorf("Processed = %d, want 3", sum.Processed)
	}
	if sum.Writes != 1 {
		t.Errorf("Writes = %d, want the pending rows flushed once", sum.Writes)
	}
	if got := rec.snapshots[0][2].Abstract; got == "" {
		t.Error("third row should be enriched in the cancellation flush")
	}
}

func TestRunCancelledUpfrontWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &saveRecorder{}
	svc := &fakeService{}
	sum, err := Run(ctx, svc, makeRecords(10), types.EnrichConfig{}, rec.save, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if sum.Writes != 0 || len(svc.calls) != 0 {
		t.Errorf("summary = %+v with %d lookups, want no work at all", sum, len(svc.calls))
	}
}

// --- checkpoint failure ---

func TestRunSaveErrorAborts(t *testing.T) {
	rec := &saveRecorder{err: errors.New("disk full")}
	_, err := Run(context.Background(), &fakeService{}, makeRecords(60),
		types.EnrichConfig{}, rec.save, io.Discard)
	if err == nil {
		t.Fatal("Run() expected error when a checkpoint cannot be written")
	}
}
