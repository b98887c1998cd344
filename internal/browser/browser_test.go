// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// --- candidate paths ---

func TestFindChromeUsesCandidatePath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chrome")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	oldCandidates := chromeCandidates
	oldLook := lookPath
	chromeCandidates = []string{bin}
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	defer func() {
		chromeCandidates = oldCandidates
		lookPath = oldLook
	}()

	got, err := FindChrome()
	if err != nil {
		t.Fatalf("FindChrome() error = %v", err)
	}
	if got != bin {
		t.Errorf("FindChrome() = %q, want %q", got, bin)
	}
}

func TestFindChromeSkipsDirectoryCandidate(t *testing.T) {
	dir := t.TempDir()

	oldCandidates := chromeCandidates
	oldLook := lookPath
	chromeCandidates = []string{dir}
	lookPath = func(name string) (string, error) {
		if name == "chromium" {
			return "/opt/bin/chromium", nil
		}
		return "", errors.New("not found")
	}
	defer func() {
		chromeCandidates = oldCandidates
		lookPath = oldLook
	}()

	got, err := FindChrome()
	if err != nil {
		t.Fatalf("FindChrome() error = %v", err)
	}
	if got != "/opt/bin/chromium" {
		t.Errorf("FindChrome() = %q, want %q", got, "/opt/bin/chromium")
	}
}

// --- PATH fallback ---

func TestFindChromePathLookup(t *testing.T) {
	oldCandidates := chromeCandidates
	oldLook := lookPath
	chromeCandidates = nil
	lookPath = func(name string) (string, error) {
		if name == "google-chrome" {
			return "/usr/local/bin/google-chrome", nil
		}
		return "", errors.New("not found")
	}
	defer func() {
		chromeCandidates = oldCandidates
		lookPath = oldLook
	}()

	got, err := FindChrome()
	if err != nil {
		t.Fatalf("FindChrome() error = %v", err)
	}
	if got != "/usr/local/bin/google-chrome" {
		t.Errorf("FindChrome() = %q, want %q", got, "/usr/local/bin/google-chrome")
	}
}

func TestFindChromeNotFound(t *testing.T) {
	oldCandidates := chromeCandidates
	oldLook := lookPath
	chromeCandidates = nil
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	defer func() {
		chromeCandidates = oldCandidates
		lookPath = oldLook
	}()

	if _, err := FindChrome(); err == nil {
		t.Error("FindChrome() expected error when no binary exists")
	}
}
