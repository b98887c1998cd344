// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser renders JavaScript-heavy pages through a headless
// Chrome so listing pages that assemble their content client-side can
// still be scraped.
package browser

import (
	"errors"
	"os"
	"os/exec"
)

// lookPath is swapped in tests to simulate PATH contents.
var lookPath = exec.LookPath

// chromeCandidates lists well-known install locations checked before
// falling back to PATH lookup.
var chromeCandidates = []string{
	"/root/chrome-linux64/chrome",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium-browser",
	"/usr/bin/chrome",
}

// FindChrome returns the path of a usable Chrome or Chromium binary.
// Known install locations are tried first, then PATH. An empty path
// with an error means no browser is available and rendered fallback
// should be skipped.
func FindChrome() (string, error) {
	for _, path := range chromeCandidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	for _, name := range []string{"google-chrome", "chromium-browser", "chromium", "chrome"} {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no chrome or chromium binary found")
}
