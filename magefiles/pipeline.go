package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Collect builds the CLI and harvests the configured venues into papers.csv.
func Collect() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "collect")
}

// Enrich builds the CLI and adds Semantic Scholar data to the harvested CSV.
func Enrich() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "enrich")
}

// Download builds the CLI and fetches PDFs for the configured venues.
func Download() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "download")
}
