// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// VenueDescriptor describes one tracked conference: where its listings
// live on DBLP and which years apply. Descriptors are static
// configuration; they are loaded once and never mutated at runtime.
type VenueDescriptor struct {
	// ID is a stable numeric identifier for the venue.
	ID int `json:"id" yaml:"id"`

	// Abbreviation is the short venue code used in output records
	// (e.g. "OSDI").
	Abbreviation string `json:"abbreviation" yaml:"abbreviation"`

	// FullName is the venue's full name.
	FullName string `json:"full_name" yaml:"full_name"`

	// Publisher names the organization publishing the proceedings.
	Publisher string `json:"publisher" yaml:"publisher"`

	// Direction is a free-form research direction tag.
	Direction string `json:"direction" yaml:"direction"`

	// DBLPURLs lists one or more listing URLs for the most recent year.
	// Venues split across tracks declare one URL per track; results are
	// concatenated.
	DBLPURLs []string `json:"dblp_urls" yaml:"dblp_urls"`

	// Only2024 marks venues that have no listing beyond 2024. Such
	// venues are processed for 2024 only and their URLs are taken
	// as-is, with no year substitution.
	Only2024 bool `json:"only_2024,omitempty" yaml:"only_2024,omitempty"`
}

// DefaultYears is the standard year sweep: the current cycle first,
// then the previous one.
var DefaultYears = []int{2025, 2024}

// Years returns the years to process for this venue, given the
// configured year list (most recent first). Only2024 venues collapse
// to just 2024.
func (v VenueDescriptor) Years(configured []int) []int {
	if v.Only2024 {
		return []int{2024}
	}
	return configured
}

// URLForYear derives the listing URL for a prior year by substituting
// the base (most recent) year's digits. Search-style URLs already
// carry their own year scoping and are returned unchanged, as are URLs
// that do not mention the base year.
func URLForYear(url string, baseYear, year int) string {
	if year == baseYear || strings.Contains(url, "search") {
		return url
	}
	return strings.ReplaceAll(url, strconv.Itoa(baseYear), strconv.Itoa(year))
}

// LoadVenues reads a venue descriptor list from a YAML file. JSON
// input parses too, since YAML supersets it. The list is validated:
// every venue needs an abbreviation and at least one URL.
func LoadVenues(path string) ([]VenueDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venue config: %w", err)
	}
	var venues []VenueDescriptor
	if err := yaml.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("parsing venue config %s: %w", path, err)
	}
	for i, v := range venues {
		if v.Abbreviation == "" {
			return nil, fmt.Errorf("venue %d in %s has no abbreviation", i, path)
		}
		if len(v.DBLPURLs) == 0 {
			return nil, fmt.Errorf("venue %s has no dblp_urls", v.Abbreviation)
		}
	}
	return venues, nil
}
