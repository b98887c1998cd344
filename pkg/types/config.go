package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-fetch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectConfig holds settings for the collection stage.
type CollectConfig struct {
	HTTPConfig `yaml:",inline"`

	// Years lists the edition years to process, most recent first
	// (default [2025, 2024]). The first entry is the year the
	// configured listing URLs point at; URLs for later entries are
	// derived by substitution.
	Years []int `json:"years" yaml:"years"`

	// RequestDelay is the pause between consecutive listing fetches
	// (default 2s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxConferences caps how many venues are processed. Zero means all.
	MaxConferences int `json:"max_conferences" yaml:"max_conferences"`

	// MaxPapers caps records kept per (venue, year) pair after
	// multi-URL concatenation. Zero means all.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`
}

// EnrichConfig holds settings for the enrichment stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the Semantic Scholar API key. Optional; without it the
	// public rate limits apply.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestInterval is the minimum spacing between consecutive
	// lookup requests (default 1.1s). Enforced as a blocking delay.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// CheckpointInterval is the number of processed rows between full
	// table writes (default 50).
	CheckpointInterval int `json:"checkpoint_interval" yaml:"checkpoint_interval"`

	// StartFrom is the 0-indexed row to resume from.
	StartFrom int `json:"start_from" yaml:"start_from"`

	// MaxPapers caps how many rows are processed from StartFrom
	// onward. Zero means all remaining.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// SkipExisting skips rows whose abstract is already non-empty
	// instead of looking them up again.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// Affiliations additionally resolves author affiliations for each
	// matched paper. Costs one extra request per author.
	Affiliations bool `json:"affiliations" yaml:"affiliations"`

	// MaxAffiliationAuthors limits affiliation lookups to the first n
	// authors of each paper. Zero means all authors.
	MaxAffiliationAuthors int `json:"max_affiliation_authors" yaml:"max_affiliation_authors"`
}

// DownloadConfig holds settings for the PDF download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is where PDFs are written.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// Years lists the edition years to process, most recent first.
	Years []int `json:"years" yaml:"years"`

	// MaxConferences caps how many venues are processed. Zero means all.
	MaxConferences int `json:"max_conferences" yaml:"max_conferences"`

	// MaxPapers caps papers downloaded per listing. Zero means all.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// MinDelay and MaxDelay bound the randomized pause between
	// consecutive paper downloads (defaults 3s and 6s).
	MinDelay time.Duration `json:"min_delay" yaml:"min_delay"`
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`

	// MinPDFSize is the smallest accepted download in bytes; anything
	// smaller is discarded as an error page (default 1000).
	MinPDFSize int64 `json:"min_pdf_size" yaml:"min_pdf_size"`
}

// CatalogConfig holds settings for the local catalog stage.
type CatalogConfig struct {
	// DBPath is the SQLite database file (default "catalog.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
