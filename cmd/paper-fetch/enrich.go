package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saucebing/paper-fetch/internal/enrich"
	"github.com/saucebing/paper-fetch/internal/records"
	"github.com/saucebing/paper-fetch/internal/scholar"
	"github.com/saucebing/paper-fetch/internal/secrets"
	"github.com/saucebing/paper-fetch/pkg/types"
)

const (
	defaultEnrichedOutput  = "papers_enriched.csv"
	defaultRequestInterval = 1100 * time.Millisecond

	// semanticScholarKeyFile is the .secrets/ file name holding the API key.
	semanticScholarKeyFile = "semantic-scholar-api-key"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add abstracts and citation counts from Semantic Scholar",
	Long: `Enrich reads a collected CSV and looks every title up in the Semantic
Scholar search API, merging the best match's abstract and citation count
into the table. Lookups that fail or find nothing leave the row with
empty enrichment fields; the run never stops for a single title.

Requests are spaced at least the configured interval apart. The full
table is checkpointed to the output file every 50 processed rows and
once more at the end, so an interrupted run can resume with
--start-from.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringP("input", "i", defaultOutput, "input CSV from the collect stage")
	enrichCmd.Flags().StringP("output", "o", defaultEnrichedOutput, "output CSV path")
	enrichCmd.Flags().Int("start-from", 0, "row index to resume from (0-based)")
	enrichCmd.Flags().Int("max-papers", 0, "limit rows processed this run (0 = all)")
	enrichCmd.Flags().Bool("skip-existing", false, "skip rows that already have an abstract")
	enrichCmd.Flags().Bool("affiliations", false, "also look up author affiliations (one extra request per author)")
	enrichCmd.Flags().Int("max-affiliation-authors", 0, "bound affiliation lookups per paper (0 = all authors)")
	enrichCmd.Flags().String("api-key", "", "Semantic Scholar API key (default from .secrets/"+semanticScholarKeyFile+")")
	enrichCmd.Flags().Duration("interval", 0, "minimum spacing between API requests (default 1.1s)")
	enrichCmd.Flags().Int("checkpoint-interval", 0, "rows between checkpoint writes (default 50)")
	enrichCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	startFrom, _ := cmd.Flags().GetInt("start-from")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	affiliations, _ := cmd.Flags().GetBool("affiliations")
	maxAffiliationAuthors, _ := cmd.Flags().GetInt("max-affiliation-authors")
	checkpointInterval, _ := cmd.Flags().GetInt("checkpoint-interval")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval == 0 {
		interval = defaultRequestInterval
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = secrets.Value(loadedSecrets, semanticScholarKeyFile, viper.GetString("api_key"))
	}

	papers, err := records.Read(input)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return fmt.Errorf("no records in %s", input)
	}
	fmt.Fprintf(os.Stdout, "Enriching %d records from %s\n", len(papers), input)

	cfg := types.EnrichConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		APIKey:                apiKey,
		RequestInterval:       interval,
		CheckpointInterval:    checkpointInterval,
		StartFrom:             startFrom,
		MaxPapers:             maxPapers,
		SkipExisting:          skipExisting,
		Affiliations:          affiliations,
		MaxAffiliationAuthors: maxAffiliationAuthors,
	}

	svc := &scholar.Client{
		Client:                &http.Client{Timeout: cfg.Timeout},
		APIKey:                cfg.APIKey,
		UserAgent:             cfg.UserAgent,
		MinInterval:           cfg.RequestInterval,
		Affiliations:          cfg.Affiliations,
		MaxAffiliationAuthors: cfg.MaxAffiliationAuthors,
	}

	cols := records.Enriched
	if affiliations {
		cols = records.EnrichedAffiliations
	}
	save := func(recs []types.PaperRecord) error {
		return records.Write(output, recs, cols)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := enrich.Run(ctx, svc, papers, cfg, save, os.Stdout)
	fmt.Fprintf(os.Stdout, "\nEnrichment summary: %d processed, %d enriched, %d missed, %d skipped (%d writes to %s)\n",
		summary.Processed, summary.Enriched, summary.Missed, summary.Skipped, summary.Writes, output)
	if err != nil {
		return err
	}
	return nil
}
