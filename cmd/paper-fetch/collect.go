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

	"github.com/saucebing/paper-fetch/internal/browser"
	"github.com/saucebing/paper-fetch/internal/collect"
	"github.com/saucebing/paper-fetch/internal/dblp"
	"github.com/saucebing/paper-fetch/internal/records"
	"github.com/saucebing/paper-fetch/pkg/types"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultUserAgent    = "paper-fetch/0.1"
	defaultListingDelay = 2 * time.Second
	defaultVenuesFile   = "venues.yaml"
	defaultOutput       = "papers.csv"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Harvest paper listings from DBLP into a CSV",
	Long: `Collect reads a venue configuration file and harvests paper metadata
(title, authors, conference, year) from each venue's DBLP listing pages.
The structured export API is tried first; a headless browser render is
the fallback for listings the API refuses. All venues go into a single
CSV, written once at the end of the run.

An interrupted run saves the rows harvested so far to a partial file
next to the output.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().String("venues", "", "venue configuration file (default venues.yaml)")
	collectCmd.Flags().StringP("output", "o", defaultOutput, "output CSV path")
	collectCmd.Flags().Int("max-conferences", 0, "limit the number of venues processed (0 = all)")
	collectCmd.Flags().Int("max-papers", 0, "limit papers kept per venue and year (0 = all)")
	collectCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	collectCmd.Flags().Duration("delay", 0, "pause after each listing fetch (default 2s)")
	collectCmd.Flags().Bool("no-browser", false, "disable the headless browser fallback")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	venuesFile, _ := cmd.Flags().GetString("venues")
	if venuesFile == "" {
		venuesFile = viper.GetString("venues")
	}
	if venuesFile == "" {
		venuesFile = defaultVenuesFile
	}
	output, _ := cmd.Flags().GetString("output")
	maxConferences, _ := cmd.Flags().GetInt("max-conferences")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultListingDelay
	}
	noBrowser, _ := cmd.Flags().GetBool("no-browser")

	venues, err := types.LoadVenues(venuesFile)
	if err != nil {
		return err
	}

	cfg := types.CollectConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		RequestDelay:   delay,
		MaxConferences: maxConferences,
		MaxPapers:      maxPapers,
	}

	client := &http.Client{Timeout: cfg.Timeout}
	sources := []dblp.Source{
		&dblp.APISource{Client: client, UserAgent: cfg.UserAgent},
	}
	if !noBrowser {
		if execPath, err := browser.FindChrome(); err != nil {
			fmt.Fprintf(os.Stderr, "browser fallback unavailable: %v\n", err)
		} else {
			renderer := &browser.Renderer{ExecPath: execPath}
			sources = append(sources, &dblp.BrowserSource{Render: renderer.HTML})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recs, summary, err := collect.Run(ctx, sources, venues, cfg, os.Stdout)
	if err != nil {
		// Keep whatever the interrupted run harvested.
		if len(recs) > 0 {
			partial := records.PartialPath(output)
			if werr := records.Write(partial, recs, records.Base); werr != nil {
				fmt.Fprintf(os.Stderr, "saving partial results: %v\n", werr)
			} else {
				fmt.Fprintf(os.Stdout, "\nInterrupted; saved %d records to %s\n", len(recs), partial)
			}
		}
		return err
	}

	if err := records.Write(output, recs, records.Base); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nSaved %d records from %d venues to %s (%d listings, %d failed)\n",
		len(recs), summary.Venues, output, summary.Listings, summary.Failed)

	if summary.HasFailures() {
		return fmt.Errorf("%d listing(s) produced no records", summary.Failed)
	}
	return nil
}
