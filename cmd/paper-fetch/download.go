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
	"github.com/saucebing/paper-fetch/internal/download"
	"github.com/saucebing/paper-fetch/pkg/types"
)

const (
	defaultDownloadDir = "downloads"
	defaultMinDelay    = 3 * time.Second
	defaultMaxDelay    = 6 * time.Second
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download paper PDFs from venue listing pages",
	Long: `Download renders each venue's listing pages in a headless browser,
follows the per-paper detail links, and saves each paper's PDF as
{ABBREVIATION}_{YEAR}_{title}.pdf. Papers whose file already exists are
skipped, and bodies too small to be a real PDF are rejected.

Venue sites are scraped politely: a random delay separates page loads.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("venues", "", "venue configuration file (default venues.yaml)")
	downloadCmd.Flags().StringP("dir", "d", defaultDownloadDir, "directory to save PDFs into")
	downloadCmd.Flags().Int("max-conferences", 0, "limit the number of venues processed (0 = all)")
	downloadCmd.Flags().Int("max-papers", 0, "limit papers per listing (0 = all)")
	downloadCmd.Flags().Duration("min-delay", 0, "minimum pause between page loads (default 3s)")
	downloadCmd.Flags().Duration("max-delay", 0, "maximum pause between page loads (default 6s)")
	downloadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	venuesFile, _ := cmd.Flags().GetString("venues")
	if venuesFile == "" {
		venuesFile = viper.GetString("venues")
	}
	if venuesFile == "" {
		venuesFile = defaultVenuesFile
	}
	dir, _ := cmd.Flags().GetString("dir")
	maxConferences, _ := cmd.Flags().GetInt("max-conferences")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	minDelay, _ := cmd.Flags().GetDuration("min-delay")
	if minDelay == 0 {
		minDelay = defaultMinDelay
	}
	maxDelay, _ := cmd.Flags().GetDuration("max-delay")
	if maxDelay == 0 {
		maxDelay = defaultMaxDelay
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	venues, err := types.LoadVenues(venuesFile)
	if err != nil {
		return err
	}

	// Unlike collect there is no API fast path; the browser is required.
	execPath, err := browser.FindChrome()
	if err != nil {
		return err
	}
	renderer := &browser.Renderer{ExecPath: execPath}

	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDir:    dir,
		MaxConferences: maxConferences,
		MaxPapers:      maxPapers,
		MinDelay:       minDelay,
		MaxDelay:       maxDelay,
	}

	d := &download.Downloader{
		Render: renderer.HTML,
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := d.Run(ctx, venues, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed to download", result.Failed)
	}
	return nil
}
