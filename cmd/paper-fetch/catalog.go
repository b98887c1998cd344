// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saucebing/paper-fetch/internal/catalog"
	"github.com/saucebing/paper-fetch/internal/records"
	"github.com/saucebing/paper-fetch/pkg/types"
)

const defaultDBPath = "catalog.db"

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local paper catalog (load, query, stats, export)",
	Long: `Catalog keeps harvested paper tables in a local SQLite database with
full-text search over titles and abstracts. Use subcommands to load a
CSV, query it, summarize it, or export it.`,
}

// --- load subcommand ---

var catalogLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a harvested CSV into the catalog",
	Long: `Load upserts a collected or enriched CSV into the catalog database.
Records are keyed by (title, conference, year); loading an enriched
file refreshes the enrichment columns of rows loaded earlier.`,
	RunE: runCatalogLoad,
}

func runCatalogLoad(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")

	recs, err := records.Read(input)
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Load(context.Background(), recs, os.Stdout); err != nil {
		return err
	}
	return nil
}

// --- query subcommand ---

var catalogQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the catalog with full-text search and filters",
	Long: `Query searches the catalog using FTS5 full-text search over titles and
abstracts, structured filters (conference, year, citations), or a
combination of both.`,
	RunE: runCatalogQuery,
}

func runCatalogQuery(cmd *cobra.Command, args []string) error {
	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --conference, --year, or --min-citations")
	}

	results, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []types.PaperRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-60s  %-10s  %-5s  %s\n",
		"Rank", "Title", "Conference", "Year", "Citations")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 95))

	for i, r := range results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-60s  %-10s  %-5d  %d\n",
			i+1, title, r.Conference, r.Year, r.CitationCount)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- stats subcommand ---

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize catalog contents per venue",
	RunE:  runCatalogStats,
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%d papers, %d with abstracts, %d citations total\n\n",
		stats.Papers, stats.WithAbstract, stats.Citations)

	if len(stats.Venues) == 0 {
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-12s  %-5s  %-7s  %s\n", "Conference", "Year", "Papers", "Citations")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 40))
	for _, v := range stats.Venues {
		fmt.Fprintf(os.Stdout, "%-12s  %-5d  %-7d  %d\n", v.Conference, v.Year, v.Papers, v.Citations)
	}
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes the full catalog (or a filtered subset) to a YAML or
JSON file. Supports the same filter flags as query.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if output == "" {
			output = "catalog_export.yaml"
		}
		if err := store.ExportYAML(context.Background(), output, opts); err != nil {
			return err
		}
	case "json":
		if output == "" {
			output = "catalog_export.json"
		}
		if err := store.ExportJSON(context.Background(), output, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	fmt.Printf("Exported to %s\n", output)
	return nil
}

// --- shared helpers ---

func catalogConfig(cmd *cobra.Command) types.CatalogConfig {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.CatalogConfig{
		DBPath:     dbPath,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) catalog.QueryOptions {
	text, _ := cmd.Flags().GetString("text")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}

	conference, _ := cmd.Flags().GetString("conference")
	year, _ := cmd.Flags().GetInt("year")
	minCitations, _ := cmd.Flags().GetInt("min-citations")
	limit, _ := cmd.Flags().GetInt("limit")

	return catalog.QueryOptions{
		Text:         text,
		Conference:   conference,
		Year:         year,
		MinCitations: minCitations,
		MaxResults:   limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("db", defaultDBPath, "catalog database path")
	catalogCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Load flags.
	catalogLoadCmd.Flags().StringP("input", "i", defaultEnrichedOutput, "CSV file to load")

	// Query flags.
	catalogQueryCmd.Flags().String("text", "", "full-text search over titles and abstracts")
	catalogQueryCmd.Flags().String("conference", "", "filter by venue abbreviation")
	catalogQueryCmd.Flags().Int("year", 0, "filter by edition year")
	catalogQueryCmd.Flags().Int("min-citations", 0, "drop papers below this citation count")
	catalogQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().StringP("output", "o", "", "output file (default catalog_export.yaml or .json)")
	catalogExportCmd.Flags().String("text", "", "full-text search filter for partial export")
	catalogExportCmd.Flags().String("conference", "", "filter by venue abbreviation")
	catalogExportCmd.Flags().Int("year", 0, "filter by edition year")
	catalogExportCmd.Flags().Int("min-citations", 0, "drop papers below this citation count")
	catalogExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogQueryCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
