// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-papers/internal/output"
	"github.com/pdiddy/company-papers/internal/store"
	"github.com/pdiddy/company-papers/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show papers and runs recorded in the store",
	Long: `History reads the configured store (--store-driver and --store-dsn, or the
store section of the config file) and prints the most recently updated papers,
or the most recent runs with --runs.`,
	Example: `  get-papers-list history --store-driver sqlite3 --store-dsn papers.db
  get-papers-list history --runs --limit 10 --store-driver sqlite3 --store-dsn papers.db`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Bool("runs", false, "list runs instead of papers")
	historyCmd.Flags().Int("limit", 50, "maximum number of rows")
	historyCmd.Flags().String("format", "csv", "output format: csv, json or yaml")

	rootCmd.AddCommand(historyCmd)
}

var errNoStore = errors.New("no store configured: set --store-driver and --store-dsn")

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Store.Driver == "" {
		return errNoStore
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if showRuns, _ := cmd.Flags().GetBool("runs"); showRuns {
		runs, err := s.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return writeRuns(cmd.OutOrStdout(), format, runs)
	}

	articles, err := s.Articles(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, articles, cfg.Output.Separator)
}

// writeRuns prints runs as a table for csv, or encoded for json and yaml.
func writeRuns(w io.Writer, format types.OutputFormat, runs []types.Run) error {
	if runs == nil {
		runs = []types.Run{}
	}
	switch format {
	case types.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case types.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(runs); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSEARCHED\tFETCHED\tRETAINED\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Searched, r.Fetched, r.Retained, r.Query)
	}
	return tw.Flush()
}
