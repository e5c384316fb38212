// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the get-papers-list CLI: it searches
// PubMed and lists the papers that have at least one author affiliated with
// a pharmaceutical or biotech company.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/company-papers/internal/app"
	"github.com/pdiddy/company-papers/internal/config"
	"github.com/pdiddy/company-papers/internal/logging"
	"github.com/pdiddy/company-papers/internal/output"
	"github.com/pdiddy/company-papers/internal/pipeline"
	"github.com/pdiddy/company-papers/internal/secrets"
	"github.com/pdiddy/company-papers/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// flagBindings maps flag names to config keys. Flags override the config
// file and the environment when given.
var flagBindings = map[string]string{
	"max-results":     "pubmed.max_results",
	"email":           "pubmed.email",
	"api-key":         "pubmed.api_key",
	"file":            "output.file",
	"format":          "output.format",
	"separator":       "output.separator",
	"lexicon":         "classifier.lexicon_file",
	"replace-lexicon": "classifier.replace_defaults",
	"workers":         "classifier.workers",
	"store-driver":    "store.driver",
	"store-dsn":       "store.dsn",
	"log-format":      "logging.format",
}

var rootCmd = &cobra.Command{
	Use:   "get-papers-list QUERY",
	Short: "List PubMed papers with pharmaceutical or biotech company authors",
	Long: `get-papers-list runs QUERY against PubMed (full PubMed query syntax is
supported), classifies every author affiliation, and keeps the papers with at
least one company-affiliated author.

Results are written as CSV to stdout, or to the file given with --file.
Progress and logs go to stderr.`,
	Example: `  get-papers-list "cancer AND drug therapy"
  get-papers-list "COVID-19 AND vaccine" --file results.csv
  get-papers-list "diabetes[MeSH] AND 2023[PDAT]" --debug`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runQuery,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./get-papers-list.yaml or ~/.config/get-papers-list/get-papers-list.yaml)")
	pf.BoolP("debug", "d", false, "print debug information during execution")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding ncbi-api-key and ncbi-email files")
	pf.String("lexicon", "", "YAML lexicon file extending the built-in tables")
	pf.Bool("replace-lexicon", false, "make --lexicon replace the built-in tables")
	pf.String("store-driver", "", "persist runs to a database: sqlite3 or mysql")
	pf.String("store-dsn", "", "database file (sqlite3) or DSN (mysql)")

	f := rootCmd.Flags()
	f.StringP("file", "f", "", "write results to this file instead of stdout")
	f.Int("max-results", 100, "maximum number of PubMed results to examine")
	f.String("email", "", "contact email sent to NCBI with each request")
	f.String("api-key", "", "NCBI API key (raises the rate limit to 10 requests/s)")
	f.String("format", "csv", "output format: csv, json or yaml")
	f.String("separator", output.DefaultSeparator, "separator for multi-valued CSV cells")
	f.Int("workers", 0, "concurrent article classification workers (default: number of CPUs)")
	f.Bool("skip-seen", false, "skip papers already recorded in the store")
}

// loadConfig resolves the configuration for cmd, builds the logger, and
// fills NCBI credentials from the secrets directory when not set otherwise.
func loadConfig(cmd *cobra.Command) (types.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(cfgFile)
	if err != nil {
		return types.Config{}, nil, err
	}
	if err := config.BindFlags(v, cmd.Flags(), flagBindings); err != nil {
		return types.Config{}, nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return types.Config{}, nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return types.Config{}, nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(dir, logger)
	if err != nil {
		return types.Config{}, nil, err
	}
	s.ApplyPubMed(&cfg.PubMed)
	return cfg, logger, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	skipSeen, _ := cmd.Flags().GetBool("skip-seen")

	a, err := app.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	status := cmd.ErrOrStderr()
	fmt.Fprintf(status, "Searching PubMed for: %s\n", query)

	res, err := a.Runner.Run(cmd.Context(), pipeline.Request{
		Query:      query,
		MaxResults: cfg.PubMed.MaxResults,
		SkipSeen:   skipSeen,
	})
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		fmt.Fprintf(status, "Skipped %d papers already in the store.\n", res.Skipped)
	}
	if len(res.Articles) == 0 {
		fmt.Fprintln(status, "No papers with company affiliations found.")
		return nil
	}
	fmt.Fprintf(status, "Found %d papers with company affiliations.\n", len(res.Articles))

	return writeResults(cmd.OutOrStdout(), status, cfg.Output, res.Articles)
}

// writeResults writes articles to cfg.File, or to stdout when no file is set.
func writeResults(stdout, status io.Writer, cfg types.OutputConfig, articles []types.Article) error {
	if cfg.File == "" {
		return output.Write(stdout, cfg.Format, articles, cfg.Separator)
	}

	f, err := os.Create(cfg.File)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.File, err)
	}
	if err := output.Write(f, cfg.Format, articles, cfg.Separator); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", cfg.File, err)
	}
	fmt.Fprintf(status, "Results saved to %s\n", cfg.File)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
