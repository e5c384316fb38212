// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/company-papers/internal/affiliation"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Print the effective classification lexicon as YAML",
	Long: `Lexicon prints the tables the classifier uses: the built-in ones, merged
with or replaced by --lexicon. The output is a valid lexicon file and can be
edited and passed back with --lexicon --replace-lexicon.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		lex, err := affiliation.EffectiveLexicon(cfg.Classifier)
		if err != nil {
			return err
		}
		// Reject tables that would not compile before printing them.
		if _, err := affiliation.New(lex); err != nil {
			return err
		}
		data, err := lex.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
}
