// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/company-papers/internal/affiliation"
)

var classifyCmd = &cobra.Command{
	Use:   "classify AFFILIATION",
	Short: "Explain how one affiliation string is classified",
	Long: `Classify runs the affiliation classifier on a single affiliation (and
optional email) and prints the decision, the rule that made it, the matched
academic and company fragments, and the extracted company names. Use it to
check a lexicon change without querying PubMed.`,
	Example: `  get-papers-list classify "Pfizer Inc., New York, NY"
  get-papers-list classify "Harvard University" --author-email jdoe@modernatx.com`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("author-email", "", "author email address")
	classifyCmd.Flags().Bool("json", false, "output the verdict as JSON")

	rootCmd.AddCommand(classifyCmd)
}

// classification is the classify command's report.
type classification struct {
	Affiliation string              `json:"affiliation"`
	Email       string              `json:"email,omitempty"`
	Verdict     affiliation.Verdict `json:"verdict"`
	Companies   []string            `json:"companies"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := affiliation.FromConfig(cfg.Classifier)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("author-email")
	report := classify(c, args[0], email)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printClassification(cmd.OutOrStdout(), report)
	return nil
}

func classify(c *affiliation.Classifier, aff, email string) classification {
	companies := c.ExtractCompanyNames(aff)
	if companies == nil {
		companies = []string{}
	}
	return classification{
		Affiliation: aff,
		Email:       email,
		Verdict:     c.Classify(aff, email),
		Companies:   companies,
	}
}

func printClassification(w io.Writer, r classification) {
	answer := "no"
	if r.Verdict.Company {
		answer = "yes"
	}
	fmt.Fprintf(w, "Company affiliated: %s\n", answer)
	fmt.Fprintf(w, "Rule:               %s\n", r.Verdict.Reason)
	fmt.Fprintf(w, "Academic score:     %d %s\n", r.Verdict.AcademicScore, bracket(r.Verdict.AcademicMatches))
	fmt.Fprintf(w, "Company score:      %d %s\n", r.Verdict.CompanyScore, bracket(r.Verdict.CompanyMatches))
	fmt.Fprintf(w, "Companies:          %s\n", strings.Join(r.Companies, "; "))
}

func bracket(matches []string) string {
	if len(matches) == 0 {
		return ""
	}
	return "[" + strings.Join(matches, ", ") + "]"
}
