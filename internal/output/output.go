// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output serializes retained articles as CSV, JSON or YAML.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-papers/pkg/types"
)

// DefaultSeparator joins multi-valued CSV cells.
const DefaultSeparator = "; "

// Header is the CSV header row.
var Header = []string{
	"PubmedID",
	"Title",
	"Publication Date",
	"Non-academic Author(s)",
	"Company Affiliation(s)",
	"Corresponding Author Email",
}

// Record is the row written for one article. JSON and YAML keep the
// multi-valued columns as lists.
type Record struct {
	PubmedID           string   `json:"pubmed_id" yaml:"pubmed_id"`
	Title              string   `json:"title" yaml:"title"`
	PublicationDate    string   `json:"publication_date" yaml:"publication_date"`
	CompanyAuthors     []string `json:"non_academic_authors" yaml:"non_academic_authors"`
	CompanyNames       []string `json:"company_affiliations" yaml:"company_affiliations"`
	CorrespondingEmail string   `json:"corresponding_author_email" yaml:"corresponding_author_email"`
}

// NewRecord flattens an assembled article. Nil sets become empty lists.
func NewRecord(a *types.Article) Record {
	return Record{
		PubmedID:           a.ID,
		Title:              a.Title,
		PublicationDate:    a.DateString(),
		CompanyAuthors:     nonNil(a.CompanyAuthors),
		CompanyNames:       nonNil(a.CompanyNames),
		CorrespondingEmail: a.CorrespondingEmail,
	}
}

func records(articles []types.Article) []Record {
	out := make([]Record, len(articles))
	for i := range articles {
		out[i] = NewRecord(&articles[i])
	}
	return out
}

// WriteCSV writes the header row followed by one row per article. An empty
// separator uses DefaultSeparator.
func WriteCSV(w io.Writer, articles []types.Article, separator string) error {
	if separator == "" {
		separator = DefaultSeparator
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records(articles) {
		row := []string{
			r.PubmedID,
			r.Title,
			r.PublicationDate,
			strings.Join(r.CompanyAuthors, separator),
			strings.Join(r.CompanyNames, separator),
			r.CorrespondingEmail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.PubmedID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, articles []types.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records(articles)); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the records as a YAML sequence.
func WriteYAML(w io.Writer, articles []types.Article) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records(articles)); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

// Write dispatches on format. An empty format means CSV.
func Write(w io.Writer, format types.OutputFormat, articles []types.Article, separator string) error {
	switch format {
	case types.OutputCSV, "":
		return WriteCSV(w, articles, separator)
	case types.OutputJSON:
		return WriteJSON(w, articles)
	case types.OutputYAML:
		return WriteYAML(w, articles)
	default:
		return fmt.Errorf("unknown output format %q (want csv, json or yaml)", format)
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (types.OutputFormat, error) {
	f := types.OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return types.OutputCSV, nil
	case types.OutputCSV, types.OutputJSON, types.OutputYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv, json or yaml)", s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
