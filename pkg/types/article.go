// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the company-papers pipeline:
// authors and articles as harvested from PubMed, pipeline runs, and
// configuration for each stage.
package types

import "time"

// Author is a single entry of an article's author list. Empty strings mean
// the source record carried no value.
type Author struct {
	// Name is the display name, "Last, Fore" or a collective name.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the first affiliation string attached to the author, trimmed.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// Email is an address found in the affiliation text, if any.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// IsCorresponding is set when the affiliation mentions "corresponding".
	IsCorresponding bool `json:"is_corresponding" yaml:"is_corresponding"`

	// IsCompanyAffiliated is set by assembly when the classifier accepts the
	// author's affiliation or email.
	IsCompanyAffiliated bool `json:"is_company_affiliated" yaml:"is_company_affiliated"`
}

// Article holds the metadata of one PubMed record and the company summary
// derived from its authors.
type Article struct {
	// ID is the PubMed identifier (PMID).
	ID string `json:"pubmed_id" yaml:"pubmed_id"`

	// Title is the article title with inline markup flattened.
	Title string `json:"title" yaml:"title"`

	// PublicationDate is zero when the record has no parseable date.
	PublicationDate time.Time `json:"publication_date,omitzero" yaml:"publication_date,omitempty"`

	// Authors lists the authors in source order.
	Authors []Author `json:"authors,omitempty" yaml:"authors,omitempty"`

	// CompanyAuthors is the deduplicated set of company-affiliated author names, sorted.
	CompanyAuthors []string `json:"company_authors" yaml:"company_authors"`

	// CompanyNames is the deduplicated set of extracted company names, sorted.
	CompanyNames []string `json:"company_names" yaml:"company_names"`

	// CorrespondingEmail is the email of the last corresponding author seen.
	CorrespondingEmail string `json:"corresponding_email,omitempty" yaml:"corresponding_email,omitempty"`
}

// HasCompanyAuthor reports whether at least one author is company-affiliated.
// An article is kept in the output iff this holds.
func (a *Article) HasCompanyAuthor() bool {
	for i := range a.Authors {
		if a.Authors[i].IsCompanyAffiliated {
			return true
		}
	}
	return false
}

// DateString formats PublicationDate as YYYY-MM-DD, or "" when unknown.
func (a *Article) DateString() string {
	if a.PublicationDate.IsZero() {
		return ""
	}
	return a.PublicationDate.Format("2006-01-02")
}

// Run records one execution of the pipeline.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Query     string    `json:"query" yaml:"query"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Searched is the number of PMIDs returned by the search.
	Searched int `json:"searched" yaml:"searched"`

	// Fetched is the number of records parsed from the fetch responses.
	Fetched int `json:"fetched" yaml:"fetched"`

	// Retained is the number of articles with a company-affiliated author.
	Retained int `json:"retained" yaml:"retained"`
}
