// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble turns parsed PubMed articles into company-paper results:
// it classifies every author, collects the company-affiliated authors and
// company names per article, picks the corresponding-author email, and drops
// articles without a company-affiliated author.
package assemble

import (
	"runtime"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/pdiddy/company-papers/pkg/types"
)

// correspondingMarker is the only signal PubMed gives for a corresponding
// author: the phrase appears in the affiliation text.
const correspondingMarker = "corresponding"

// AuthorClassifier is the part of affiliation.Classifier that assembly uses.
type AuthorClassifier interface {
	IsCompanyAffiliated(affiliation, email string) bool
	ExtractCompanyNames(affiliation string) []string
}

// Assembler applies an AuthorClassifier to articles. It holds no mutable
// state and may be shared between goroutines.
type Assembler struct {
	classifier AuthorClassifier
	workers    int
	logger     *zap.Logger
}

// New returns an Assembler. workers <= 0 uses GOMAXPROCS; a nil logger
// discards output.
func New(classifier AuthorClassifier, workers int, logger *zap.Logger) *Assembler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{classifier: classifier, workers: workers, logger: logger}
}

// IsCorresponding reports whether an affiliation marks its author as the
// corresponding author.
func IsCorresponding(affiliation string) bool {
	return strings.Contains(strings.ToLower(affiliation), correspondingMarker)
}

// Assemble classifies the authors of article in source order and fills in its
// company summary. It reports whether the article has at least one
// company-affiliated author and should be kept.
//
// The corresponding email is that of the last corresponding author with an
// email, since authors are visited in list order.
func (a *Assembler) Assemble(article *types.Article) bool {
	companyAuthors := make(map[string]struct{})
	companyNames := make(map[string]struct{})
	article.CorrespondingEmail = ""
	kept := false

	for i := range article.Authors {
		author := &article.Authors[i]
		author.IsCorresponding = author.IsCorresponding || IsCorresponding(author.Affiliation)
		author.IsCompanyAffiliated = a.classifier.IsCompanyAffiliated(author.Affiliation, author.Email)

		if author.IsCompanyAffiliated {
			kept = true
			if author.Name != "" {
				companyAuthors[author.Name] = struct{}{}
			}
			names := a.classifier.ExtractCompanyNames(author.Affiliation)
			for _, n := range names {
				companyNames[n] = struct{}{}
			}
			a.logger.Debug("company-affiliated author",
				zap.String("pmid", article.ID),
				zap.String("author", author.Name),
				zap.Strings("companies", names))
		}

		if author.IsCorresponding && author.Email != "" {
			article.CorrespondingEmail = author.Email
		}
	}

	article.CompanyAuthors = sortedKeys(companyAuthors)
	article.CompanyNames = sortedKeys(companyNames)

	if !kept {
		a.logger.Debug("dropping article without company authors", zap.String("pmid", article.ID))
	}
	return kept
}

// Filter assembles every article and returns the kept ones in input order.
// Articles are independent, so they are assembled concurrently; the input
// slice is modified in place.
func (a *Assembler) Filter(articles []types.Article) []types.Article {
	mapper := iter.Mapper[types.Article, bool]{MaxGoroutines: a.workers}
	kept := mapper.Map(articles, func(article *types.Article) bool {
		return a.Assemble(article)
	})

	out := make([]types.Article, 0, len(articles))
	for i, ok := range kept {
		if ok {
			out = append(out, articles[i])
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
