// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package affiliation decides whether an author is affiliated with a
// pharmaceutical or biotech company, from a free-text affiliation string and
// an optional email address, and extracts the company names it mentions.
//
// The heuristic is rule-based and deterministic. All of its knowledge lives
// in a Lexicon; a Classifier is the compiled, immutable form of one and is
// safe for concurrent use.
package affiliation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Reason names the rule that decided a Verdict.
type Reason string

const (
	ReasonNoInput          Reason = "no-input"
	ReasonCompanyEmail     Reason = "company-email"
	ReasonNoAffiliation    Reason = "no-affiliation"
	ReasonAcademicDominant Reason = "academic-dominant"
	ReasonKnownCompany     Reason = "known-company"
	ReasonCompanyPattern   Reason = "company-pattern"
	ReasonNoSignal         Reason = "no-signal"
)

// Verdict is the outcome of classifying one affiliation/email pair.
type Verdict struct {
	Company bool   `json:"company" yaml:"company"`
	Reason  Reason `json:"reason" yaml:"reason"`

	// Scores and matches are filled only once the affiliation text is examined.
	AcademicScore   int      `json:"academic_score" yaml:"academic_score"`
	CompanyScore    int      `json:"company_score" yaml:"company_score"`
	AcademicMatches []string `json:"academic_matches,omitempty" yaml:"academic_matches,omitempty"`
	CompanyMatches  []string `json:"company_matches,omitempty" yaml:"company_matches,omitempty"`
}

// Classifier is a compiled Lexicon.
type Classifier struct {
	known           []string
	academic        []string
	emailPatterns   []*regexp.Regexp
	companyPatterns []*regexp.Regexp
	legalSuffixes   map[string]struct{}

	// phrases holds case-insensitive matchers for multi-word known companies,
	// which are located as a unit rather than word by word.
	phrases map[string]*regexp.Regexp
}

// New compiles lex. It fails only on an invalid regular expression.
func New(lex Lexicon) (*Classifier, error) {
	c := &Classifier{
		known:         fragments(lex.KnownCompanies),
		academic:      fragments(lex.AcademicIndicators),
		legalSuffixes: make(map[string]struct{}),
		phrases:       make(map[string]*regexp.Regexp),
	}

	for _, p := range lex.CompanyEmailPatterns {
		re, err := compileFolded(p)
		if err != nil {
			return nil, fmt.Errorf("company email pattern %q: %w", p, err)
		}
		c.emailPatterns = append(c.emailPatterns, re)
	}
	for _, p := range lex.CompanyPatterns {
		re, err := compileFolded(p)
		if err != nil {
			return nil, fmt.Errorf("company pattern %q: %w", p, err)
		}
		c.companyPatterns = append(c.companyPatterns, re)
	}
	for _, s := range fragments(lex.LegalSuffixes) {
		c.legalSuffixes[s] = struct{}{}
	}
	for _, k := range c.known {
		if strings.ContainsFunc(k, unicode.IsSpace) {
			c.phrases[k] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k))
		}
	}
	return c, nil
}

func compileFolded(pattern string) (*regexp.Regexp, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile(`(?i)` + pattern)
}

var defaultClassifier = sync.OnceValue(func() *Classifier {
	c, err := New(DefaultLexicon())
	if err != nil {
		panic(fmt.Sprintf("affiliation: built-in lexicon: %v", err))
	}
	return c
})

// Default returns the classifier for the built-in lexicon. It is compiled on
// first use and shared afterwards.
func Default() *Classifier {
	return defaultClassifier()
}

// IsCompanyAffiliated reports whether the affiliation or email indicates a
// company. Empty strings are treated as absent.
func (c *Classifier) IsCompanyAffiliated(affiliation, email string) bool {
	return c.Classify(affiliation, email).Company
}

// Classify applies the rules in precedence order and reports which one decided:
//
//  1. no affiliation and no email: not a company;
//  2. email matches a company domain: company, whatever the affiliation says;
//  3. no affiliation: not a company;
//  4. academic indicators strictly outnumber known-company fragments: not a company;
//  5. any known-company fragment: company;
//  6. any generic company pattern: company;
//  7. otherwise not a company.
//
// Ties in step 4 fall through to the company rules.
func (c *Classifier) Classify(affiliation, email string) Verdict {
	affiliation = strings.TrimSpace(affiliation)
	email = strings.TrimSpace(email)

	if affiliation == "" && email == "" {
		return Verdict{Reason: ReasonNoInput}
	}
	if email != "" && c.isCompanyEmail(email) {
		return Verdict{Company: true, Reason: ReasonCompanyEmail}
	}
	if affiliation == "" {
		return Verdict{Reason: ReasonNoAffiliation}
	}

	text := fold(affiliation)
	v := Verdict{
		AcademicMatches: matchFragments(text, c.academic),
		CompanyMatches:  matchFragments(text, c.known),
	}
	v.AcademicScore = len(v.AcademicMatches)
	v.CompanyScore = len(v.CompanyMatches)

	if v.AcademicScore > 0 && v.AcademicScore > v.CompanyScore {
		v.Reason = ReasonAcademicDominant
		return v
	}
	if v.CompanyScore > 0 {
		v.Company = true
		v.Reason = ReasonKnownCompany
		return v
	}
	for _, re := range c.companyPatterns {
		if re.MatchString(text) {
			v.Company = true
			v.Reason = ReasonCompanyPattern
			return v
		}
	}
	v.Reason = ReasonNoSignal
	return v
}

func (c *Classifier) isCompanyEmail(email string) bool {
	for _, re := range c.emailPatterns {
		if re.MatchString(email) {
			return true
		}
	}
	return false
}

// matchFragments returns the fragments that occur in text, in table order.
func matchFragments(text string, table []string) []string {
	var matched []string
	for _, f := range table {
		if strings.Contains(text, f) {
			matched = append(matched, f)
		}
	}
	return matched
}

// ExtractCompanyNames returns the original-case names of the known companies
// mentioned in affiliation, each followed by its legal suffix when one comes
// next ("Pfizer Inc."). The result is sorted and free of duplicates. Only the
// known-company table feeds extraction: an affiliation accepted through a
// generic pattern alone yields no names.
func (c *Classifier) ExtractCompanyNames(affiliation string) []string {
	affiliation = norm.NFC.String(strings.TrimSpace(affiliation))
	if affiliation == "" {
		return nil
	}
	text := strings.ToLower(affiliation)
	words := strings.Fields(affiliation)

	seen := make(map[string]struct{})
	for _, frag := range c.known {
		if !strings.Contains(text, frag) {
			continue
		}
		name, next := c.locate(affiliation, words, frag)
		if name == "" {
			continue
		}
		if suffix, ok := c.legalSuffix(next); ok {
			name += " " + suffix
		}
		seen[name] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// locate finds the original-case text for frag and the word that follows it.
func (c *Classifier) locate(affiliation string, words []string, frag string) (name, next string) {
	if re, ok := c.phrases[frag]; ok {
		loc := re.FindStringIndex(affiliation)
		if loc == nil {
			return "", ""
		}
		name = affiliation[loc[0]:loc[1]]
		if rest := strings.Fields(affiliation[loc[1]:]); len(rest) > 0 {
			next = rest[0]
		}
		return name, next
	}

	for i, w := range words {
		if !strings.Contains(strings.ToLower(w), frag) {
			continue
		}
		name = strings.TrimFunc(w, isEdgePunct)
		if i+1 < len(words) {
			next = words[i+1]
		}
		return name, next
	}
	return "", ""
}

// legalSuffix reports whether word is a legal suffix token and returns it
// with separator punctuation removed ("Inc.," -> "Inc.").
func (c *Classifier) legalSuffix(word string) (string, bool) {
	if word == "" {
		return "", false
	}
	token := strings.ToLower(strings.TrimRightFunc(word, unicode.IsPunct))
	if _, ok := c.legalSuffixes[token]; !ok {
		return "", false
	}
	return strings.TrimRight(word, ",;:)]"), true
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) && r != '&'
}
