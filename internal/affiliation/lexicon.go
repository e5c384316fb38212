// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package affiliation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/unicode/norm"
)

// Lexicon is the data that drives classification. Every table is plain data:
// extending detection to a new company or a new academic keyword is an edit
// to a Lexicon, never to the classifier.
type Lexicon struct {
	// KnownCompanies are lower-cased company name fragments matched as
	// substrings. Multi-word entries ("johnson & johnson") match as a unit.
	KnownCompanies []string `yaml:"known_companies"`

	// AcademicIndicators are lower-cased fragments that signal an academic
	// or clinical institution.
	AcademicIndicators []string `yaml:"academic_indicators"`

	// CompanyEmailPatterns are regular expressions matched case-insensitively
	// against an author's email address.
	CompanyEmailPatterns []string `yaml:"company_email_patterns"`

	// CompanyPatterns are word-boundary regular expressions for generic
	// company markers (legal suffixes, "pharma", "therapeutics", ...). They
	// classify but never contribute extracted names.
	CompanyPatterns []string `yaml:"company_patterns"`

	// LegalSuffixes are tokens appended to an extracted name when they follow
	// it directly ("Pfizer Inc.").
	LegalSuffixes []string `yaml:"legal_suffixes"`
}

// DefaultLexicon returns a fresh copy of the built-in tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		KnownCompanies: []string{
			// Large pharmaceutical companies.
			"pfizer", "johnson & johnson", "j&j", "roche", "novartis", "merck",
			"sanofi", "glaxosmithkline", "gsk", "astrazeneca", "bristol myers squibb",
			"bristol-myers squibb", "bms", "abbott", "abbvie", "amgen", "gilead",
			"biogen", "celgene", "regeneron", "moderna", "biontech", "vertex",
			"alexion", "incyte", "illumina", "thermo fisher", "eli lilly",
			"boehringer ingelheim", "novo nordisk", "takeda", "bayer",
			"daiichi sankyo", "astellas",

			// Biotech companies.
			"genentech", "immunogen", "seattle genetics", "biomarin", "alkermes",
			"bluebird bio", "crispr therapeutics", "editas medicine", "intellia",
			"sangamo", "alnylam", "ionis", "sarepta", "exelixis", "neurocrine",
		},
		AcademicIndicators: []string{
			"university", "college", "institute", "school", "hospital",
			"medical center", "academic", "faculty", "department", "lab",
			"laboratory",
		},
		CompanyEmailPatterns: []string{
			`@pfizer\.com`, `@jnj\.com`, `@roche\.com`, `@novartis\.com`,
			`@merck\.com`, `@sanofi\.com`, `@gsk\.com`, `@astrazeneca\.com`,
			`@bms\.com`, `@abbott\.com`, `@abbvie\.com`, `@amgen\.com`,
			`@gilead\.com`, `@biogen\.com`, `@regeneron\.com`, `@modernatx\.com`,
			`@biontech\.de`, `@vrtx\.com`, `@thermofisher\.com`, `@lilly\.com`,
			`@gene\.com`, `@takeda\.com`, `@bayer\.com`, `@novonordisk\.com`,
		},
		CompanyPatterns: []string{
			`\b(inc|corp|corporation|ltd|limited|llc|co)\b`,
			`\bpharma\b`,
			`\bpharmaceuticals?\b`,
			`\bbiotech\b`,
			`\btherapeutics?\b`,
			`\bbiosciences?\b`,
			`\blife sciences?\b`,
		},
		LegalSuffixes: []string{"inc", "corp", "ltd", "llc"},
	}
}

// ErrEmptyLexicon is returned for a lexicon file with no YAML document.
var ErrEmptyLexicon = errors.New("lexicon file is empty")

// LoadLexicon reads a YAML lexicon file. Unknown keys are rejected so a
// misspelled table name does not silently leave a table empty.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var lex Lexicon
	if err := dec.Decode(&lex); err != nil {
		if errors.Is(err, io.EOF) {
			return Lexicon{}, fmt.Errorf("loading lexicon %s: %w", path, ErrEmptyLexicon)
		}
		return Lexicon{}, fmt.Errorf("parsing lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Merge returns a lexicon holding the entries of l followed by the entries of
// other, table by table, without duplicates.
func (l Lexicon) Merge(other Lexicon) Lexicon {
	return Lexicon{
		KnownCompanies:       appendUnique(l.KnownCompanies, other.KnownCompanies),
		AcademicIndicators:   appendUnique(l.AcademicIndicators, other.AcademicIndicators),
		CompanyEmailPatterns: appendUnique(l.CompanyEmailPatterns, other.CompanyEmailPatterns),
		CompanyPatterns:      appendUnique(l.CompanyPatterns, other.CompanyPatterns),
		LegalSuffixes:        appendUnique(l.LegalSuffixes, other.LegalSuffixes),
	}
}

// YAML encodes the lexicon in the layout LoadLexicon reads.
func (l Lexicon) YAML() ([]byte, error) {
	return yaml.Marshal(&l)
}

func appendUnique(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// fragments folds a fragment table for substring matching: NFC, lower case,
// trimmed, empties and duplicates dropped. Distinct scores depend on the
// duplicates being gone.
func fragments(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		f := fold(s)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// fold normalizes text for matching.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
