package affiliation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-papers/pkg/types"
)

func TestDefaultLexicon_Compiles(t *testing.T) {
	_, err := New(DefaultLexicon())
	require.NoError(t, err)
}

func TestDefaultLexicon_ReturnsCopy(t *testing.T) {
	a := DefaultLexicon()
	a.KnownCompanies[0] = "changed"
	b := DefaultLexicon()
	assert.Equal(t, "pfizer", b.KnownCompanies[0])
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `known_companies:
  - acme
  - globex
academic_indicators:
  - university
company_email_patterns:
  - '@acme\.example'
legal_suffixes:
  - gmbh
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, lex.KnownCompanies)
	assert.Equal(t, []string{"university"}, lex.AcademicIndicators)
	assert.Equal(t, []string{`@acme\.example`}, lex.CompanyEmailPatterns)
	assert.Empty(t, lex.CompanyPatterns)

	c, err := New(lex)
	require.NoError(t, err)
	assert.True(t, c.IsCompanyAffiliated("", "a@acme.example"))
	assert.Equal(t, []string{"Globex GmbH"}, c.ExtractCompanyNames("Globex GmbH, Berlin"))
}

func TestLoadLexicon_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("known_company:\n  - acme\n"), 0o644))

	_, err := LoadLexicon(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing lexicon")
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading lexicon")
}

func TestLexiconMerge(t *testing.T) {
	base := Lexicon{
		KnownCompanies:     []string{"pfizer", "roche"},
		AcademicIndicators: []string{"university"},
	}
	extra := Lexicon{
		KnownCompanies: []string{"roche", "acme"},
		LegalSuffixes:  []string{"gmbh"},
	}

	merged := base.Merge(extra)
	assert.Equal(t, []string{"pfizer", "roche", "acme"}, merged.KnownCompanies)
	assert.Equal(t, []string{"university"}, merged.AcademicIndicators)
	assert.Equal(t, []string{"gmbh"}, merged.LegalSuffixes)

	// Merge must not alias the receiver's slices.
	merged.KnownCompanies[0] = "changed"
	assert.Equal(t, "pfizer", base.KnownCompanies[0])
}

func TestLexiconYAML_RoundTripsThroughLoad(t *testing.T) {
	data, err := DefaultLexicon().YAML()
	require.NoError(t, err)

	var lex Lexicon
	require.NoError(t, yaml.Unmarshal(data, &lex))
	assert.Equal(t, DefaultLexicon(), lex)
}

// --- EffectiveLexicon / FromConfig ---

func TestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("known_companies:\n  - initech\n"), 0o644))

	c, err := FromConfig(types.ClassifierConfig{})
	require.NoError(t, err)
	assert.Same(t, Default(), c)

	c, err = FromConfig(types.ClassifierConfig{LexiconFile: path})
	require.NoError(t, err)
	assert.True(t, c.IsCompanyAffiliated("Initech, Austin, TX", ""))
	assert.True(t, c.IsCompanyAffiliated("Pfizer Inc.", ""))

	c, err = FromConfig(types.ClassifierConfig{LexiconFile: path, ReplaceDefaults: true})
	require.NoError(t, err)
	assert.True(t, c.IsCompanyAffiliated("Initech, Austin, TX", ""))
	assert.False(t, c.IsCompanyAffiliated("Pfizer, New York", ""))

	_, err = FromConfig(types.ClassifierConfig{LexiconFile: filepath.Join(t.TempDir(), "none.yaml")})
	require.Error(t, err)
}

func TestFromConfig_ReplaceNeedsFile(t *testing.T) {
	_, err := FromConfig(types.ClassifierConfig{ReplaceDefaults: true})
	require.ErrorIs(t, err, ErrNoLexiconFile)
}

func TestLoadLexicon_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadLexicon(path)
	require.ErrorIs(t, err, ErrEmptyLexicon)
	assert.Contains(t, err.Error(), path)
}

func TestEffectiveLexicon_Extends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("academic_indicators:\n  - clinic\n"), 0o644))

	lex, err := EffectiveLexicon(types.ClassifierConfig{LexiconFile: path})
	require.NoError(t, err)
	assert.Contains(t, lex.AcademicIndicators, "university")
	assert.Contains(t, lex.AcademicIndicators, "clinic")
}
