// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package affiliation

import (
	"errors"

	"github.com/pdiddy/company-papers/pkg/types"
)

// ErrNoLexiconFile is returned when the built-in tables are to be replaced
// but no lexicon file is given.
var ErrNoLexiconFile = errors.New("replacing the built-in lexicon needs a lexicon file")

// EffectiveLexicon returns the lexicon cfg selects: the built-in tables,
// extended by cfg.LexiconFile, or replaced by it when cfg.ReplaceDefaults.
func EffectiveLexicon(cfg types.ClassifierConfig) (Lexicon, error) {
	if cfg.LexiconFile == "" {
		if cfg.ReplaceDefaults {
			return Lexicon{}, ErrNoLexiconFile
		}
		return DefaultLexicon(), nil
	}
	lex, err := LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return Lexicon{}, err
	}
	if cfg.ReplaceDefaults {
		return lex, nil
	}
	return DefaultLexicon().Merge(lex), nil
}

// FromConfig compiles the lexicon cfg selects. Without a lexicon file it
// returns the shared Default classifier.
func FromConfig(cfg types.ClassifierConfig) (*Classifier, error) {
	if cfg.LexiconFile == "" && !cfg.ReplaceDefaults {
		return Default(), nil
	}
	lex, err := EffectiveLexicon(cfg)
	if err != nil {
		return nil, err
	}
	return New(lex)
}
