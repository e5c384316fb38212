// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads types.Config from defaults, an optional YAML file and
// COMPANY_PAPERS_* environment variables, in increasing order of precedence.
// Command-line flags bound with BindFlags override all three.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/company-papers/pkg/types"
)

const (
	// FileName is the config file base name searched for in the config paths.
	FileName = "get-papers-list"

	// EnvPrefix prefixes environment overrides: pubmed.email is read from
	// COMPANY_PAPERS_PUBMED_EMAIL.
	EnvPrefix = "COMPANY_PAPERS"
)

// New returns a viper instance with defaults and environment overrides in
// place and the config file read. When file is empty, get-papers-list.yaml is
// looked up in the working directory and ~/.config/get-papers-list/, and
// its absence is not an error. An explicit file must exist.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers a default for every key. Environment overrides only
// reach Unmarshal for keys viper knows about, so no key may be left out.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.email", "")
	v.SetDefault("pubmed.api_key", "")
	v.SetDefault("pubmed.tool", "get-papers-list")
	v.SetDefault("pubmed.max_results", 100)
	v.SetDefault("pubmed.batch_size", 200)
	v.SetDefault("pubmed.requests_per_second", 0.0)
	v.SetDefault("pubmed.max_retries", 3)
	v.SetDefault("pubmed.timeout", 60*time.Second)
	v.SetDefault("pubmed.user_agent", "get-papers-list")

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")

	v.SetDefault("output.format", string(types.OutputCSV))
	v.SetDefault("output.file", "")
	v.SetDefault("output.separator", "; ")

	v.SetDefault("classifier.lexicon_file", "")
	v.SetDefault("classifier.replace_defaults", false)
	v.SetDefault("classifier.workers", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindFlags binds each flag named in bindings (flag name to config key) that
// exists in flags. Flags a command does not define are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load decodes v into a Config and checks the values that have a fixed set
// of choices.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func Validate(cfg types.Config) error {
	switch cfg.Store.Driver {
	case types.StoreNone, types.StoreSQLite, types.StoreMySQL:
	default:
		return fmt.Errorf("store.driver %q: want sqlite3 or mysql", cfg.Store.Driver)
	}
	if cfg.Store.Driver != types.StoreNone && cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required with store.driver %s", cfg.Store.Driver)
	}
	switch cfg.Output.Format {
	case types.OutputCSV, types.OutputJSON, types.OutputYAML:
	default:
		return fmt.Errorf("output.format %q: want csv, json or yaml", cfg.Output.Format)
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q: want console or json", cfg.Logging.Format)
	}
	if cfg.Classifier.ReplaceDefaults && cfg.Classifier.LexiconFile == "" {
		return fmt.Errorf("classifier.replace_defaults needs classifier.lexicon_file")
	}
	if cfg.PubMed.MaxResults < 0 {
		return fmt.Errorf("pubmed.max_results must not be negative")
	}
	return nil
}
