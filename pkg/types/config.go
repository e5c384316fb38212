package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "get-papers-list/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// PubMedConfig holds settings for the NCBI E-utilities client.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the E-utilities root (default https://eutils.ncbi.nlm.nih.gov/entrez/eutils).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Email identifies the caller to NCBI, as their usage policy asks.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// APIKey is an optional NCBI API key. With a key NCBI allows 10 requests
	// per second instead of 3.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Tool is sent as the tool parameter (default "get-papers-list").
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// MaxResults caps the number of PMIDs requested from ESearch (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// BatchSize is the number of PMIDs per EFetch request (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// RequestsPerSecond overrides the rate limit derived from APIKey when > 0.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreDriver names the database/sql driver backing the article store.
type StoreDriver string

const (
	StoreNone   StoreDriver = ""
	StoreSQLite StoreDriver = "sqlite3"
	StoreMySQL  StoreDriver = "mysql"
)

// StoreConfig holds settings for run and article persistence. An empty
// Driver disables persistence.
type StoreConfig struct {
	Driver StoreDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is a file path for sqlite3 or a go-sql-driver DSN for mysql.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// OutputFormat selects the result serializer.
type OutputFormat string

const (
	OutputCSV  OutputFormat = "csv"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// OutputConfig holds settings for result serialization.
type OutputConfig struct {
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// File is the destination path; empty writes to stdout.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// Separator joins multi-valued CSV cells (default "; ").
	Separator string `json:"separator" yaml:"separator" mapstructure:"separator"`
}

// ClassifierConfig holds settings for affiliation classification.
type ClassifierConfig struct {
	// LexiconFile is an optional YAML lexicon. Empty uses the built-in tables.
	LexiconFile string `json:"lexicon_file" yaml:"lexicon_file" mapstructure:"lexicon_file"`

	// ReplaceDefaults makes LexiconFile replace the built-in tables instead of
	// extending them.
	ReplaceDefaults bool `json:"replace_defaults" yaml:"replace_defaults" mapstructure:"replace_defaults"`

	// Workers bounds concurrent article assembly (default: GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations.
type Config struct {
	PubMed     PubMedConfig     `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
}
