package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
	"github.com/Aman-CERP/corpusexplorer/internal/logging"
	"github.com/Aman-CERP/corpusexplorer/internal/search"
)

// ProjectFileName is the configuration file looked up in the working
// directory when no path is given.
const ProjectFileName = "corpusexplorer.yaml"

// Config is the complete corpusexplorer configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Serve      ServeConfig      `yaml:"serve" json:"serve"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest"`
	Similarity SimilarityConfig `yaml:"similarity" json:"similarity"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`

	// source is the file the configuration was read from, if any.
	source string
}

// PathsConfig locates the project files. Relative paths resolve against
// Project; a relative Project resolves against the configuration file.
type PathsConfig struct {
	Project   string `yaml:"project" json:"project"`
	Index     string `yaml:"index" json:"index"`
	Documents string `yaml:"documents" json:"documents"`
	Locations string `yaml:"locations" json:"locations"`
}

// ServeConfig sizes the searchers and the HTTP listener.
type ServeConfig struct {
	// PageSize is the number of documents one full-text page serves.
	PageSize int `yaml:"page_size" json:"page_size"`
	// MaxDocuments caps the document searchers.
	MaxDocuments int `yaml:"max_documents" json:"max_documents"`
	// MaxExportDocuments caps the CSV export.
	MaxExportDocuments int `yaml:"max_export_documents" json:"max_export_documents"`
	// MaxEditDistance is the fuzziness of primary and negative terms (0-2).
	MaxEditDistance int    `yaml:"max_edit_distance" json:"max_edit_distance"`
	ExportDelimiter string `yaml:"export_delimiter" json:"export_delimiter"`
	Addr            string `yaml:"addr" json:"addr"`
	// DocFreqCacheSize bounds the similarity document frequency cache.
	DocFreqCacheSize int `yaml:"doc_freq_cache_size" json:"doc_freq_cache_size"`
}

// IngestConfig controls index creation.
type IngestConfig struct {
	IncludeNonOpen bool           `yaml:"include_non_open" json:"include_non_open"`
	Format         string         `yaml:"format" json:"format"`
	Workers        int            `yaml:"workers" json:"workers"`
	BatchSize      int            `yaml:"batch_size" json:"batch_size"`
	Timeout        time.Duration  `yaml:"timeout" json:"timeout"`
	Delimiter      string         `yaml:"delimiter" json:"delimiter"`
	Corpus         string         `yaml:"corpus" json:"corpus"`
	Columns        ingest.Columns `yaml:"columns" json:"columns"`
}

// SimilarityConfig tunes more-like-this term selection.
type SimilarityConfig struct {
	MinTermFreq   int `yaml:"min_term_freq" json:"min_term_freq"`
	MinDocFreq    int `yaml:"min_doc_freq" json:"min_doc_freq"`
	MaxQueryTerms int `yaml:"max_query_terms" json:"max_query_terms"`
	MinWordLen    int `yaml:"min_word_len" json:"min_word_len"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File is the log file. Empty logs to stderr only.
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
	Stderr    bool   `yaml:"stderr" json:"stderr"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	similarity := search.DefaultSimilarityOptions()
	return &Config{
		Paths: PathsConfig{
			Project:   ".",
			Index:     "index",
			Documents: "documents",
			Locations: "locations.txt",
		},
		Serve: ServeConfig{
			PageSize:           20,
			MaxDocuments:       10000,
			MaxExportDocuments: 100000,
			MaxEditDistance:    2,
			ExportDelimiter:    ",",
			Addr:               ":8080",
			DocFreqCacheSize:   similarity.CacheSize,
		},
		Ingest: IngestConfig{
			Format:    ingest.FormatCSV,
			Workers:   runtime.NumCPU(),
			BatchSize: ingest.DefaultBatchSize,
			Timeout:   ingest.DefaultTimeout,
			Delimiter: "\t",
			Columns:   ingest.DefaultColumns(),
		},
		Similarity: SimilarityConfig{
			MinTermFreq:   similarity.MinTermFreq,
			MinDocFreq:    similarity.MinDocFreq,
			MaxQueryTerms: similarity.MaxQueryTerms,
			MinWordLen:    similarity.MinWordLen,
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      logging.DefaultLogPath(),
			MaxSizeMB: 10,
			MaxFiles:  5,
			Stderr:    true,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory layout:
//   - $XDG_CONFIG_HOME/corpusexplorer/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/corpusexplorer/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "corpusexplorer", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "corpusexplorer", "config.yaml")
	}
	return filepath.Join(home, ".config", "corpusexplorer", "config.yaml")
}

// Discover returns the configuration file used when none is named:
// corpusexplorer.yaml in dir, then the user configuration file. It
// returns "" when neither exists.
func Discover(dir string) string {
	if p := filepath.Join(dir, ProjectFileName); fileExists(p) {
		return p
	}
	if p := GetUserConfigPath(); fileExists(p) {
		return p
	}
	return ""
}

// Load reads the configuration at path on top of the defaults, applies
// CORPUSEXPLORER_* environment overrides, resolves paths and validates
// the result. An empty path loads the defaults only. Every failure is a
// configuration error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source returns the file the configuration was loaded from.
func (c *Config) Source() string {
	return c.source
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cerrors.New(cerrors.ErrCodeConfigNotFound, "config file not found: "+path, err)
	}
	if err != nil {
		return cerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return cerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	c.source = path
	return nil
}

// applyEnvOverrides applies CORPUSEXPLORER_* environment variables.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("CORPUSEXPLORER_PROJECT", &c.Paths.Project)
	str("CORPUSEXPLORER_INDEX", &c.Paths.Index)
	str("CORPUSEXPLORER_DOCUMENTS", &c.Paths.Documents)
	str("CORPUSEXPLORER_LOCATIONS", &c.Paths.Locations)

	str("CORPUSEXPLORER_ADDR", &c.Serve.Addr)
	num("CORPUSEXPLORER_PAGE_SIZE", &c.Serve.PageSize)
	num("CORPUSEXPLORER_MAX_DOCUMENTS", &c.Serve.MaxDocuments)
	num("CORPUSEXPLORER_MAX_EDIT_DISTANCE", &c.Serve.MaxEditDistance)

	str("CORPUSEXPLORER_FORMAT", &c.Ingest.Format)
	num("CORPUSEXPLORER_WORKERS", &c.Ingest.Workers)
	if v := os.Getenv("CORPUSEXPLORER_INCLUDE_NON_OPEN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Ingest.IncludeNonOpen = b
		}
	}
	if v := os.Getenv("CORPUSEXPLORER_INGEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Ingest.Timeout = d
		}
	}

	str("CORPUSEXPLORER_LOG_LEVEL", &c.Logging.Level)
	str("CORPUSEXPLORER_LOG_FILE", &c.Logging.File)
}

// resolvePaths makes every project path absolute.
func (c *Config) resolvePaths() error {
	project := c.Paths.Project
	if project == "" {
		project = "."
	}
	if !filepath.IsAbs(project) && c.source != "" {
		project = filepath.Join(filepath.Dir(c.source), project)
	}
	abs, err := filepath.Abs(project)
	if err != nil {
		return cerrors.ConfigError("failed to resolve project path", err)
	}
	c.Paths.Project = abs

	for _, p := range []*string{&c.Paths.Index, &c.Paths.Documents, &c.Paths.Locations} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(abs, *p)
		}
	}
	return nil
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return cerrors.ConfigError(fmt.Sprintf(format, args...), nil)
	}

	if c.Paths.Index == "" {
		return invalid("paths.index must be set")
	}

	if c.Serve.PageSize < 1 {
		return invalid("serve.page_size must be positive, got %d", c.Serve.PageSize)
	}
	if c.Serve.MaxDocuments < 1 {
		return invalid("serve.max_documents must be positive, got %d", c.Serve.MaxDocuments)
	}
	if c.Serve.MaxExportDocuments < 1 {
		return invalid("serve.max_export_documents must be positive, got %d", c.Serve.MaxExportDocuments)
	}
	if c.Serve.MaxEditDistance < 0 || c.Serve.MaxEditDistance > 2 {
		return invalid("serve.max_edit_distance must be between 0 and 2, got %d", c.Serve.MaxEditDistance)
	}
	if _, err := delimiter("serve.export_delimiter", c.Serve.ExportDelimiter); err != nil {
		return err
	}
	if c.Serve.DocFreqCacheSize < 1 {
		return invalid("serve.doc_freq_cache_size must be positive, got %d", c.Serve.DocFreqCacheSize)
	}

	switch c.Ingest.Format {
	case ingest.FormatCSV, ingest.FormatJSON:
	default:
		return invalid("ingest.format must be 'csv' or 'json', got %s", c.Ingest.Format)
	}
	if c.Ingest.Workers < 0 {
		return invalid("ingest.workers must be non-negative, got %d", c.Ingest.Workers)
	}
	if c.Ingest.BatchSize < 0 {
		return invalid("ingest.batch_size must be non-negative, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.Timeout < 0 {
		return invalid("ingest.timeout must be non-negative, got %s", c.Ingest.Timeout)
	}
	if _, err := delimiter("ingest.delimiter", c.Ingest.Delimiter); err != nil {
		return err
	}
	if strings.TrimSpace(c.Ingest.Columns.ID) == "" || strings.TrimSpace(c.Ingest.Columns.Text) == "" {
		return invalid("ingest.columns.id and ingest.columns.text must be set")
	}

	if c.Similarity.MinTermFreq < 0 || c.Similarity.MinDocFreq < 0 ||
		c.Similarity.MaxQueryTerms < 0 || c.Similarity.MinWordLen < 0 {
		return invalid("similarity settings must be non-negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// delimiter decodes a one-character delimiter setting. The escape "\t"
// is accepted for a tab.
func delimiter(name, s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if s == "" || size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, cerrors.ConfigError(fmt.Sprintf("%s must be a single character other than a quote or line break, got %q", name, s), nil)
	}
	return r, nil
}

// SearchConfig returns the searcher settings.
func (c *Config) SearchConfig() search.Config {
	d, _ := delimiter("serve.export_delimiter", c.Serve.ExportDelimiter)
	return search.Config{
		PageSize:           c.Serve.PageSize,
		MaxDocuments:       c.Serve.MaxDocuments,
		MaxExportDocuments: c.Serve.MaxExportDocuments,
		MaxEditDistance:    c.Serve.MaxEditDistance,
		ExportDelimiter:    d,
		Similarity: search.SimilarityOptions{
			MinTermFreq:   c.Similarity.MinTermFreq,
			MinDocFreq:    c.Similarity.MinDocFreq,
			MaxQueryTerms: c.Similarity.MaxQueryTerms,
			MinWordLen:    c.Similarity.MinWordLen,
			CacheSize:     c.Serve.DocFreqCacheSize,
		},
	}
}

// IngestConfig returns the pipeline settings.
func (c *Config) IngestConfig() ingest.Config {
	d, _ := delimiter("ingest.delimiter", c.Ingest.Delimiter)
	return ingest.Config{
		Documents:      c.Paths.Documents,
		Format:         c.Ingest.Format,
		Delimiter:      d,
		Columns:        c.Ingest.Columns,
		IncludeNonOpen: c.Ingest.IncludeNonOpen,
		Corpus:         c.Ingest.Corpus,
		BatchSize:      c.Ingest.BatchSize,
		Workers:        c.Ingest.Workers,
		Timeout:        c.Ingest.Timeout,
	}
}

// LoggingConfig returns the logger settings. debug forces debug level.
func (c *Config) LoggingConfig(debug bool) logging.Config {
	level := c.Logging.Level
	if debug {
		level = "debug"
	}
	return logging.Config{
		Level:         level,
		FilePath:      c.Logging.File,
		MaxSizeMB:     c.Logging.MaxSizeMB,
		MaxFiles:      c.Logging.MaxFiles,
		WriteToStderr: c.Logging.Stderr,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
