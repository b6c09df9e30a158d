package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/probo/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment string                  `toml:"environment"` // "development" or "production"
	Data        DataConfig              `toml:"data"`
	Cache       CacheConfig             `toml:"cache"`
	Execution   models.ExecutionOptions `toml:"execution"` // Default execution options, overridable per suite
	Suites      SuitesConfig            `toml:"suites"`
	Reports     ReportsConfig           `toml:"reports"`
	Secure      SecureConfig            `toml:"secure"`
	Storage     StorageConfig           `toml:"storage"`
	Watch       WatchConfig             `toml:"watch"`
	Logging     LoggingConfig           `toml:"logging"`
}

// DataConfig contains defaults applied to data source loading
type DataConfig struct {
	Dir           string `toml:"dir"`            // Base directory for relative source paths
	TrimSpace     bool   `toml:"trim_space"`     // Trim surrounding whitespace on string cells
	TypeInference bool   `toml:"type_inference"` // Parse CSV/Excel cells to number/bool where unambiguous
}

// CacheConfig tunes the in-memory record cache
type CacheConfig struct {
	Enabled    bool          `toml:"enabled"`
	MaxEntries int           `toml:"max_entries"` // Oldest entry evicted beyond this; 0 = unbounded
	TTL        time.Duration `toml:"ttl"`         // Entry expiry; 0 = no expiry
}

// SuitesConfig contains configuration for suite definition files
type SuitesConfig struct {
	Dir string `toml:"dir"` // Directory containing suite definition files (TOML/YAML/JSON)
}

// ReportsConfig controls report artifacts written after a run
type ReportsConfig struct {
	Dir     string   `toml:"dir"`     // Directory for report artifacts
	Formats []string `toml:"formats"` // "json", "markdown", "html", "pdf"
	Pretty  bool     `toml:"pretty"`  // Indent JSON reports
}

// SecureConfig controls field encryption and masking during export
type SecureConfig struct {
	KeyEnv  string `toml:"key_env"`  // Env var holding the base64 AES-256 key
	KeyFile string `toml:"key_file"` // File holding the base64 key; used when the env var is empty
	Salt    string `toml:"salt"`     // Salt mixed into masked field hashes
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	HistoryLimit   int    `toml:"history_limit"`    // Max run reports retained; oldest pruned beyond this
}

// WatchConfig controls file-watch cache invalidation
type WatchConfig struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"` // Quiet period before an event invalidates cache entries
}

// LoggingConfig controls the arbor logger
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Data: DataConfig{
			Dir:           "./testdata",
			TrimSpace:     true,
			TypeInference: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 64, // Datasets are whole-file loads; a few dozen entries covers typical runs
			TTL:        0,  // No expiry; file-watch invalidation handles staleness
		},
		Execution: models.ExecutionOptions{
			Parallel:          false,
			MaxWorkers:        0, // 0 = NumCPU, capped at 32
			ContinueOnFailure: true,
		},
		Suites: SuitesConfig{
			Dir: "./suites",
		},
		Reports: ReportsConfig{
			Dir:     "./reports",
			Formats: []string{"json"},
			Pretty:  true,
		},
		Secure: SecureConfig{
			KeyEnv: "PROBO_ENCRYPTION_KEY",
			Salt:   "probo",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:         "./data",
				HistoryLimit: 200,
			},
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration from a single file path
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PROBO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PROBO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PROBO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if dir := os.Getenv("PROBO_DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}
	if dir := os.Getenv("PROBO_SUITES_DIR"); dir != "" {
		config.Suites.Dir = dir
	}
	if dir := os.Getenv("PROBO_REPORTS_DIR"); dir != "" {
		config.Reports.Dir = dir
	}
	if path := os.Getenv("PROBO_STORAGE_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if enabled := os.Getenv("PROBO_CACHE_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = parsed
		}
	}
	if workers := os.Getenv("PROBO_MAX_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed >= 0 {
			config.Execution.MaxWorkers = parsed
		}
	}
	if parallel := os.Getenv("PROBO_PARALLEL"); parallel != "" {
		if parsed, err := strconv.ParseBool(parallel); err == nil {
			config.Execution.Parallel = parsed
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Flags have highest priority.
func ApplyFlagOverrides(config *Config, workers int, reportsDir string) {
	if workers > 0 {
		config.Execution.MaxWorkers = workers
	}
	if reportsDir != "" {
		config.Reports.Dir = reportsDir
	}
}

// IsProduction returns true when the environment is production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
