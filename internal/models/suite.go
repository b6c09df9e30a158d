package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Suite describes a named data-driven run loaded from a suite file. Suite
// files are TOML, YAML, or JSON, decided by extension.
type Suite struct {
	Name        string           `json:"name" toml:"name" yaml:"name" validate:"required,max=64"`
	Description string           `json:"description,omitempty" toml:"description" yaml:"description"`
	Source      DataSource       `json:"source" toml:"source" yaml:"source"`
	Sources     []SourceRef      `json:"sources,omitempty" toml:"sources" yaml:"sources"` // Additional sources run after Source, in order
	Checks      CheckOptions     `json:"checks,omitempty" toml:"checks" yaml:"checks"`
	Execution   ExecutionOptions `json:"execution,omitempty" toml:"execution" yaml:"execution"`
	Reports     ReportOptions    `json:"reports,omitempty" toml:"reports" yaml:"reports"`
	Schedule    string           `json:"schedule,omitempty" toml:"schedule" yaml:"schedule"` // Cron expression for scheduled runs
	Disabled    bool             `json:"disabled,omitempty" toml:"disabled" yaml:"disabled"`
	Tags        []string         `json:"tags,omitempty" toml:"tags" yaml:"tags"`
}

// ReportOptions selects which report artifacts a run writes.
type ReportOptions struct {
	Formats []string `json:"formats,omitempty" toml:"formats" yaml:"formats" validate:"dive,oneof=json markdown html pdf"`
	Dir     string   `json:"dir,omitempty" toml:"dir" yaml:"dir"` // Defaults to the configured reports directory
	Pretty  bool     `json:"pretty,omitempty" toml:"pretty" yaml:"pretty"`
}

var suiteNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate validates the suite definition: name pattern, source descriptor,
// struct tags, and cron schedule when present.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return errors.New("suite name is required")
	}
	if !suiteNamePattern.MatchString(s.Name) {
		return fmt.Errorf("invalid suite name %q (lowercase letters, digits, - and _ only)", s.Name)
	}
	if err := s.Source.Validate(); err != nil {
		return fmt.Errorf("suite %s source: %w", s.Name, err)
	}
	for i := range s.Sources {
		if err := s.Sources[i].Validate(); err != nil {
			return fmt.Errorf("suite %s sources[%d]: %w", s.Name, i, err)
		}
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("suite %s validation failed: %w", s.Name, err)
	}

	// Validate cron schedule format
	if s.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(s.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", s.Schedule, err)
		}
	}
	return nil
}

// SourceRefs returns the suite's sources in run order: the primary source
// first, then any additional sources.
func (s *Suite) SourceRefs() []SourceRef {
	refs := make([]SourceRef, 0, 1+len(s.Sources))
	refs = append(refs, SourceRef{DataSource: s.Source})
	refs = append(refs, s.Sources...)
	return refs
}

// LoadSuite reads and validates a suite file. The decoder is chosen by
// extension: .toml, .yaml/.yml, or .json.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file %s: %w", path, err)
	}

	var suite Suite
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported suite file extension %q (must be .toml, .yaml, or .json)", filepath.Ext(path))
	}

	// Default the suite name to the file name when omitted
	if suite.Name == "" {
		base := filepath.Base(path)
		suite.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// LoadSuiteDir loads every suite file in a directory, sorted by name.
// Non-suite files are skipped.
func LoadSuiteDir(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory %s: %w", dir, err)
	}

	var suites []*Suite
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".toml", ".yaml", ".yml", ".json":
		default:
			continue
		}
		suite, err := LoadSuite(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}

	sort.Slice(suites, func(i, j int) bool { return suites[i].Name < suites[j].Name })
	return suites, nil
}
