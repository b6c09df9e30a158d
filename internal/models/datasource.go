package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies the encoding of a data source file.
type Format string

// Format constants
const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

// ErrUnknownFormat is returned when a format cannot be parsed or inferred.
var ErrUnknownFormat = errors.New("unknown data format")

// IsValidFormat checks if a given Format is one of the valid constants
func IsValidFormat(f Format) bool {
	switch f {
	case FormatCSV, FormatExcel, FormatJSON:
		return true
	default:
		return false
	}
}

// ParseFormat normalizes a user-supplied format name. Accepts the canonical
// names plus common aliases (xlsx, xls), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx", "xls":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (must be one of: csv, excel, json)", ErrUnknownFormat, s)
	}
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatExcel, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from path %q", ErrUnknownFormat, path)
	}
}

// LoadOptions tunes how records are read from a data source.
type LoadOptions struct {
	Sheet         string            `json:"sheet,omitempty" toml:"sheet" yaml:"sheet"`                            // Excel sheet name; empty means first sheet
	Delimiter     string            `json:"delimiter,omitempty" toml:"delimiter" yaml:"delimiter"`                // CSV delimiter; empty means comma
	Filter        map[string]string `json:"filter,omitempty" toml:"filter" yaml:"filter"`                         // Field -> pattern, * wildcard, case-insensitive
	SampleSize    int               `json:"sample_size,omitempty" toml:"sample_size" yaml:"sample_size"`          // 0 means all records
	SampleSeed    int64             `json:"sample_seed,omitempty" toml:"sample_seed" yaml:"sample_seed"`          // Nonzero seed selects a deterministic random sample
	NoCache       bool              `json:"no_cache,omitempty" toml:"no_cache" yaml:"no_cache"`                   // Bypass the record cache for this load
	TrimSpace     bool              `json:"trim_space,omitempty" toml:"trim_space" yaml:"trim_space"`             // Trim surrounding whitespace on string cells
	TypeInference bool              `json:"type_inference,omitempty" toml:"type_inference" yaml:"type_inference"` // Parse CSV/Excel cells to number/bool where unambiguous
}

// DelimiterRune returns the CSV delimiter, defaulting to comma.
func (o LoadOptions) DelimiterRune() rune {
	if o.Delimiter == "" {
		return ','
	}
	return []rune(o.Delimiter)[0]
}

// DataSource describes a file-backed record source.
type DataSource struct {
	Path    string      `json:"path" toml:"path" yaml:"path"`
	Format  Format      `json:"format,omitempty" toml:"format" yaml:"format"` // Empty means inferred from the path extension
	Options LoadOptions `json:"options,omitempty" toml:"options" yaml:"options"`
}

// Validate checks that the descriptor is usable: path present and format
// valid or inferable.
func (s *DataSource) Validate() error {
	if s.Path == "" {
		return errors.New("data source path is required")
	}
	if s.Format != "" && !IsValidFormat(s.Format) {
		if _, err := ParseFormat(string(s.Format)); err != nil {
			return err
		}
		return nil
	}
	if s.Format == "" {
		if _, err := FormatForPath(s.Path); err != nil {
			return err
		}
	}
	return nil
}

// ResolveFormat returns the explicit format, normalizing aliases, or infers
// one from the path extension.
func (s *DataSource) ResolveFormat() (Format, error) {
	if s.Format != "" {
		if IsValidFormat(s.Format) {
			return s.Format, nil
		}
		return ParseFormat(string(s.Format))
	}
	return FormatForPath(s.Path)
}

// String returns a short human-readable descriptor summary.
func (s *DataSource) String() string {
	format, err := s.ResolveFormat()
	if err != nil {
		return s.Path
	}
	return fmt.Sprintf("%s (%s)", s.Path, format)
}

// CacheKey returns the canonical cache key for this descriptor. Descriptors
// that are semantically identical produce the same key regardless of how
// their options were constructed: filter entries are sorted, zero-value
// options are omitted, and NoCache is excluded since it controls cache use,
// not content.
func (s *DataSource) CacheKey() string {
	format, err := s.ResolveFormat()
	if err != nil {
		format = s.Format
	}

	var b strings.Builder
	fmt.Fprintf(&b, "path=%s\n", s.Path)
	fmt.Fprintf(&b, "format=%s\n", format)

	o := s.Options
	if o.Sheet != "" {
		fmt.Fprintf(&b, "sheet=%s\n", o.Sheet)
	}
	if o.Delimiter != "" {
		fmt.Fprintf(&b, "delimiter=%s\n", o.Delimiter)
	}
	if len(o.Filter) > 0 {
		keys := make([]string, 0, len(o.Filter))
		for k := range o.Filter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "filter.%s=%s\n", k, o.Filter[k])
		}
	}
	if o.SampleSize > 0 {
		fmt.Fprintf(&b, "sample_size=%d\n", o.SampleSize)
	}
	if o.SampleSeed != 0 {
		fmt.Fprintf(&b, "sample_seed=%d\n", o.SampleSeed)
	}
	if o.TrimSpace {
		fmt.Fprintf(&b, "trim_space=true\n")
	}
	if o.TypeInference {
		fmt.Fprintf(&b, "type_inference=true\n")
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SourceRef pairs a data source descriptor with an optional display label.
// The label appears on record results in multi-source runs.
type SourceRef struct {
	DataSource `yaml:",inline"`
	Label      string `json:"label,omitempty" toml:"label" yaml:"label"`
}

// DisplayLabel returns the explicit label, or the base name of the path.
func (s SourceRef) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return filepath.Base(s.Path)
}
