package models

import (
	"errors"
	"time"
)

// ExportTarget describes where and how records are written.
type ExportTarget struct {
	Path          string   `json:"path" toml:"path" yaml:"path"`
	Format        Format   `json:"format,omitempty" toml:"format" yaml:"format"`                         // Empty means inferred from the path extension
	Sheet         string   `json:"sheet,omitempty" toml:"sheet" yaml:"sheet"`                            // Excel sheet name; empty means "Sheet1"
	Delimiter     string   `json:"delimiter,omitempty" toml:"delimiter" yaml:"delimiter"`                // CSV delimiter; empty means comma
	Pretty        bool     `json:"pretty,omitempty" toml:"pretty" yaml:"pretty"`                         // Indent JSON output
	EncryptFields []string `json:"encrypt_fields,omitempty" toml:"encrypt_fields" yaml:"encrypt_fields"` // Field values encrypted before writing
	MaskFields    []string `json:"mask_fields,omitempty" toml:"mask_fields" yaml:"mask_fields"`          // Field values replaced with stable hashes
}

// Validate checks that the target is usable.
func (t *ExportTarget) Validate() error {
	if t.Path == "" {
		return errors.New("export target path is required")
	}
	if t.Format != "" && !IsValidFormat(t.Format) {
		if _, err := ParseFormat(string(t.Format)); err != nil {
			return err
		}
		return nil
	}
	if t.Format == "" {
		if _, err := FormatForPath(t.Path); err != nil {
			return err
		}
	}
	return nil
}

// ResolveFormat returns the explicit format, normalizing aliases, or infers
// one from the path extension.
func (t *ExportTarget) ResolveFormat() (Format, error) {
	if t.Format != "" {
		if IsValidFormat(t.Format) {
			return t.Format, nil
		}
		return ParseFormat(string(t.Format))
	}
	return FormatForPath(t.Path)
}

// DelimiterRune returns the CSV delimiter, defaulting to comma.
func (t *ExportTarget) DelimiterRune() rune {
	if t.Delimiter == "" {
		return ','
	}
	return []rune(t.Delimiter)[0]
}

// SheetName returns the Excel sheet name, defaulting to "Sheet1".
func (t *ExportTarget) SheetName() string {
	if t.Sheet == "" {
		return "Sheet1"
	}
	return t.Sheet
}

// ExportResult summarizes a completed export.
type ExportResult struct {
	Path            string        `json:"path"`
	Format          Format        `json:"format"`
	Records         int           `json:"records"`
	BytesWritten    int64         `json:"bytes_written"`
	EncryptedFields int           `json:"encrypted_fields,omitempty"` // Count of field values encrypted
	MaskedFields    int           `json:"masked_fields,omitempty"`    // Count of field values masked
	Duration        time.Duration `json:"duration"`
}
