package models

import (
	"testing"
)

// TestParseFormat verifies format name normalization
func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Format
		wantErr  bool
	}{
		{name: "csv lowercase", input: "csv", expected: FormatCSV},
		{name: "csv uppercase", input: "CSV", expected: FormatCSV},
		{name: "excel canonical", input: "excel", expected: FormatExcel},
		{name: "xlsx alias", input: "xlsx", expected: FormatExcel},
		{name: "xls alias", input: "XLS", expected: FormatExcel},
		{name: "json", input: "json", expected: FormatJSON},
		{name: "padded", input: "  json  ", expected: FormatJSON},
		{name: "unknown", input: "parquet", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFormat(%q) expected error, got %v", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFormatForPath verifies extension inference
func TestFormatForPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected Format
		wantErr  bool
	}{
		{name: "csv extension", path: "data/users.csv", expected: FormatCSV},
		{name: "xlsx extension", path: "data/users.XLSX", expected: FormatExcel},
		{name: "json extension", path: "users.json", expected: FormatJSON},
		{name: "no extension", path: "users", wantErr: true},
		{name: "unknown extension", path: "users.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FormatForPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("FormatForPath(%q) expected error, got %v", tt.path, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatForPath(%q) failed: %v", tt.path, err)
			}
			if result != tt.expected {
				t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

// TestDataSourceValidate verifies descriptor validation
func TestDataSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  DataSource
		wantErr bool
	}{
		{name: "explicit format", source: DataSource{Path: "x.dat", Format: FormatCSV}},
		{name: "inferable format", source: DataSource{Path: "x.json"}},
		{name: "alias format", source: DataSource{Path: "x.dat", Format: "xlsx"}},
		{name: "missing path", source: DataSource{Format: FormatCSV}, wantErr: true},
		{name: "uninferable", source: DataSource{Path: "x.dat"}, wantErr: true},
		{name: "bogus format", source: DataSource{Path: "x.csv", Format: "avro"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

// TestCacheKeyCanonical verifies that semantically identical descriptors
// share a key regardless of option construction order
func TestCacheKeyCanonical(t *testing.T) {
	a := DataSource{
		Path:   "testdata/users.csv",
		Format: FormatCSV,
		Options: LoadOptions{
			Filter:     map[string]string{"status": "active", "region": "eu*"},
			SampleSize: 10,
		},
	}
	b := DataSource{
		Path:   "testdata/users.csv",
		Format: FormatCSV,
		Options: LoadOptions{
			SampleSize: 10,
			Filter:     map[string]string{"region": "eu*", "status": "active"},
		},
	}
	if a.CacheKey() != b.CacheKey() {
		t.Error("identical descriptors produced different cache keys")
	}

	// Inferred and explicit formats must collapse to the same key
	c := DataSource{Path: "testdata/users.csv"}
	d := DataSource{Path: "testdata/users.csv", Format: FormatCSV}
	if c.CacheKey() != d.CacheKey() {
		t.Error("inferred format produced a different cache key than explicit")
	}

	// NoCache must not change the key
	e := a
	e.Options.NoCache = true
	if a.CacheKey() != e.CacheKey() {
		t.Error("NoCache changed the cache key")
	}
}

// TestCacheKeyDistinct verifies that differing content options change the key
func TestCacheKeyDistinct(t *testing.T) {
	base := DataSource{Path: "testdata/users.csv"}
	variants := []DataSource{
		{Path: "testdata/other.csv"},
		{Path: "testdata/users.csv", Options: LoadOptions{SampleSize: 5}},
		{Path: "testdata/users.csv", Options: LoadOptions{SampleSize: 5, SampleSeed: 7}},
		{Path: "testdata/users.csv", Options: LoadOptions{Filter: map[string]string{"a": "b"}}},
		{Path: "testdata/users.csv", Options: LoadOptions{TrimSpace: true}},
	}

	baseKey := base.CacheKey()
	seen := map[string]int{baseKey: 0}
	for i, v := range variants {
		key := v.CacheKey()
		if prev, dup := seen[key]; dup {
			t.Errorf("variant %d collided with variant %d", i+1, prev)
		}
		seen[key] = i + 1
	}
}

// TestDelimiterRune verifies the delimiter default
func TestDelimiterRune(t *testing.T) {
	if d := (LoadOptions{}).DelimiterRune(); d != ',' {
		t.Errorf("default delimiter = %q, want comma", d)
	}
	if d := (LoadOptions{Delimiter: ";"}).DelimiterRune(); d != ';' {
		t.Errorf("delimiter = %q, want semicolon", d)
	}
}
