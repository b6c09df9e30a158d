package models

import (
	"encoding/json"
	"testing"
)

// TestRecordFieldOrder verifies that field order follows first insertion
func TestRecordFieldOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("id", float64(1))
	rec.Set("name", "alice")
	rec.Set("active", true)
	rec.Set("name", "bob") // overwrite must not reorder

	fields := rec.Fields()
	want := []string{"id", "name", "active"}
	if len(fields) != len(want) {
		t.Fatalf("Fields() returned %d fields, want %d", len(fields), len(want))
	}
	for i, field := range want {
		if fields[i] != field {
			t.Errorf("Fields()[%d] = %q, want %q", i, fields[i], field)
		}
	}
	if v, _ := rec.Get("name"); v != "bob" {
		t.Errorf("Get(name) = %v, want bob", v)
	}
}

// TestNormalizeValue verifies scalar coercion rules
func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{name: "string passes through", value: "hello", expected: "hello"},
		{name: "bool passes through", value: true, expected: true},
		{name: "nil passes through", value: nil, expected: nil},
		{name: "float64 passes through", value: 3.25, expected: 3.25},
		{name: "int becomes float64", value: 42, expected: float64(42)},
		{name: "int64 becomes float64", value: int64(-7), expected: float64(-7)},
		{name: "uint becomes float64", value: uint(9), expected: float64(9)},
		{name: "float32 becomes float64", value: float32(1.5), expected: float64(1.5)},
		{name: "json number becomes float64", value: json.Number("12.5"), expected: 12.5},
		{name: "slice renders as json", value: []string{"a", "b"}, expected: `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeValue(tt.value)
			if result != tt.expected {
				t.Errorf("NormalizeValue(%v) = %v, want %v", tt.value, result, tt.expected)
			}
		})
	}
}

// TestFormatValue verifies cell rendering for CSV and Excel writers
func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "nil renders empty", value: nil, expected: ""},
		{name: "string as is", value: "x", expected: "x"},
		{name: "bool lowercase", value: true, expected: "true"},
		{name: "whole float without decimals", value: float64(10), expected: "10"},
		{name: "fractional float", value: 2.5, expected: "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatValue(tt.value)
			if result != tt.expected {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.value, result, tt.expected)
			}
		})
	}
}

// TestRecordJSONRoundTrip verifies order-preserving marshal and unmarshal
func TestRecordJSONRoundTrip(t *testing.T) {
	rec := NewRecord()
	rec.Set("zeta", "last-name-first")
	rec.Set("alpha", float64(1))
	rec.Set("flag", false)
	rec.Set("note", nil)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	wantJSON := `{"zeta":"last-name-first","alpha":1,"flag":false,"note":null}`
	if string(data) != wantJSON {
		t.Errorf("Marshal = %s, want %s", data, wantJSON)
	}

	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(rec) {
		t.Errorf("round-trip mismatch: got %s", decoded.Fingerprint())
	}
	fields := decoded.Fields()
	if fields[0] != "zeta" || fields[1] != "alpha" {
		t.Errorf("decoded field order = %v, want zeta first", fields)
	}
}

// TestRecordClone verifies clones do not share storage
func TestRecordClone(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "one")

	clone := rec.Clone()
	clone.Set("a", "two")
	clone.Set("b", "new")

	if v, _ := rec.Get("a"); v != "one" {
		t.Errorf("original mutated through clone: a = %v", v)
	}
	if rec.Has("b") {
		t.Error("original gained field b through clone")
	}
	if rec.Len() != 1 || clone.Len() != 2 {
		t.Errorf("Len mismatch: original %d, clone %d", rec.Len(), clone.Len())
	}
}

// TestRecordEqual verifies equality requires same order and values
func TestRecordEqual(t *testing.T) {
	a := NewRecord()
	a.Set("x", float64(1))
	a.Set("y", "two")

	b := NewRecord()
	b.Set("x", float64(1))
	b.Set("y", "two")

	if !a.Equal(b) {
		t.Error("identical records not equal")
	}

	c := NewRecord()
	c.Set("y", "two")
	c.Set("x", float64(1))
	if a.Equal(c) {
		t.Error("records with different field order reported equal")
	}

	d := NewRecord()
	d.Set("x", float64(1))
	d.Set("y", "three")
	if a.Equal(d) {
		t.Error("records with different values reported equal")
	}
}

// TestCloneRecords verifies slice-level deep copy
func TestCloneRecords(t *testing.T) {
	rec := NewRecord()
	rec.Set("k", "v")
	original := []Record{rec}

	cloned := CloneRecords(original)
	cloned[0].Set("k", "changed")

	if v, _ := original[0].Get("k"); v != "v" {
		t.Errorf("original slice mutated through clone: k = %v", v)
	}
	if CloneRecords(nil) != nil {
		t.Error("CloneRecords(nil) should return nil")
	}
}
