package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a single row loaded from a data source. Field order follows the
// source: CSV header order, Excel header-row order, or JSON object key order
// as decoded. Values are restricted to string, float64, bool, or nil.
type Record struct {
	fields []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() Record {
	return Record{values: make(map[string]any)}
}

// Set assigns a value to a field. A field seen for the first time is appended
// to the field order. Values are normalized to the supported scalar types.
func (r *Record) Set(field string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[field]; !exists {
		r.fields = append(r.fields, field)
	}
	r.values[field] = NormalizeValue(value)
}

// Get returns the value for a field and whether the field exists.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// GetString returns the field value rendered as a string. Missing fields
// render as the empty string.
func (r *Record) GetString(field string) string {
	v, ok := r.values[field]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Has reports whether the field exists.
func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in source order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Map returns an unordered copy of the record values.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	out := Record{
		fields: make([]string, len(r.fields)),
		values: make(map[string]any, len(r.values)),
	}
	copy(out.fields, r.fields)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Equal reports whether two records have the same fields in the same order
// with equal values.
func (r *Record) Equal(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i, field := range r.fields {
		if other.fields[i] != field {
			return false
		}
		if r.values[field] != other.values[field] {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable serialization of the record used for duplicate
// detection. Records with identical fields, order, and values share a
// fingerprint.
func (r *Record) Fingerprint() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", r.values)
	}
	return string(data)
}

// MarshalJSON serializes the record as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(field)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field name %q: %w", field, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(r.values[field])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %q: %w", field, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the record, preserving the key
// order of the document.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	r.fields = nil
	r.values = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode record key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode record value for %q: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// NormalizeValue coerces a value to the supported scalar types: string,
// float64, bool, or nil. Integer and float variants collapse to float64.
// Anything else is rendered as its compact JSON form.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// FormatValue renders a scalar value as a string for CSV and Excel cells.
// Nil renders empty, floats without trailing zeros.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CloneRecords deep-copies a record slice. Used at cache boundaries so
// callers cannot mutate cached data.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}
