package dataset

import (
	"testing"

	"github.com/ternarybob/probo/internal/models"
)

func makeRecord(pairs ...any) models.Record {
	record := models.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		record.Set(pairs[i].(string), pairs[i+1])
	}
	return record
}

func TestFilterRecordsExactMatch(t *testing.T) {
	records := []models.Record{
		makeRecord("env", "prod", "name", "alpha"),
		makeRecord("env", "dev", "name", "beta"),
		makeRecord("env", "prod", "name", "gamma"),
	}

	filtered := filterRecords(records, map[string]string{"env": "prod"})
	if len(filtered) != 2 {
		t.Fatalf("expected 2 records, got %d", len(filtered))
	}
	if got := filtered[0].GetString("name"); got != "alpha" {
		t.Errorf("expected first match alpha, got %s", got)
	}
	if got := filtered[1].GetString("name"); got != "gamma" {
		t.Errorf("expected second match gamma, got %s", got)
	}
}

func TestFilterRecordsCaseInsensitive(t *testing.T) {
	records := []models.Record{
		makeRecord("env", "PROD"),
		makeRecord("env", "Prod"),
		makeRecord("env", "staging"),
	}

	filtered := filterRecords(records, map[string]string{"env": "prod"})
	if len(filtered) != 2 {
		t.Fatalf("expected case-insensitive match of 2 records, got %d", len(filtered))
	}
}

func TestFilterRecordsWildcard(t *testing.T) {
	records := []models.Record{
		makeRecord("name", "smoke-login"),
		makeRecord("name", "smoke-checkout"),
		makeRecord("name", "regression-login"),
		makeRecord("name", "login-smoke"),
	}

	tests := []struct {
		pattern string
		want    int
	}{
		{"smoke-*", 2},
		{"*-login", 2},
		{"*smoke*", 3},
		{"*login*", 3},
		{"smoke-login", 1},
		{"*", 4},
		{"nothing*", 0},
	}

	for _, tt := range tests {
		filtered := filterRecords(records, map[string]string{"name": tt.pattern})
		if len(filtered) != tt.want {
			t.Errorf("pattern %q: expected %d records, got %d", tt.pattern, tt.want, len(filtered))
		}
	}
}

func TestFilterRecordsAnchored(t *testing.T) {
	records := []models.Record{
		makeRecord("env", "production"),
	}

	// Without wildcards the pattern must match the whole value
	filtered := filterRecords(records, map[string]string{"env": "prod"})
	if len(filtered) != 0 {
		t.Errorf("expected no records for partial pattern without wildcard, got %d", len(filtered))
	}
}

func TestFilterRecordsMissingField(t *testing.T) {
	records := []models.Record{
		makeRecord("env", "prod"),
		makeRecord("region", "us-east"),
	}

	filtered := filterRecords(records, map[string]string{"env": "*"})
	if len(filtered) != 1 {
		t.Fatalf("expected record missing the filtered field to be excluded, got %d records", len(filtered))
	}
	if !filtered[0].Has("env") {
		t.Error("expected the surviving record to have the filtered field")
	}
}

func TestFilterRecordsMultipleCriteria(t *testing.T) {
	records := []models.Record{
		makeRecord("env", "prod", "region", "us-east"),
		makeRecord("env", "prod", "region", "eu-west"),
		makeRecord("env", "dev", "region", "us-east"),
	}

	filtered := filterRecords(records, map[string]string{
		"env":    "prod",
		"region": "us-*",
	})
	if len(filtered) != 1 {
		t.Fatalf("expected criteria to combine with AND, got %d records", len(filtered))
	}
	if got := filtered[0].GetString("region"); got != "us-east" {
		t.Errorf("expected us-east, got %s", got)
	}
}

func TestFilterRecordsNonStringValues(t *testing.T) {
	records := []models.Record{
		makeRecord("retries", float64(3), "active", true),
		makeRecord("retries", float64(5), "active", false),
	}

	filtered := filterRecords(records, map[string]string{"retries": "3"})
	if len(filtered) != 1 {
		t.Fatalf("expected numeric value to match its formatted form, got %d records", len(filtered))
	}

	filtered = filterRecords(records, map[string]string{"active": "true"})
	if len(filtered) != 1 {
		t.Fatalf("expected boolean value to match its formatted form, got %d records", len(filtered))
	}
}

func TestFilterRecordsNoCriteria(t *testing.T) {
	records := []models.Record{
		makeRecord("a", "1"),
		makeRecord("a", "2"),
	}

	filtered := filterRecords(records, nil)
	if len(filtered) != 2 {
		t.Errorf("expected nil criteria to pass all records, got %d", len(filtered))
	}
}

func TestFilterRecordsPatternSpecialCharacters(t *testing.T) {
	records := []models.Record{
		makeRecord("path", "a.b.c"),
		makeRecord("path", "axbxc"),
	}

	// Dots in the pattern are literal, not regex metacharacters
	filtered := filterRecords(records, map[string]string{"path": "a.b.c"})
	if len(filtered) != 1 {
		t.Fatalf("expected literal dot matching, got %d records", len(filtered))
	}
	if got := filtered[0].GetString("path"); got != "a.b.c" {
		t.Errorf("expected a.b.c, got %s", got)
	}
}
