package dataset

import (
	"fmt"
	"testing"

	"github.com/ternarybob/probo/internal/models"
)

func numberedRecords(n int) []models.Record {
	records := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		record := models.NewRecord()
		record.Set("index", fmt.Sprintf("%d", i))
		records = append(records, record)
	}
	return records
}

func TestSampleRecordsNoSampling(t *testing.T) {
	records := numberedRecords(5)

	if got := sampleRecords(records, 0, 0); len(got) != 5 {
		t.Errorf("size 0: expected all records, got %d", len(got))
	}
	if got := sampleRecords(records, 5, 0); len(got) != 5 {
		t.Errorf("size equal to length: expected all records, got %d", len(got))
	}
	if got := sampleRecords(records, 10, 0); len(got) != 5 {
		t.Errorf("size beyond length: expected all records, got %d", len(got))
	}
}

func TestSampleRecordsFirstN(t *testing.T) {
	records := numberedRecords(10)

	sampled := sampleRecords(records, 3, 0)
	if len(sampled) != 3 {
		t.Fatalf("expected 3 records, got %d", len(sampled))
	}
	for i, record := range sampled {
		if got := record.GetString("index"); got != fmt.Sprintf("%d", i) {
			t.Errorf("position %d: expected index %d, got %s", i, i, got)
		}
	}
}

func TestSampleRecordsSeededDeterministic(t *testing.T) {
	records := numberedRecords(20)

	first := sampleRecords(records, 5, 42)
	second := sampleRecords(records, 5, 42)

	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("expected 5 records from both draws, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("position %d: same seed produced different selections", i)
		}
	}
}

func TestSampleRecordsSeededWithoutReplacement(t *testing.T) {
	records := numberedRecords(20)

	sampled := sampleRecords(records, 8, 7)
	seen := make(map[string]bool)
	for _, record := range sampled {
		index := record.GetString("index")
		if seen[index] {
			t.Fatalf("record %s selected more than once", index)
		}
		seen[index] = true
	}
}

func TestSampleRecordsSeededPreservesSourceOrder(t *testing.T) {
	records := numberedRecords(30)

	sampled := sampleRecords(records, 10, 99)
	last := -1
	for _, record := range sampled {
		var index int
		fmt.Sscanf(record.GetString("index"), "%d", &index)
		if index <= last {
			t.Fatalf("sampled records out of source order: %d after %d", index, last)
		}
		last = index
	}
}
