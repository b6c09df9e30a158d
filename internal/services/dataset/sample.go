package dataset

import (
	"math/rand"
	"sort"

	"github.com/ternarybob/probo/internal/models"
)

// sampleRecords reduces records to at most size entries. A zero or negative
// size, or a size covering the whole set, returns the input unchanged. With
// no seed the first size records are kept; with a seed the selection is a
// deterministic draw without replacement, returned in source order.
func sampleRecords(records []models.Record, size int, seed int64) []models.Record {
	if size <= 0 || size >= len(records) {
		return records
	}
	if seed == 0 {
		return records[:size]
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(records))[:size]
	sort.Ints(picked)

	sampled := make([]models.Record, 0, size)
	for _, idx := range picked {
		sampled = append(sampled, records[idx])
	}
	return sampled
}
