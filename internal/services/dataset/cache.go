package dataset

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/probo/internal/models"
)

// cacheEntry holds one cached dataset keyed by canonical descriptor key.
type cacheEntry struct {
	key       string
	path      string
	records   []models.Record
	sizeBytes int64
	createdAt time.Time
}

// recordCache is an in-memory dataset cache with optional TTL expiry and a
// max-entry bound. Lookup counters are atomic; the entry map is guarded by
// a RWMutex.
type recordCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int
	ttl        time.Duration

	hits      int64
	misses    int64
	evictions int64
}

func newRecordCache(maxEntries int, ttl time.Duration) *recordCache {
	return &recordCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns a deep copy of the cached records for key, or nil when absent
// or expired.
func (c *recordCache) Get(key string) ([]models.Record, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.mu.Lock()
		// Re-check under write lock; another goroutine may have replaced it
		if current, still := c.entries[key]; still && current == entry {
			delete(c.entries, key)
			atomic.AddInt64(&c.evictions, 1)
		}
		c.mu.Unlock()
		ok = false
	}

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return models.CloneRecords(entry.records), true
}

// Put stores records under key. The cache takes ownership of the slice;
// callers must not retain references that they mutate. Capacity overflow
// evicts the oldest entry.
func (c *recordCache) Put(key string, path string, records []models.Record) {
	entry := &cacheEntry{
		key:       key,
		path:      filepath.Clean(path),
		records:   records,
		sizeBytes: sizeOfRecords(records),
		createdAt: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
}

// evictOldestLocked removes the entry with the earliest createdAt. Caller
// holds the write lock.
func (c *recordCache) evictOldestLocked() {
	var oldest *cacheEntry
	for _, entry := range c.entries {
		if oldest == nil || entry.createdAt.Before(oldest.createdAt) {
			oldest = entry
		}
	}
	if oldest != nil {
		delete(c.entries, oldest.key)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Clear drops all entries and returns the count removed. Lookup counters
// are preserved.
func (c *recordCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	return count
}

// InvalidatePath evicts every entry backed by the given file path and
// returns the count evicted.
func (c *recordCache) InvalidatePath(path string) int {
	cleaned := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.entries {
		if entry.path == cleaned {
			delete(c.entries, key)
			count++
		}
	}
	if count > 0 {
		atomic.AddInt64(&c.evictions, int64(count))
	}
	return count
}

// Stats returns a snapshot of cache usage.
func (c *recordCache) Stats() models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.CacheStats{
		Entries:   len(c.entries),
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
	for _, entry := range c.entries {
		stats.Records += len(entry.records)
		stats.SizeBytes += entry.sizeBytes
		if stats.Oldest.IsZero() || entry.createdAt.Before(stats.Oldest) {
			stats.Oldest = entry.createdAt
		}
	}
	return stats
}

// sizeOfRecords estimates the in-memory footprint of a record slice.
func sizeOfRecords(records []models.Record) int64 {
	var size int64
	for i := range records {
		for _, field := range records[i].Fields() {
			size += int64(len(field)) + 16
			if value, ok := records[i].Get(field); ok {
				if s, isString := value.(string); isString {
					size += int64(len(s))
				} else {
					size += 8
				}
			}
		}
	}
	return size
}
