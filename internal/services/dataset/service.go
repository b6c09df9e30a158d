// Package dataset loads test data records from file-backed sources through
// an in-memory cache, and exports records with optional field protection.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/readers"
)

// Service provides record loading, caching, and export.
type Service struct {
	config *common.Config
	cache  *recordCache
	cipher interfaces.FieldCipher
	logger arbor.ILogger
}

// NewService creates a new dataset service. The cipher may be nil when no
// encryption key is configured; exports that request field encryption then
// fail, masking still works through the service's own hashing.
func NewService(config *common.Config, cipher interfaces.FieldCipher, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		cache:  newRecordCache(config.Cache.MaxEntries, config.Cache.TTL),
		cipher: cipher,
		logger: logger,
	}
}

// Load reads records described by the source descriptor. Results come from
// the cache when an equivalent descriptor was loaded before; otherwise the
// file is read, filtered, sampled, and cached. Returned slices are safe for
// callers to mutate.
func (s *Service) Load(ctx context.Context, source models.DataSource) ([]models.Record, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("invalid data source: %w", err)
	}

	effective := s.applyDefaults(source)
	format, err := effective.ResolveFormat()
	if err != nil {
		return nil, err
	}

	useCache := s.config.Cache.Enabled && !effective.Options.NoCache
	key := effective.CacheKey()

	if useCache {
		if records, ok := s.cache.Get(key); ok {
			s.logger.Debug().
				Str("source", effective.Path).
				Int("records", len(records)).
				Msg("Dataset cache hit")
			return records, nil
		}
	}

	start := time.Now()

	reader, err := readers.ForFormat(format)
	if err != nil {
		return nil, err
	}

	records, err := reader.Read(ctx, effective.Path, effective.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source.Path, err)
	}
	totalRead := len(records)

	records = filterRecords(records, effective.Options.Filter)
	records = sampleRecords(records, effective.Options.SampleSize, effective.Options.SampleSeed)

	s.logger.Info().
		Str("source", effective.Path).
		Str("format", string(format)).
		Int("records", len(records)).
		Int("total_read", totalRead).
		Str("duration", time.Since(start).String()).
		Msg("Dataset loaded")

	if useCache {
		s.cache.Put(key, effective.Path, records)
		return models.CloneRecords(records), nil
	}
	return records, nil
}

// Export writes records to the target. Fields listed in EncryptFields are
// encrypted before writing; fields listed in MaskFields are replaced with
// stable one-way hashes. A field named in both lists is only encrypted.
func (s *Service) Export(ctx context.Context, records []models.Record, target models.ExportTarget) (*models.ExportResult, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export target: %w", err)
	}

	format, err := target.ResolveFormat()
	if err != nil {
		return nil, err
	}

	writer, err := readers.WriterForFormat(format)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	result := &models.ExportResult{
		Path:    target.Path,
		Format:  format,
		Records: len(records),
	}

	out := records
	if len(target.EncryptFields) > 0 || len(target.MaskFields) > 0 {
		out = models.CloneRecords(records)
		encrypted, masked, err := s.protectFields(out, target)
		if err != nil {
			return nil, err
		}
		result.EncryptedFields = encrypted
		result.MaskedFields = masked
	}

	bytesWritten, err := writer.Write(ctx, out, target)
	if err != nil {
		return nil, fmt.Errorf("failed to export to %s: %w", target.Path, err)
	}
	result.BytesWritten = bytesWritten
	result.Duration = time.Since(start)

	s.logger.Info().
		Str("target", target.Path).
		Str("format", string(format)).
		Int("records", result.Records).
		Int64("bytes", result.BytesWritten).
		Int("encrypted_fields", result.EncryptedFields).
		Int("masked_fields", result.MaskedFields).
		Msg("Dataset exported")

	return result, nil
}

// protectFields applies encryption and masking in place and returns the
// counts of field values transformed. Nil and missing values are skipped.
func (s *Service) protectFields(records []models.Record, target models.ExportTarget) (int, int, error) {
	encryptSet := make(map[string]bool, len(target.EncryptFields))
	for _, field := range target.EncryptFields {
		encryptSet[field] = true
	}

	encrypted := 0
	masked := 0
	for i := range records {
		for field := range encryptSet {
			value, ok := records[i].Get(field)
			if !ok || value == nil {
				continue
			}
			if s.cipher == nil {
				return 0, 0, fmt.Errorf("export requires field encryption but no cipher is configured (field %q)", field)
			}
			cipherText, err := s.cipher.Encrypt(models.FormatValue(value))
			if err != nil {
				return 0, 0, fmt.Errorf("failed to encrypt field %q: %w", field, err)
			}
			records[i].Set(field, cipherText)
			encrypted++
		}
		for _, field := range target.MaskFields {
			if encryptSet[field] {
				continue
			}
			value, ok := records[i].Get(field)
			if !ok || value == nil {
				continue
			}
			if s.cipher == nil {
				return 0, 0, fmt.Errorf("export requires field masking but no cipher is configured (field %q)", field)
			}
			records[i].Set(field, s.cipher.Mask(models.FormatValue(value)))
			masked++
		}
	}
	return encrypted, masked, nil
}

// ClearCache drops all cached datasets and returns the count evicted.
func (s *Service) ClearCache() int {
	count := s.cache.Clear()
	if count > 0 {
		s.logger.Info().
			Int("evicted", count).
			Msg("Dataset cache cleared")
	}
	return count
}

// CacheStats returns a snapshot of cache usage counters.
func (s *Service) CacheStats() models.CacheStats {
	return s.cache.Stats()
}

// InvalidatePath evicts every cache entry backed by the given file and
// returns the count evicted. Called by the file watcher when a source
// changes on disk.
func (s *Service) InvalidatePath(path string) int {
	count := s.cache.InvalidatePath(s.resolvePath(path))
	if count > 0 {
		s.logger.Info().
			Str("path", path).
			Int("evicted", count).
			Msg("Dataset cache entries invalidated")
	}
	return count
}

// applyDefaults merges config-level data defaults into a source descriptor
// and resolves its path. The cache key is computed from the effective
// descriptor so equivalent spellings of the same load share an entry.
func (s *Service) applyDefaults(source models.DataSource) models.DataSource {
	effective := source
	effective.Path = s.resolvePath(source.Path)
	if s.config.Data.TrimSpace {
		effective.Options.TrimSpace = true
	}
	if s.config.Data.TypeInference {
		effective.Options.TypeInference = true
	}
	return effective
}

// resolvePath resolves a relative source path against the configured data
// directory when the path does not exist as given. Absolute paths pass
// through untouched.
func (s *Service) resolvePath(path string) string {
	if filepath.IsAbs(path) || s.config.Data.Dir == "" {
		return filepath.Clean(path)
	}
	if _, err := os.Stat(path); err == nil {
		return filepath.Clean(path)
	}
	joined := filepath.Join(s.config.Data.Dir, path)
	if _, err := os.Stat(joined); err == nil {
		return joined
	}
	return filepath.Clean(path)
}

// Ensure Service implements DatasetService interface
var _ interfaces.DatasetService = (*Service)(nil)
