// Package secure provides field-level encryption and masking for exported
// records.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
)

const (
	// encPrefix marks encrypted field values on the wire.
	encPrefix = "enc:v1:"
	// maskPrefix marks masked field values.
	maskPrefix = "masked:"
	// keySize is the AES-256 key length in bytes.
	keySize = 32
)

// ErrNoKey is returned when encryption is requested without a configured key.
var ErrNoKey = errors.New("secure: no encryption key configured")

// Service encrypts and masks field values. Masking works without a key;
// encryption requires a 32-byte key from the configured env var or key file.
type Service struct {
	key    []byte
	salt   []byte
	cache  map[string]string // Mask cache for repeated values
	mu     sync.RWMutex
	logger arbor.ILogger
}

// NewService creates a secure service from configuration. A missing key is
// not an error; Encrypt fails with ErrNoKey until one is provided.
func NewService(config *common.Config, logger arbor.ILogger) (*Service, error) {
	key, err := resolveKey(config.Secure)
	if err != nil {
		return nil, err
	}

	if key != nil {
		logger.Debug().Msg("Field encryption key loaded")
	}

	return &Service{
		key:    key,
		salt:   []byte(config.Secure.Salt),
		cache:  make(map[string]string),
		logger: logger,
	}, nil
}

var _ interfaces.FieldCipher = (*Service)(nil)

// resolveKey loads the base64 AES-256 key from the env var, then the key
// file. Returns nil when neither is set.
func resolveKey(config common.SecureConfig) ([]byte, error) {
	encoded := ""
	if config.KeyEnv != "" {
		encoded = os.Getenv(config.KeyEnv)
	}
	if encoded == "" && config.KeyFile != "" {
		data, err := os.ReadFile(config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", config.KeyFile, err)
		}
		encoded = strings.TrimSpace(string(data))
	}
	if encoded == "" {
		return nil, nil
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}
	return key, nil
}

// HasKey reports whether encryption is available.
func (s *Service) HasKey() bool {
	return len(s.key) == keySize
}

// Encrypt seals a field value with AES-256-GCM. Output form:
// enc:v1:<base64(nonce|ciphertext)>.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if !s.HasKey() {
		return "", ErrNoKey
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to initialize gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the enc:v1: prefix are rejected.
func (s *Service) Decrypt(value string) (string, error) {
	if !s.HasKey() {
		return "", ErrNoKey
	}
	if !strings.HasPrefix(value, encPrefix) {
		return "", fmt.Errorf("value is not an encrypted field")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("encrypted value is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to initialize gcm: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("encrypted value too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt field: %w", err)
	}
	return string(plaintext), nil
}

// Mask returns a stable salted hash of a field value, truncated to 16 hex
// chars for readability. Equal inputs always produce equal masks; repeated
// values are served from a cache.
func (s *Service) Mask(value string) string {
	if value == "" {
		return value
	}

	s.mu.RLock()
	if cached, ok := s.cache[value]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	h := sha256.New()
	h.Write(s.salt)
	h.Write([]byte(value))
	fullHash := hex.EncodeToString(h.Sum(nil))

	result := maskPrefix + fullHash[:16]

	s.mu.Lock()
	s.cache[value] = result
	s.mu.Unlock()

	return result
}

// IsEncrypted reports whether a value carries the encrypted field prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}

// GenerateKey returns a new random base64-encoded AES-256 key.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
