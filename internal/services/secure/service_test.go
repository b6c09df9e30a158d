package secure

import (
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/probo/internal/common"
)

func newTestService(t *testing.T, withKey bool) *Service {
	t.Helper()
	config := common.NewDefaultConfig()
	if withKey {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		t.Setenv(config.Secure.KeyEnv, key)
	} else {
		t.Setenv(config.Secure.KeyEnv, "")
	}

	service, err := NewService(config, common.GetLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

// TestEncryptDecryptRoundTrip verifies sealed values open back to the input
func TestEncryptDecryptRoundTrip(t *testing.T) {
	service := newTestService(t, true)

	plaintext := "card-4111-1111-1111-1111"
	sealed, err := service.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !IsEncrypted(sealed) {
		t.Errorf("sealed value %q missing enc:v1: prefix", sealed)
	}
	if strings.Contains(sealed, plaintext) {
		t.Error("sealed value leaks plaintext")
	}

	opened, err := service.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if opened != plaintext {
		t.Errorf("Decrypt = %q, want %q", opened, plaintext)
	}

	// Fresh nonces: two seals of the same value must differ
	sealed2, err := service.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("second Encrypt failed: %v", err)
	}
	if sealed == sealed2 {
		t.Error("two encryptions produced identical output")
	}
}

// TestEncryptWithoutKey verifies ErrNoKey without configuration
func TestEncryptWithoutKey(t *testing.T) {
	service := newTestService(t, false)

	if service.HasKey() {
		t.Fatal("service without key reports HasKey")
	}
	if _, err := service.Encrypt("x"); !errors.Is(err, ErrNoKey) {
		t.Errorf("Encrypt without key: err = %v, want ErrNoKey", err)
	}
	if _, err := service.Decrypt("enc:v1:abc"); !errors.Is(err, ErrNoKey) {
		t.Errorf("Decrypt without key: err = %v, want ErrNoKey", err)
	}
}

// TestDecryptRejectsPlainValues verifies non-encrypted input is rejected
func TestDecryptRejectsPlainValues(t *testing.T) {
	service := newTestService(t, true)

	if _, err := service.Decrypt("just-a-string"); err == nil {
		t.Error("Decrypt accepted a value without the enc prefix")
	}
	if _, err := service.Decrypt("enc:v1:%%%not-base64%%%"); err == nil {
		t.Error("Decrypt accepted invalid base64")
	}
	if _, err := service.Decrypt("enc:v1:YWJj"); err == nil {
		t.Error("Decrypt accepted a truncated payload")
	}
}

// TestMaskStable verifies masks are deterministic and salted
func TestMaskStable(t *testing.T) {
	service := newTestService(t, false)

	mask1 := service.Mask("alice@example.com")
	mask2 := service.Mask("alice@example.com")
	if mask1 != mask2 {
		t.Errorf("masks differ for equal input: %q vs %q", mask1, mask2)
	}
	if !strings.HasPrefix(mask1, "masked:") {
		t.Errorf("mask %q missing prefix", mask1)
	}
	if len(mask1) != len("masked:")+16 {
		t.Errorf("mask %q has wrong length", mask1)
	}

	if service.Mask("bob@example.com") == mask1 {
		t.Error("different inputs produced the same mask")
	}
	if service.Mask("") != "" {
		t.Error("empty value should stay empty")
	}
}

// TestKeyValidation verifies malformed keys are rejected
func TestKeyValidation(t *testing.T) {
	config := common.NewDefaultConfig()

	t.Setenv(config.Secure.KeyEnv, "not-base64!!!")
	if _, err := NewService(config, common.GetLogger()); err == nil {
		t.Error("invalid base64 key accepted")
	}

	t.Setenv(config.Secure.KeyEnv, "c2hvcnQ=") // "short"
	if _, err := NewService(config, common.GetLogger()); err == nil {
		t.Error("short key accepted")
	}
}
