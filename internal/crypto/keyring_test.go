package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/ItsRqtl/TeachCraft/models"
)

const testMaster = "6d61737465722d7365637265742d6d61737465722d7365637265742d31323334" // 32 bytes of hex

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	k, err := NewKeyring(testMaster, "teachcraft:v1")
	if err != nil {
		t.Fatalf("NewKeyring error: %v", err)
	}
	return k
}

func TestNewKeyring_InvalidHex(t *testing.T) {
	_, err := NewKeyring("not-hex-at-all", "teachcraft:v1")
	if !errors.Is(err, ErrInvalidMasterSecret) {
		t.Fatalf("expected ErrInvalidMasterSecret, got %v", err)
	}
}

func TestNewKeyring_TooShort(t *testing.T) {
	_, err := NewKeyring("deadbeef", "teachcraft:v1")
	if !errors.Is(err, ErrMasterSecretTooShort) {
		t.Fatalf("expected ErrMasterSecretTooShort, got %v", err)
	}
}

func TestNewKeyring_Deterministic(t *testing.T) {
	k1 := newTestKeyring(t)
	k2 := newTestKeyring(t)

	if !bytes.Equal(k1.encKey, k2.encKey) {
		t.Fatal("expected identical encryption keys for same master+context")
	}
	if k1.SessionSecret() != k2.SessionSecret() {
		t.Fatal("expected identical session secrets for same master+context")
	}
}

func TestNewKeyring_DomainSeparation(t *testing.T) {
	k1 := newTestKeyring(t)
	k2, err := NewKeyring(testMaster, "teachcraft:v2")
	if err != nil {
		t.Fatalf("NewKeyring error: %v", err)
	}

	if bytes.Equal(k1.encKey, k2.encKey) {
		t.Fatal("expected different encryption keys for different contexts")
	}
	if k1.SessionSecret() == k2.SessionSecret() {
		t.Fatal("expected different session secrets for different contexts")
	}
}

func TestNewKeyring_KeysDifferPerPurpose(t *testing.T) {
	k := newTestKeyring(t)

	keys := [][]byte{k.encKey, k.tokenMACKey, k.passwordMACKey, k.sessionSecretKey}
	for i := range keys {
		if len(keys[i]) != derivedKeyLen {
			t.Fatalf("key %d length = %d, want %d", i, len(keys[i]), derivedKeyLen)
		}
		for j := i + 1; j < len(keys); j++ {
			if bytes.Equal(keys[i], keys[j]) {
				t.Fatalf("keys %d and %d are equal, want domain-separated keys", i, j)
			}
		}
	}
}

func TestSessionSecret_LowercaseHex(t *testing.T) {
	k := newTestKeyring(t)

	secret := k.SessionSecret()
	if secret != strings.ToLower(secret) {
		t.Fatal("expected lowercase hex session secret")
	}
	decoded, err := hex.DecodeString(secret)
	if err != nil {
		t.Fatalf("session secret is not valid hex: %v", err)
	}
	if len(decoded) != derivedKeyLen {
		t.Fatalf("session secret length = %d, want %d", len(decoded), derivedKeyLen)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	k := newTestKeyring(t)
	plaintext := []byte("alice@example.com")

	blob, err := k.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	decrypted, err := k.Decrypt(blob)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Fatalf("round trip mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestEncrypt_NonceFreshness(t *testing.T) {
	k := newTestKeyring(t)
	plaintext := []byte("same plaintext")

	b1, err := k.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	b2, err := k.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if bytes.Equal(b1, b2) {
		t.Fatal("expected different blobs for repeated encryption of same plaintext")
	}
}

func TestDecrypt_BitFlipFails(t *testing.T) {
	k := newTestKeyring(t)

	blob, err := k.Encrypt([]byte("integrity protected"))
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	for i := range blob {
		tampered := bytes.Clone(blob)
		tampered[i] ^= 0x01
		if _, err := k.Decrypt(tampered); err == nil {
			t.Fatalf("expected integrity error after flipping bit in byte %d", i)
		}
	}
}

func TestDecrypt_TruncatedBlob(t *testing.T) {
	k := newTestKeyring(t)

	if _, err := k.Decrypt([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("expected error for blob shorter than nonce")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	k1 := newTestKeyring(t)
	k2, err := NewKeyring(testMaster, "other-deployment")
	if err != nil {
		t.Fatalf("NewKeyring error: %v", err)
	}

	blob, err := k1.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if _, err := k2.Decrypt(blob); err == nil {
		t.Fatal("expected authentication error when decrypting under different key")
	}
}

func TestHashToken_LengthAndDeterminism(t *testing.T) {
	k := newTestKeyring(t)

	h1 := k.HashToken(models.TokenPurposeEmail, "raw-token")
	h2 := k.HashToken(models.TokenPurposeEmail, "raw-token")

	if len(h1) != 32 {
		t.Fatalf("token hash length = %d, want 32", len(h1))
	}
	if !bytes.Equal(h1, h2) {
		t.Fatal("expected identical hashes for same purpose+token")
	}
}

func TestHashToken_PurposeSeparation(t *testing.T) {
	k := newTestKeyring(t)

	emailHash := k.HashToken(models.TokenPurposeEmail, "raw-token")
	passwordHash := k.HashToken(models.TokenPurposePassword, "raw-token")

	if bytes.Equal(emailHash, passwordHash) {
		t.Fatal("expected different hashes for different purposes")
	}
}

func TestGenerateSecret_LengthAndRandomness(t *testing.T) {
	k := newTestKeyring(t)

	s1, err := k.GenerateSecret(32)
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}
	s2, err := k.GenerateSecret(32)
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}

	if len(s1) != 32 || len(s2) != 32 {
		t.Fatalf("secret lengths = %d, %d, want 32", len(s1), len(s2))
	}
	if bytes.Equal(s1, s2) {
		t.Fatal("expected secrets to differ, but they are equal")
	}
}
