// SPDX-License-Identifier: Apache-2.0

// Package crypto owns all cryptographic key material and primitives used by
// the account backend: master-secret key derivation, authenticated
// encryption, keyed token hashing, and memory-hard password hashing.
//
// All derived keys live exclusively inside a [Keyring] instance for the
// process lifetime. No other component may derive or cache them.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/ItsRqtl/TeachCraft/models"
)

const (
	// derivedKeyLen is the length in bytes of every purpose-scoped key.
	derivedKeyLen = 32

	// minMasterSecretLen is the minimum decoded length of the master secret.
	// Anything shorter is too weak to serve as HKDF input keying material.
	minMasterSecretLen = 32

	// gcmNonceSize is the AES-GCM nonce length prepended to every blob.
	gcmNonceSize = 12
)

// Keyring derives purpose-scoped secret material from one master secret and
// exposes the encryption and hashing primitives built on it.
//
// Four 256-bit keys are derived once at construction via HKDF-SHA256 with a
// context-scoped salt ("hkdf_salt:" + context) and per-purpose info strings
// (context + ":" + label). Distinct info strings domain-separate the keys, so
// misuse of one derived key cannot be leveraged against another purpose.
//
// A Keyring is immutable after construction and safe for concurrent use.
type Keyring struct {
	encKey           []byte
	tokenMACKey      []byte
	passwordMACKey   []byte
	sessionSecretKey []byte
}

// NewKeyring derives the four purpose-scoped keys from the hex-encoded
// master secret and the deployment context label (e.g. "teachcraft:v1").
//
// Returns [ErrInvalidMasterSecret] if master is not valid hex and
// [ErrMasterSecretTooShort] if the decoded material is shorter than 32
// bytes. Both are fatal configuration errors: startup must abort.
func NewKeyring(master, context string) (*Keyring, error) {
	ikm, err := hex.DecodeString(master)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMasterSecret, err)
	}
	if len(ikm) < minMasterSecretLen {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrMasterSecretTooShort, minMasterSecretLen, len(ikm))
	}

	salt := []byte("hkdf_salt:" + context)
	derive := func(label string) ([]byte, error) {
		info := []byte(context + ":" + label)
		key := make([]byte, derivedKeyLen)
		if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), key); err != nil {
			return nil, fmt.Errorf("deriving %q key: %w", label, err)
		}
		return key, nil
	}

	k := &Keyring{}
	for _, d := range []struct {
		label string
		dst   *[]byte
	}{
		{"encryption", &k.encKey},
		{"token_mac", &k.tokenMACKey},
		{"password_mac", &k.passwordMACKey},
		{"session_secret", &k.sessionSecretKey},
	} {
		if *d.dst, err = derive(d.label); err != nil {
			return nil, err
		}
	}

	return k, nil
}

// SessionSecret returns the session-signing key as a lowercase hex string.
// Pure; the value is stable for the process lifetime.
func (k *Keyring) SessionSecret() string {
	return hex.EncodeToString(k.sessionSecretKey)
}

// Encrypt seals plaintext with the encryption key using AES-256-GCM.
// A fresh 12-byte random nonce is prepended to the ciphertext so that
// [Keyring.Decrypt] can locate it: blob = nonce ‖ ciphertext ‖ tag.
//
// Two calls with the same plaintext always yield different blobs: nonce
// reuse under the same key would break both confidentiality and integrity.
func (k *Keyring) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := k.encGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by [Keyring.Encrypt]. The first 12 bytes are
// taken as the nonce, the remainder as ciphertext plus tag.
//
// Returns an error if the blob was truncated, corrupted, or encrypted under
// a different key (authentication-tag mismatch). Callers must propagate the
// failure: it signals tampering or a key-rotation mismatch, never "empty data".
func (k *Keyring) Decrypt(blob []byte) ([]byte, error) {
	gcm, err := k.encGCM()
	if err != nil {
		return nil, err
	}

	if len(blob) < gcmNonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := blob[:gcmNonceSize], blob[gcmNonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}

// HashToken computes the 32-byte HMAC-SHA256 of a raw single-use token under
// the token MAC key. The purpose string is mixed into the MAC input so that
// an email token can never satisfy a password-recovery lookup.
//
// Only this digest is ever stored; the raw token stays with the user.
func (k *Keyring) HashToken(purpose models.TokenPurpose, raw string) []byte {
	mac := hmac.New(sha256.New, k.tokenMACKey)
	mac.Write([]byte(purpose))
	mac.Write([]byte{':'})
	mac.Write([]byte(raw))
	return mac.Sum(nil)
}

// GenerateSecret reads length cryptographically secure random bytes from the
// OS CSPRNG. Used for nonces (length 12) and raw token material (length 32,
// URL-safe encoded before hashing).
func (k *Keyring) GenerateSecret(length int) ([]byte, error) {
	secret := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

func (k *Keyring) encGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.encKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
