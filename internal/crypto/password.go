// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher hashes and verifies user passwords with Argon2id, encoded
// in the standard PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 salt>$<base64 digest>
//
// The encoded string is self-describing: verification always uses the
// parameters stored in the hash, so parameters can be tuned per deployment
// without invalidating existing credentials.
//
// Argon2id is intentionally memory-hard and slow. Hash and Verify acquire a
// slot from a bounded semaphore so that a burst of login attempts cannot pin
// every scheduler thread in hashing and starve the connection pool.
type PasswordHasher struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
	saltLen      int

	// sem bounds the number of concurrent argon2 computations.
	sem chan struct{}

	// dummyHash is a hash of random material computed at construction.
	// DummyVerify compares against it to equalize the timing of the
	// unknown-email path with the known-email path.
	dummyHash string
}

// NewPasswordHasher constructs a [PasswordHasher] with the Argon2id
// parameters recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
//
// maxConcurrent bounds how many hashing operations may run at once; values
// below 1 are clamped to 1.
func NewPasswordHasher(maxConcurrent int) *PasswordHasher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	h := &PasswordHasher{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
		saltLen:      16,
		sem:          make(chan struct{}, maxConcurrent),
	}

	dummy := make([]byte, 32)
	_, _ = io.ReadFull(rand.Reader, dummy)
	h.dummyHash, _ = h.Hash(base64.RawStdEncoding.EncodeToString(dummy))

	return h
}

// Hash derives an Argon2id digest of password under a fresh random salt and
// returns the PHC-encoded hash string. The plaintext password is never
// stored anywhere.
func (h *PasswordHasher) Hash(password string) (string, error) {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	salt := make([]byte, h.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, h.argonTime, h.argonMemory, h.argonThreads, h.argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.argonMemory,
		h.argonTime,
		h.argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)

	return encoded, nil
}

// Verify recomputes the Argon2id digest of password using the parameters and
// salt embedded in the PHC-encoded hash and compares it in constant time.
//
// Returns nil on match, [ErrPasswordMismatch] on mismatch, and
// [ErrMalformedPasswordHash] or [ErrIncompatibleHashVersion] if encoded
// cannot be interpreted. Callers enforcing the uniform credential-failure
// policy must collapse all three into one outcome.
func (h *PasswordHasher) Verify(encoded, password string) error {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	salt, digest, time, memory, threads, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(digest)))
	if subtle.ConstantTimeCompare(digest, computed) != 1 {
		return ErrPasswordMismatch
	}

	return nil
}

// DummyVerify burns approximately the same CPU time as a failed Verify by
// checking an unmatchable password against a precomputed hash. Callers use
// it on the unknown-email path so that account existence does not leak
// through response timing.
func (h *PasswordHasher) DummyVerify() {
	_ = h.Verify(h.dummyHash, "")
}

// decodeHash parses a PHC-encoded argon2id hash string into its components.
func decodeHash(encoded string) (salt, digest []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrMalformedPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: %w", ErrMalformedPasswordHash, err)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrIncompatibleHashVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: %w", ErrMalformedPasswordHash, err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: %w", ErrMalformedPasswordHash, err)
	}
	if digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: %w", ErrMalformedPasswordHash, err)
	}

	return salt, digest, time, memory, threads, nil
}
