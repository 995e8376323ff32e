// SPDX-License-Identifier: Apache-2.0

package crypto

import "errors"

// Keyring construction errors. These are configuration errors: the process
// must not continue serving traffic if key derivation fails at startup.
var (
	// ErrInvalidMasterSecret is returned when the master secret is not a
	// valid hex string.
	ErrInvalidMasterSecret = errors.New("master secret is not valid hex")

	// ErrMasterSecretTooShort is returned when the decoded master secret is
	// too short to serve as strong input keying material.
	ErrMasterSecretTooShort = errors.New("master secret is too short")
)

// Password hashing errors returned by [PasswordHasher.Verify]. Callers that
// collapse credential failures must treat mismatch and malformed hash
// uniformly; the distinction exists for logging only.
var (
	// ErrPasswordMismatch is returned when the password does not match the
	// stored hash.
	ErrPasswordMismatch = errors.New("password does not match hash")

	// ErrMalformedPasswordHash is returned when the stored hash string
	// cannot be parsed as an argon2id PHC record.
	ErrMalformedPasswordHash = errors.New("malformed password hash")

	// ErrIncompatibleHashVersion is returned when the stored hash was
	// produced by an unsupported argon2 version.
	ErrIncompatibleHashVersion = errors.New("incompatible argon2 version")
)
