// SPDX-License-Identifier: Apache-2.0

package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose identifies the intended use of a single-use user token.
type TokenPurpose string

const (
	// TokenPurposeEmail marks a token issued for email address verification.
	TokenPurposeEmail TokenPurpose = "email"

	// TokenPurposePassword marks a token issued for password recovery.
	TokenPurposePassword TokenPurpose = "password"
)

// Valid reports whether p is one of the known token purposes.
func (p TokenPurpose) Valid() bool {
	return p == TokenPurposeEmail || p == TokenPurposePassword
}

// String implements [fmt.Stringer].
func (p TokenPurpose) String() string {
	return string(p)
}

// UserToken is the persisted form of a single-use token. Only the keyed hash
// of the raw token is ever stored; the raw token is handed to the user once
// and never persisted or logged.
//
// Invariant: at most one live token exists per (UserID, Purpose) pair.
// Issuing a new token for a purpose replaces any previous one atomically.
type UserToken struct {
	// ID is the unique, time-ordered (UUIDv7) identifier of the token row.
	ID uuid.UUID `json:"-"`

	// UserID is the owner of the token. Token rows are cascade-deleted
	// together with the owning user.
	UserID uuid.UUID `json:"-"`

	// Purpose is the single use this token is valid for.
	Purpose TokenPurpose `json:"purpose"`

	// TokenHash is the 32-byte HMAC-SHA256 of the raw token.
	TokenHash []byte `json:"-"`

	// ExpiresAt is the absolute instant after which the token must be
	// rejected, even if the row has not been cleaned up yet.
	ExpiresAt time.Time `json:"expires_at"`
}

// TableName returns the name of the database table
// associated with the UserToken model.
func (t UserToken) TableName() string {
	return "user_tokens"
}

// Expired reports whether the token is past its expiry at the given instant.
func (t UserToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
