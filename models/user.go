// SPDX-License-Identifier: Apache-2.0

package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account used for authentication.
// It contains identity attributes and credential-related data.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// ID is the unique, time-ordered (UUIDv7) identifier of the user.
	ID uuid.UUID `json:"id"`

	// Email is the unique, normalized email address of the user.
	// It doubles as the login identifier.
	Email string `json:"email"`

	// PasswordHash stores the argon2id PHC-encoded hash of the user's
	// password. This value is an opaque, self-describing hash string and
	// MUST never contain the plaintext password.
	// It is never exposed via JSON.
	PasswordHash string `json:"-"`

	// Verified reports whether the user has confirmed ownership of the
	// email address by consuming an email verification token.
	Verified bool `json:"verified"`

	// CreatedAt is the timestamp when the account was created.
	// Set once at registration and never updated afterwards.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
