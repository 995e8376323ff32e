// SPDX-License-Identifier: Apache-2.0

package store

import "errors"

// Sentinel errors returned by DAO methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when an attempt to register a new
	// user fails because a user with the same email already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound is returned when a point lookup targets a user that
	// does not exist. Absence is an expected condition, not a crash.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is the single uniform outcome for every
	// credential failure: unknown email, wrong password, malformed stored
	// hash. The cases are deliberately never distinguished to the caller so
	// that account existence does not leak through error shape.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidTokenPurpose is returned when a token operation names a
	// purpose outside {email, password}. Rejected before any I/O.
	ErrInvalidTokenPurpose = errors.New("invalid token purpose")

	// ErrTokenNotFound is returned when no live token row matches the
	// presented raw token for the given purpose.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired is returned when a matching token row exists but is
	// past its expiry. The row is left in place for the cleanup worker.
	ErrTokenExpired = errors.New("token expired")
)

// Database client state-machine errors. These indicate programmer errors in
// lifecycle sequencing and should never surface to end users.
var (
	// ErrAlreadyInitialized is returned by Initialize when the client's
	// pool is already open or the ready flag is already set.
	ErrAlreadyInitialized = errors.New("database client is already initialized")

	// ErrNotReady is returned when an operation requires an initialized,
	// ready client: acquisition before Initialize, after Close, or Close
	// itself while not ready.
	ErrNotReady = errors.New("database client is not initialized")

	// ErrDuplicateDAO is returned at construction when two DAOs claim the
	// same registry name.
	ErrDuplicateDAO = errors.New("duplicate DAO name")

	// ErrNilDAO is returned at construction when a DAO factory produces nil.
	ErrNilDAO = errors.New("DAO factory returned nil")
)

// Low-level database operation errors. These are returned (or wrapped) by
// DAO methods when a SQL-level operation fails before any domain logic can
// be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommittingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back at this
	// point.
	ErrCommittingTransaction = errors.New("failed to commit transaction")
)
