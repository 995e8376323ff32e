// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"

	"github.com/ItsRqtl/TeachCraft/internal/crypto"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
	"github.com/ItsRqtl/TeachCraft/models"
)

const usersDAOName = "users"

// rawTokenBytes is the entropy of a single-use token before URL-safe
// base64 encoding.
const rawTokenBytes = 32

// defaultTokenValidity applies when CreateToken is called with a
// non-positive validity window.
const defaultTokenValidity = time.Hour

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// UsersDAO owns every row of the users and user_tokens tables. All
// credential verification, token issuance, and token consumption flows
// through it; no other component issues SQL against those tables.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type UsersDAO struct {
	client *Client
	hasher *crypto.PasswordHasher
	logger *logger.Logger

	now func() time.Time
}

// NewUsersDAO returns a [DAOFactory] producing the users DAO with the given
// password hasher. Meant to be passed to [NewClient].
func NewUsersDAO(hasher *crypto.PasswordHasher, log *logger.Logger) DAOFactory {
	return func(c *Client) DAO {
		log.Debug().Msg("creating users DAO")
		return &UsersDAO{
			client: c,
			hasher: hasher,
			logger: log,
			now:    time.Now,
		}
	}
}

// Name implements [DAO].
func (d *UsersDAO) Name() string { return usersDAOName }

// Initialize implements [DAO]: it applies the embedded schema migrations
// during client bootstrap, before the client becomes ready.
func (d *UsersDAO) Initialize(ctx context.Context) error {
	return d.client.migrate(ctx)
}

// GetUser retrieves a user by primary key.
//
// Error handling:
//   - No matching row → [ErrUserNotFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	log := logger.FromContext(ctx)

	var user models.User
	err := d.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return scanUser(conn.QueryRowContext(ctx, findUserByID, id), &user)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*UsersDAO.GetUser").Msg("error: user lookup failed")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address.
//
// Error handling:
//   - No matching row → [ErrUserNotFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	log := logger.FromContext(ctx)

	var user models.User
	err := d.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return scanUser(conn.QueryRowContext(ctx, findUserByEmail, email), &user)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*UsersDAO.GetUserByEmail").Msg("error: user lookup failed")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// CreateUser hashes the plaintext password and persists a new user record
// with a fresh time-ordered UUID, returning the populated [models.User].
// New accounts always start unverified.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrEmailAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) CreateUser(ctx context.Context, email, password string) (models.User, error) {
	log := logger.FromContext(ctx)

	hash, err := d.hasher.Hash(password)
	if err != nil {
		log.Err(err).Str("func", "*UsersDAO.CreateUser").Msg("error: hashing password")
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.User{}, fmt.Errorf("generating user id: %w", err)
	}

	user := models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
	}

	err = d.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, createUser, user.ID, user.Email, user.PasswordHash)
		return row.Scan(&user.CreatedAt)
	})
	if err != nil {
		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrEmailAlreadyExists
		default:
			log.Err(err).Str("func", "*UsersDAO.CreateUser").Msg("error: inserting user")
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return user, nil
}

// VerifyUserCredentials authenticates an email/password pair and returns the
// matching user on success.
//
// Both a non-existent email and a wrong password collapse into
// [ErrInvalidCredentials], and the non-existent-email path still runs a
// dummy hash verification so the two failures take comparable time.
func (d *UsersDAO) VerifyUserCredentials(ctx context.Context, email, password string) (models.User, error) {
	user, err := d.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			d.hasher.DummyVerify()
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := d.hasher.Verify(user.PasswordHash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// CreateToken issues a fresh single-use token for the given user and
// purpose, valid for the given window (a non-positive window falls back to
// one hour). Any previously issued token of the same purpose is invalidated
// in the same transaction, so at most one live token per (user, purpose)
// exists at any time.
//
// The returned string is the only copy of the plaintext token; the database
// stores a purpose-bound HMAC digest of it.
//
// Error handling:
//   - Unknown purpose → [ErrInvalidTokenPurpose] before any I/O.
//   - Any driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) CreateToken(ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose, validity time.Duration) (string, error) {
	log := logger.FromContext(ctx)

	if !purpose.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenPurpose, purpose)
	}
	if validity <= 0 {
		validity = defaultTokenValidity
	}

	secret, err := d.client.Keyring().GenerateSecret(rawTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(secret)

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating token id: %w", err)
	}

	token := models.UserToken{
		ID:        id,
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: d.client.Keyring().HashToken(purpose, raw),
		ExpiresAt: d.now().Add(validity),
	}

	err = d.client.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, deleteTokensForPurpose, token.UserID, token.Purpose.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertToken, token.ID, token.UserID, token.Purpose.String(), token.TokenHash, token.ExpiresAt)
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "*UsersDAO.CreateToken").Str("purpose", purpose.String()).Msg("error: issuing token")
		return "", fmt.Errorf("unexpected DB error: %w", err)
	}

	return raw, nil
}

// ConsumeToken validates a plaintext token of the given purpose and, if it
// matches a live row, deletes it and applies its side effect. Consuming an
// email-verification token flips the owning user's verified flag; both the
// delete and the flip happen in one transaction, so a token can never be
// consumed twice.
//
// Error handling:
//   - Unknown purpose → [ErrInvalidTokenPurpose] before any I/O.
//   - No row with a matching digest → [ErrTokenNotFound].
//   - Matching row past its expiry → [ErrTokenExpired]; the row is left in
//     place for the cleanup worker.
func (d *UsersDAO) ConsumeToken(ctx context.Context, purpose models.TokenPurpose, raw string) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	if !purpose.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidTokenPurpose, purpose)
	}

	digest := d.client.Keyring().HashToken(purpose, raw)

	var userID uuid.UUID
	err := d.client.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		token, err := d.consumeToken(ctx, tx, purpose, digest)
		if err != nil {
			return err
		}

		if token.Purpose == models.TokenPurposeEmail {
			if _, err := tx.ExecContext(ctx, markUserVerified, token.UserID); err != nil {
				return err
			}
		}

		userID = token.UserID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired) {
			return uuid.Nil, err
		}
		log.Err(err).Str("func", "*UsersDAO.ConsumeToken").Str("purpose", purpose.String()).Msg("error: consuming token")
		return uuid.Nil, fmt.Errorf("unexpected DB error: %w", err)
	}

	return userID, nil
}

// consumeToken looks up a live token row by purpose and digest inside tx,
// checks its expiry, and deletes the row. Expired rows are left in place for
// the cleanup worker.
func (d *UsersDAO) consumeToken(ctx context.Context, tx DBTX, purpose models.TokenPurpose, digest []byte) (models.UserToken, error) {
	var token models.UserToken
	var purposeStr string
	row := tx.QueryRowContext(ctx, findTokenByHash, purpose.String(), digest)
	if err := row.Scan(&token.ID, &token.UserID, &purposeStr, &token.TokenHash, &token.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserToken{}, ErrTokenNotFound
		}
		return models.UserToken{}, err
	}
	token.Purpose = models.TokenPurpose(purposeStr)

	if token.Expired(d.now()) {
		return models.UserToken{}, ErrTokenExpired
	}

	if _, err := tx.ExecContext(ctx, deleteTokenByID, token.ID); err != nil {
		return models.UserToken{}, err
	}

	return token, nil
}

// ResetPassword consumes a password recovery token and stores the new
// password for the owning account. Consumption and the update share one
// transaction, so a failed update rolls the token back instead of burning it.
//
// Error handling:
//   - No row with a matching digest → [ErrTokenNotFound].
//   - Matching row past its expiry → [ErrTokenExpired]; the row is left in
//     place for the cleanup worker.
//   - Owning user row missing → [ErrUserNotFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) ResetPassword(ctx context.Context, raw, password string) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	hash, err := d.hasher.Hash(password)
	if err != nil {
		log.Err(err).Str("func", "*UsersDAO.ResetPassword").Msg("error: hashing password")
		return uuid.Nil, fmt.Errorf("hashing password: %w", err)
	}

	digest := d.client.Keyring().HashToken(models.TokenPurposePassword, raw)

	var userID uuid.UUID
	err = d.client.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		token, err := d.consumeToken(ctx, tx, models.TokenPurposePassword, digest)
		if err != nil {
			return err
		}

		query, args, err := psql.Update(models.User{}.TableName()).
			Set("password_hash", hash).
			Where(sq.Eq{"id": token.UserID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrUserNotFound
		}

		userID = token.UserID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, err
		}
		log.Err(err).Str("func", "*UsersDAO.ResetPassword").Msg("error: resetting password")
		return uuid.Nil, fmt.Errorf("unexpected DB error: %w", err)
	}

	return userID, nil
}

// UpdatePassword hashes the new plaintext password and stores it for the
// given user.
//
// Error handling:
//   - No matching user row → [ErrUserNotFound].
//   - Query construction failure → [ErrBuildingSQLQuery].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (d *UsersDAO) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	log := logger.FromContext(ctx)

	hash, err := d.hasher.Hash(password)
	if err != nil {
		log.Err(err).Str("func", "*UsersDAO.UpdatePassword").Msg("error: hashing password")
		return fmt.Errorf("hashing password: %w", err)
	}

	query, args, err := psql.Update(models.User{}.TableName()).
		Set("password_hash", hash).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return d.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			log.Err(err).Str("func", "*UsersDAO.UpdatePassword").Msg("error: updating password")
			return fmt.Errorf("unexpected DB error: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("unexpected DB error: %w", err)
		}
		if affected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// DeleteExpiredTokens removes every token row whose expiry has passed and
// reports how many were removed. Run periodically by the cleanup worker.
func (d *UsersDAO) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Delete(models.UserToken{}.TableName()).
		Where(sq.Lt{"expires_at": d.now()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var deleted int64
	err = d.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "*UsersDAO.DeleteExpiredTokens").Msg("error: deleting expired tokens")
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return deleted, nil
}

func scanUser(row *sql.Row, user *models.User) error {
	return row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Verified, &user.CreatedAt)
}
