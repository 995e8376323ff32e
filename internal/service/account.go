// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ItsRqtl/TeachCraft/internal/captcha"
	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
	"github.com/ItsRqtl/TeachCraft/internal/mail"
	"github.com/ItsRqtl/TeachCraft/internal/utils"
	"github.com/ItsRqtl/TeachCraft/models"
)

const minPasswordLength = 8

// accountService is the concrete implementation of [AccountService].
// It orchestrates the users store, the mailer, and the CAPTCHA verifier;
// all persistence and credential handling stays inside the store.
type accountService struct {
	users    UserStore
	mailer   mail.Mailer
	verifier captcha.Verifier

	// sessionSignKey is the HMAC secret used to sign and verify session JWTs.
	sessionSignKey string

	// sessionIssuer is the "iss" claim embedded in every issued session token.
	sessionIssuer string

	// sessionDuration controls how long a newly issued session remains valid.
	sessionDuration time.Duration

	// tokenValidity is the lifetime of single-use verification and recovery
	// tokens.
	tokenValidity time.Duration

	logger *logger.Logger
}

// NewAccountService constructs an [AccountService] wired to the given store,
// mailer, and CAPTCHA verifier, with session parameters from cfg and the
// session signing key derived from the keyring.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAccountService(users UserStore, mailer mail.Mailer, verifier captcha.Verifier, sessionSignKey string, cfg config.App, logger *logger.Logger) AccountService {
	return &accountService{
		users:           users,
		mailer:          mailer,
		verifier:        verifier,
		sessionSignKey:  sessionSignKey,
		sessionIssuer:   cfg.SessionIssuer,
		sessionDuration: cfg.SessionDuration,
		tokenValidity:   cfg.TokenValidity,
		logger:          logger,
	}
}

// Register creates a new unverified account and emails a verification link.
//
// The CAPTCHA challenge is checked before any account work happens. The
// verification email is sent after the account and token are durably stored;
// a mail delivery failure does not undo registration, since the user can
// request a fresh link later.
//
// Returns the persisted user or:
//   - [ErrInvalidDataProvided] if the email is not plausible.
//   - [ErrWeakPassword] if the password is shorter than the minimum.
//   - [ErrCaptchaRejected] if the challenge response is not acceptable.
//   - A wrapped storage error otherwise (see store.ErrEmailAlreadyExists).
func (a *accountService) Register(ctx context.Context, email, password, captchaResponse, remoteIP string) (models.User, error) {
	log := logger.FromContext(ctx)

	email = normalizeEmail(email)
	if !plausibleEmail(email) {
		return models.User{}, ErrInvalidDataProvided
	}
	if len(password) < minPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	if err := a.checkCaptcha(ctx, captchaResponse, remoteIP); err != nil {
		return models.User{}, err
	}

	user, err := a.users.CreateUser(ctx, email, password)
	if err != nil {
		log.Err(err).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	rawToken, err := a.users.CreateToken(ctx, user.ID, models.TokenPurposeEmail, a.tokenValidity)
	if err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("verification token issuance failed")
		return models.User{}, fmt.Errorf("verification token issuance failed: %w", err)
	}

	if err := a.mailer.SendVerificationEmail(ctx, user.Email, rawToken); err != nil {
		// the account exists either way; the user can request a new link
		log.Err(err).Str("user_id", user.ID.String()).Msg("verification email delivery failed")
	}

	return user, nil
}

// Login authenticates an email/password pair and issues a signed session
// token.
//
// Returns the session token or:
//   - [ErrInvalidDataProvided] if either field is empty.
//   - A wrapped storage error otherwise (see store.ErrInvalidCredentials).
func (a *accountService) Login(ctx context.Context, email, password string) (models.SessionToken, error) {
	log := logger.FromContext(ctx)

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.SessionToken{}, ErrInvalidDataProvided
	}

	user, err := a.users.VerifyUserCredentials(ctx, email, password)
	if err != nil {
		log.Err(err).Msg("credential verification failed")
		return models.SessionToken{}, fmt.Errorf("credential verification failed: %w", err)
	}

	session, err := utils.GenerateSessionToken(a.sessionIssuer, user.ID, a.sessionDuration, a.sessionSignKey)
	if err != nil {
		return models.SessionToken{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return session, nil
}

// Authenticate validates and parses a raw session token string.
//
// Any validation failure (expired, wrong issuer, malformed, bad signature)
// is normalised to [ErrSessionExpiredOrInvalid] so that callers do not need
// to inspect low-level JWT errors.
func (a *accountService) Authenticate(ctx context.Context, sessionString string) (models.SessionToken, error) {
	session, err := utils.ValidateAndParseSessionToken(sessionString, a.sessionSignKey, a.sessionIssuer)
	if err != nil {
		return models.SessionToken{}, ErrSessionExpiredOrInvalid
	}

	return session, nil
}

// Profile returns the account owned by userID.
func (a *accountService) Profile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("user lookup failed: %w", err)
	}

	return user, nil
}

// VerifyEmail consumes an email verification token, marking the owning
// account verified, and returns the owner's id.
func (a *accountService) VerifyEmail(ctx context.Context, rawToken string) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	if rawToken == "" {
		return uuid.Nil, ErrInvalidDataProvided
	}

	userID, err := a.users.ConsumeToken(ctx, models.TokenPurposeEmail, rawToken)
	if err != nil {
		log.Err(err).Msg("email verification failed")
		return uuid.Nil, fmt.Errorf("email verification failed: %w", err)
	}

	return userID, nil
}

// RequestRecovery issues a password recovery token and emails it to the
// account owner.
//
// An unknown email is reported as success so the endpoint cannot be used to
// probe which addresses have accounts; only the CAPTCHA gate and input
// validation surface errors to the caller.
func (a *accountService) RequestRecovery(ctx context.Context, email, captchaResponse, remoteIP string) error {
	log := logger.FromContext(ctx)

	email = normalizeEmail(email)
	if !plausibleEmail(email) {
		return ErrInvalidDataProvided
	}

	if err := a.checkCaptcha(ctx, captchaResponse, remoteIP); err != nil {
		return err
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		log.Info().Msg("recovery requested for unknown email")
		return nil
	}

	rawToken, err := a.users.CreateToken(ctx, user.ID, models.TokenPurposePassword, a.tokenValidity)
	if err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("recovery token issuance failed")
		return fmt.Errorf("recovery token issuance failed: %w", err)
	}

	if err := a.mailer.SendRecoveryEmail(ctx, user.Email, rawToken); err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("recovery email delivery failed")
		return fmt.Errorf("recovery email delivery failed: %w", err)
	}

	return nil
}

// ResetPassword consumes a password recovery token and stores the new
// password for the owning account. The store performs consumption and the
// password update in one transaction, so a rejected update leaves the token
// usable.
//
// Returns:
//   - [ErrWeakPassword] if the new password is shorter than the minimum.
//   - A wrapped storage error if the token is unknown or expired.
func (a *accountService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	log := logger.FromContext(ctx)

	if rawToken == "" {
		return ErrInvalidDataProvided
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	if _, err := a.users.ResetPassword(ctx, rawToken, newPassword); err != nil {
		log.Err(err).Msg("password reset rejected")
		return fmt.Errorf("password reset rejected: %w", err)
	}

	return nil
}

func (a *accountService) checkCaptcha(ctx context.Context, response, remoteIP string) error {
	err := a.verifier.Verify(ctx, response, remoteIP)
	if err == nil {
		return nil
	}
	if errors.Is(err, captcha.ErrChallengeFailed) {
		return ErrCaptchaRejected
	}
	return fmt.Errorf("captcha verification failed: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// plausibleEmail is a cheap shape check; real validation is the verification
// mail itself.
func plausibleEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && len(email) <= 255
}
