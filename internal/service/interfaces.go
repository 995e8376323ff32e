// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ItsRqtl/TeachCraft/models"
)

// AccountService is the full user account lifecycle: registration with email
// verification, login with session issuance, and token-driven password
// recovery.
type AccountService interface {
	Register(ctx context.Context, email, password, captchaResponse, remoteIP string) (models.User, error)
	Login(ctx context.Context, email, password string) (models.SessionToken, error)
	Authenticate(ctx context.Context, sessionString string) (models.SessionToken, error)

	Profile(ctx context.Context, userID uuid.UUID) (models.User, error)

	VerifyEmail(ctx context.Context, rawToken string) (uuid.UUID, error)
	RequestRecovery(ctx context.Context, email, captchaResponse, remoteIP string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

// UserStore is the persistence surface the account service depends on.
// *store.UsersDAO satisfies it.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, email, password string) (models.User, error)
	VerifyUserCredentials(ctx context.Context, email, password string) (models.User, error)
	CreateToken(ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose, validity time.Duration) (string, error)
	ConsumeToken(ctx context.Context, purpose models.TokenPurpose, raw string) (uuid.UUID, error)
	ResetPassword(ctx context.Context, rawToken, password string) (uuid.UUID, error)
}
