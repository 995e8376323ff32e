// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ItsRqtl/TeachCraft/internal/store"
)

func TestVerifyEmailHandler_Success(t *testing.T) {
	accounts := &mockAccountService{
		verifyEmailFn: func(ctx context.Context, rawToken string) (uuid.UUID, error) {
			assert.Equal(t, "raw-verification-token", rawToken)
			return uuid.New(), nil
		},
	}
	h := newHandlerWithAccounts(t, accounts)

	body := `{"token":"raw-verification-token"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestVerifyEmailHandler_TokenRejected(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown token", store.ErrTokenNotFound, http.StatusGone},
		{"expired token", store.ErrTokenExpired, http.StatusGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccountService{
				verifyEmailFn: func(ctx context.Context, rawToken string) (uuid.UUID, error) {
					return uuid.Nil, tt.err
				},
			}
			h := newHandlerWithAccounts(t, accounts)

			body := `{"token":"some-token"}`
			req := httptest.NewRequest(http.MethodPost, "/api/user/verify", strings.NewReader(body))
			rec := httptest.NewRecorder()

			h.Init().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequestRecoveryHandler_AlwaysAccepted(t *testing.T) {
	accounts := &mockAccountService{
		requestRecoveryFn: func(ctx context.Context, email, captchaResponse, remoteIP string) error {
			return nil
		},
	}
	h := newHandlerWithAccounts(t, accounts)

	body := `{"email":"ghost@example.com","captcha_response":"challenge"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/recover", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestResetPasswordHandler_Success(t *testing.T) {
	accounts := &mockAccountService{
		resetPasswordFn: func(ctx context.Context, rawToken, newPassword string) error {
			assert.Equal(t, "raw-recovery-token", rawToken)
			assert.Equal(t, "brand-new-password", newPassword)
			return nil
		},
	}
	h := newHandlerWithAccounts(t, accounts)

	body := `{"token":"raw-recovery-token","new_password":"brand-new-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/reset", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestResetPasswordHandler_TokenRejected(t *testing.T) {
	accounts := &mockAccountService{
		resetPasswordFn: func(ctx context.Context, rawToken, newPassword string) error {
			return store.ErrTokenNotFound
		},
	}
	h := newHandlerWithAccounts(t, accounts)

	body := `{"token":"unknown","new_password":"brand-new-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/reset", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
}
