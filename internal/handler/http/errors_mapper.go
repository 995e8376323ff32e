// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"net/http"

	"github.com/ItsRqtl/TeachCraft/internal/service"
	"github.com/ItsRqtl/TeachCraft/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrWeakPassword:            http.StatusBadRequest,
	service.ErrCaptchaRejected:         http.StatusBadRequest,
	service.ErrSessionExpiredOrInvalid: http.StatusUnauthorized,

	store.ErrEmailAlreadyExists:  http.StatusConflict,
	store.ErrInvalidCredentials:  http.StatusUnauthorized,
	store.ErrUserNotFound:        http.StatusNotFound,
	store.ErrTokenNotFound:       http.StatusGone,
	store.ErrTokenExpired:        http.StatusGone,
	store.ErrInvalidTokenPurpose: http.StatusBadRequest,

	store.ErrNotReady:              http.StatusServiceUnavailable,
	store.ErrBuildingSQLQuery:      http.StatusInternalServerError,
	store.ErrBeginningTransaction:  http.StatusInternalServerError,
	store.ErrCommittingTransaction: http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
