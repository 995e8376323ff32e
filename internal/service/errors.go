// SPDX-License-Identifier: Apache-2.0

package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWeakPassword        = errors.New("password does not meet minimum requirements")

	ErrCaptchaRejected         = errors.New("captcha challenge rejected")
	ErrSessionExpiredOrInvalid = errors.New("session token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("session token creation failed")
)
