// SPDX-License-Identifier: Apache-2.0

// Package captcha verifies CAPTCHA challenge responses before account
// creation and recovery requests are accepted.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

// ErrChallengeFailed is returned when the CAPTCHA provider rejects the
// submitted challenge response.
var ErrChallengeFailed = errors.New("captcha challenge failed")

const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier validates a client-submitted CAPTCHA challenge response.
type Verifier interface {
	// Verify returns nil if the challenge response is acceptable,
	// [ErrChallengeFailed] if the provider rejected it, and any other error
	// for transport failures.
	Verify(ctx context.Context, response, remoteIP string) error
}

// TurnstileVerifier checks challenge responses against Cloudflare
// Turnstile's siteverify endpoint. An empty secret disables verification
// entirely, which is the development-mode default.
type TurnstileVerifier struct {
	client *resty.Client
	secret string
	logger *logger.Logger
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileVerifier builds a verifier against the public Turnstile
// endpoint with the given shared secret.
func NewTurnstileVerifier(secret string, log *logger.Logger) *TurnstileVerifier {
	cli := resty.New().
		SetBaseURL(turnstileVerifyURL).
		SetTimeout(10 * time.Second)

	return &TurnstileVerifier{client: cli, secret: secret, logger: log}
}

// Verify implements [Verifier].
func (v *TurnstileVerifier) Verify(ctx context.Context, response, remoteIP string) error {
	if v.secret == "" {
		return nil
	}
	if response == "" {
		return ErrChallengeFailed
	}

	var result turnstileResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secret,
			"response": response,
			"remoteip": remoteIP,
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return fmt.Errorf("captcha verify request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("captcha verify request: unexpected status %d", resp.StatusCode())
	}

	if !result.Success {
		v.logger.Info().Strs("error_codes", result.ErrorCodes).Msg("captcha challenge rejected")
		return ErrChallengeFailed
	}

	return nil
}
