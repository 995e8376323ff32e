// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

type verifyRequest struct {
	Token string `json:"token"`
}

type recoverRequest struct {
	Email           string `json:"email"`
	CaptchaResponse string `json:"captcha_response"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	userID, err := h.services.AccountService.VerifyEmail(ctx, req.Token)
	if err != nil {
		log.Err(err).Msg("email verification rejected")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	log.Info().Str("user_id", userID.String()).Msg("email verified")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestRecovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.AccountService.RequestRecovery(ctx, req.Email, req.CaptchaResponse, clientIP(r)); err != nil {
		log.Err(err).Msg("recovery request rejected")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	// the response is identical whether or not the email has an account
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.AccountService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		log.Err(err).Msg("password reset rejected")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
