package server

import (
	"errors"
	"net/http"

	"chatauth/internal/auth"
	"chatauth/internal/i18n"
)

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	ip := clientIP(r, s.trustedProxies)
	if locked, _, err := s.RateLimiter.RegisterResetAttempt(r.Context(), req.Email, ip); err == nil && locked {
		writeError(w, http.StatusTooManyRequests, "too many reset attempts, try again later")
		return
	}

	email := auth.NormalizeEmail(req.Email)
	cooldownKey := "reset_cooldown:" + email
	if ttl := s.RateLimiter.CooldownTTL(r.Context(), cooldownKey); ttl > 0 {
		writeError(w, http.StatusTooManyRequests, "a code was sent recently, wait before requesting another")
		return
	}

	if err := s.Auth.ForgotPassword(r.Context(), i18n.LocaleFromRequest(r), email); err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.RateLimiter.SetCooldown(r.Context(), cooldownKey, auth.EmailCooldown)
	writeJSON(w, http.StatusOK, map[string]string{"message": "a password reset code was sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateEmail(req.Email) || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if locked, _, err := s.RateLimiter.RegisterVerifyAttempt(r.Context(), req.Email); err == nil && locked {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	token, err := s.Auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.RateLimiter.ResetVerify(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Auth.ChangePassword(r.Context(), claims.Email, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "current password is incorrect")
			return
		}
		s.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
