package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"chatauth/internal/auth"
	"chatauth/internal/i18n"
)

type signUpRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validateUsername(req.Username) {
		writeError(w, http.StatusBadRequest, "username must be between 2 and 50 characters")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := clientIP(r, s.trustedProxies)
	if locked, _, err := s.RateLimiter.RegisterSignupAttempt(r.Context(), req.Email, ip); err == nil && locked {
		writeError(w, http.StatusTooManyRequests, "too many signup attempts, try again later")
		return
	}

	token, err := s.Auth.SignUp(r.Context(), i18n.LocaleFromRequest(r), auth.SignUpParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := clientIP(r, s.trustedProxies)
	if s.RateLimiter.IsIPBanned(r.Context(), ip) {
		writeError(w, http.StatusTooManyRequests, "too many failed attempts, try again later")
		return
	}

	token, err := s.Auth.SignIn(r.Context(), i18n.LocaleFromRequest(r), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if rlErr := s.RateLimiter.RegisterLoginFailure(r.Context(), ip); rlErr != nil {
				log.Printf("rate limiter: %v", rlErr)
			}
		}
		s.writeAuthError(w, r, err)
		return
	}

	s.RateLimiter.ResetLogin(r.Context(), ip)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateEmail(req.Email) || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	purpose := auth.PurposeSignupVerify
	if req.Purpose != "" {
		purpose = auth.Purpose(req.Purpose)
	}
	// Reset codes go through /api/auth/reset-password only.
	if purpose != auth.PurposeSignupVerify && purpose != auth.PurposeTwoFactor {
		writeError(w, http.StatusBadRequest, "unknown purpose")
		return
	}

	if locked, _, err := s.RateLimiter.RegisterVerifyAttempt(r.Context(), req.Email); err == nil && locked {
		writeError(w, http.StatusTooManyRequests, "too many verification attempts, try again later")
		return
	}

	token, err := s.Auth.Verify(r.Context(), req.Email, purpose, req.Code)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.RateLimiter.ResetVerify(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	email := auth.NormalizeEmail(req.Email)
	cooldownKey := "resend_cooldown:" + email
	if ttl := s.RateLimiter.CooldownTTL(r.Context(), cooldownKey); ttl > 0 {
		writeError(w, http.StatusTooManyRequests, "a code was sent recently, wait before requesting another")
		return
	}

	// Same response whether or not the account exists.
	user, err := s.Users.FindByEmail(r.Context(), email)
	if err != nil {
		log.Printf("resend verification: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user != nil && !user.IsVerified {
		if _, err := s.Codes.Issue(r.Context(), i18n.LocaleFromRequest(r), email, auth.PurposeSignupVerify); err != nil {
			log.Printf("resend verification: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to send verification email")
			return
		}
		s.RateLimiter.SetCooldown(r.Context(), cooldownKey, auth.EmailCooldown)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a verification code was sent"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":     claims.Username,
		"firstName":    claims.FirstName,
		"lastName":     claims.LastName,
		"email":        claims.Email,
		"isVerified":   claims.IsVerified,
		"isTwoFacAuth": claims.IsTwoFacAuth,
	})
}

// writeAuthError maps domain errors onto the HTTP statuses the clients
// expect. Pending states use 202 so the frontend can branch on them.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrVerificationNeeded):
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "VERIFICATION_NEEDED",
			"message": "email verification required, a code was sent",
		})
	case errors.Is(err, auth.ErrTwoFactorRequired):
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "TWO_FACTOR_REQUIRED",
			"message": "two-factor code required",
		})
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "an account with this email or username already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid or expired code")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
