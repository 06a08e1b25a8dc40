package server

import (
	"log"
	"net/http"

	"chatauth/internal/auth"
	"chatauth/internal/i18n"
)

type twoFactorSetupRequest struct {
	Method string `json:"method"`
}

type twoFactorCodeRequest struct {
	Code string `json:"code"`
}

// handleTwoFactorSetupStart records the chosen second-factor method and
// hands out the challenge material: a code by email, or a TOTP secret with
// a provisioning QR for authenticator apps. Nothing is enforced until
// setup-finalize confirms the user can actually produce a code.
func (s *Server) handleTwoFactorSetupStart(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req twoFactorSetupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.Users.FindByEmail(r.Context(), claims.Email)
	if err != nil || user == nil {
		s.writeAuthError(w, r, auth.ErrUnauthorized)
		return
	}
	if user.TwoFactorEnabled {
		writeError(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	switch req.Method {
	case auth.TwoFactorMethodApp:
		secret, otpauthURL, qr, err := s.TOTP.Generate(user.Email)
		if err != nil {
			log.Printf("totp generate: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err := s.Users.SetTwoFactorMethod(r.Context(), user.ID, auth.TwoFactorMethodApp, &secret); err != nil {
			log.Printf("store totp secret: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"method":     auth.TwoFactorMethodApp,
			"secret":     secret,
			"otpauthUrl": otpauthURL,
			"qrCode":     qr,
		})

	case auth.TwoFactorMethodEmail:
		if err := s.Users.SetTwoFactorMethod(r.Context(), user.ID, auth.TwoFactorMethodEmail, nil); err != nil {
			log.Printf("store 2fa method: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if _, err := s.Codes.Issue(r.Context(), i18n.LocaleFromRequest(r), user.Email, auth.PurposeTwoFactor); err != nil {
			s.writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"method":  auth.TwoFactorMethodEmail,
			"message": "a confirmation code was sent to your email",
		})

	default:
		writeError(w, http.StatusBadRequest, "method must be \"email\" or \"app\"")
	}
}

func (s *Server) handleTwoFactorSetupFinalize(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req twoFactorCodeRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	user, err := s.Users.FindByEmail(r.Context(), claims.Email)
	if err != nil || user == nil {
		s.writeAuthError(w, r, auth.ErrUnauthorized)
		return
	}
	if user.TwoFactorMethod == nil {
		writeError(w, http.StatusBadRequest, "two-factor setup has not been started")
		return
	}

	if !s.checkSecondFactor(r, user, req.Code) {
		writeError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}

	if err := s.Users.EnableTwoFactor(r.Context(), user.ID); err != nil {
		log.Printf("enable two-factor: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user.TwoFactorEnabled = true
	token, err := s.Auth.Tokens.Mint(auth.NewClaims(user))
	if err != nil {
		log.Printf("mint token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleTwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req twoFactorCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.Users.FindByEmail(r.Context(), claims.Email)
	if err != nil || user == nil {
		s.writeAuthError(w, r, auth.ErrUnauthorized)
		return
	}
	if !user.TwoFactorEnabled {
		writeError(w, http.StatusBadRequest, "two-factor authentication is not enabled")
		return
	}

	// Email-method users need a code mailed to them first.
	if req.Code == "" && !user.UsesAppTwoFactor() {
		if _, err := s.Codes.Issue(r.Context(), i18n.LocaleFromRequest(r), user.Email, auth.PurposeTwoFactor); err != nil {
			s.writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "CODE_REQUIRED",
			"message": "a confirmation code was sent to your email",
		})
		return
	}

	if !s.checkSecondFactor(r, user, req.Code) {
		writeError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}

	if err := s.Users.DisableTwoFactor(r.Context(), user.ID); err != nil {
		log.Printf("disable two-factor: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user.TwoFactorEnabled = false
	user.TwoFactorMethod = nil
	token, err := s.Auth.Tokens.Mint(auth.NewClaims(user))
	if err != nil {
		log.Printf("mint token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// checkSecondFactor validates a second-factor code against whichever method
// the user set up. Email codes are consumed; TOTP codes are stateless.
func (s *Server) checkSecondFactor(r *http.Request, user *auth.User, code string) bool {
	if user.UsesAppTwoFactor() {
		return user.TwoFactorSecret != nil && s.TOTP.Verify(*user.TwoFactorSecret, code)
	}
	consumed, err := s.Codes.Consume(r.Context(), user.Email, auth.PurposeTwoFactor, code)
	return err == nil && consumed != nil
}
