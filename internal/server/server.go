package server

import (
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatauth/internal/auth"
	"chatauth/internal/config"
)

type Server struct {
	Auth        *auth.AuthService
	Users       *auth.UserRepository
	Codes       auth.CodeFlows
	Resolver    *auth.SessionResolver
	RateLimiter *auth.RateLimiter
	TOTP        auth.TOTPVerifier
	Config      config.Config

	trustedProxies []net.IPNet
}

func NewServer(cfg config.Config, svc *auth.AuthService, users *auth.UserRepository, codes auth.CodeFlows, resolver *auth.SessionResolver, rl *auth.RateLimiter, totp auth.TOTPVerifier) *Server {
	return &Server{
		Auth:           svc,
		Users:          users,
		Codes:          codes,
		Resolver:       resolver,
		RateLimiter:    rl,
		TOTP:           totp,
		Config:         cfg,
		trustedProxies: parseProxyCIDRs(cfg.TrustedProxies),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)

	r.Post("/api/auth/signup", s.handleSignUp)
	r.Post("/api/auth/signin", s.handleSignIn)
	r.Post("/api/auth/verify", s.handleVerify)
	r.Post("/api/auth/resend-verification", s.handleResendVerification)
	r.Post("/api/auth/forgot-password", s.handleForgotPassword)
	r.Post("/api/auth/reset-password", s.handleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)

		pr.Get("/api/auth/me", s.handleMe)
		pr.Post("/api/profile/change-password", s.handleChangePassword)

		pr.Post("/api/two-factor/setup-start", s.handleTwoFactorSetupStart)
		pr.Post("/api/two-factor/setup-finalize", s.handleTwoFactorSetupFinalize)
		pr.Post("/api/two-factor/disable", s.handleTwoFactorDisable)
	})

	return r
}
