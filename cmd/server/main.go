package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatauth/internal/auth"
	"chatauth/internal/config"
	"chatauth/internal/database"
	"chatauth/internal/email"
	"chatauth/internal/logging"
	"chatauth/internal/redis"
	"chatauth/internal/server"
	"chatauth/migrations"
)

const logFileMaxBytes = 10 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.LogFile != "" {
		fileWriter, err := logging.NewRotatingFileWriter(cfg.LogFile, logFileMaxBytes)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer fileWriter.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	}
	log.SetFlags(log.LstdFlags | log.LUTC)

	db, err := database.Connect(context.Background(), database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: int32(cfg.DBMaxConns),
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.ApplyMigrations(context.Background(), db, migrations.Files); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	if len(cfg.JWTSecret) == 0 {
		log.Println("JWT_SECRET is not set; using an ephemeral key, sessions will not survive a restart")
	}
	tokens, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	users := auth.NewUserRepository(db)
	codeStore := auth.NewCodeStore(db)
	mailer := email.NewSender(cfg.Email)
	verifier := auth.NewVerifier(codeStore, users, mailer, cfg.CodeLength, cfg.CodeTTL)
	totp := auth.NewTOTPService(cfg.TOTPIssuer)

	svc := auth.NewAuthService(users, verifier, auth.NewBcryptHasher(), tokens, totp)
	svc.SkipVerify = cfg.NoEmailVerify
	if cfg.NoEmailVerify {
		log.Println("NO_EMAIL_VERIFY is set; new accounts are created pre-verified")
	}

	resolver := auth.NewSessionResolver(tokens)
	rateLimiter := &auth.RateLimiter{Redis: redisClient}

	srv := server.NewServer(cfg, svc, users, verifier, resolver, rateLimiter, totp)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
