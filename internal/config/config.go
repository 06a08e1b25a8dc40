package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	DBMaxConns     int
	RedisURL       string
	LogFile        string
	NoEmailVerify  bool
	JWTSecret      []byte
	TokenTTL       time.Duration
	CodeLength     int
	CodeTTL        time.Duration
	TOTPIssuer     string
	TrustedProxies []string
	Email          EmailConfig
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

func Load() (Config, error) {
	clean := func(val string) string {
		return strings.Trim(val, "\"' \t\r\n")
	}

	cfg := Config{
		Port:           getenvDefault("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     parseInt(os.Getenv("DB_MAX_CONNS"), 10),
		RedisURL:       getenvDefault("REDIS_URL", "redis://localhost:6379"),
		LogFile:        getenvDefault("LOG_FILE", "logs/server.log"),
		NoEmailVerify:  parseBool(os.Getenv("NO_EMAIL_VERIFY")),
		TokenTTL:       parseHours(os.Getenv("TOKEN_TTL_HOURS"), 24),
		CodeLength:     parseInt(os.Getenv("CODE_LENGTH"), 6),
		CodeTTL:        parseMinutes(os.Getenv("CODE_TTL_MINUTES"), 15),
		TOTPIssuer:     getenvDefault("TOTP_ISSUER", "ChatAuth"),
		TrustedProxies: parseList(os.Getenv("TRUSTED_PROXIES")),
	}

	cfg.Email = EmailConfig{
		Host:     clean(os.Getenv("EMAIL_SERVER_HOST")),
		Port:     parseInt(clean(os.Getenv("EMAIL_SERVER_PORT")), 587),
		Username: clean(os.Getenv("EMAIL_SERVER_USER")),
		Password: clean(os.Getenv("EMAIL_SERVER_PASSWORD")),
		From:     clean(os.Getenv("EMAIL_FROM")),
		Secure:   parseBool(os.Getenv("EMAIL_SERVER_SECURE")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	if raw := clean(os.Getenv("JWT_SECRET")); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("JWT_SECRET must be base64: %w", err)
		}
		cfg.JWTSecret = key
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseBool(val string) bool {
	if val == "" {
		return false
	}
	val = strings.ToLower(strings.Trim(val, "\"' "))
	return val == "1" || val == "true" || val == "yes"
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseHours(val string, def int) time.Duration {
	return time.Duration(parseInt(val, def)) * time.Hour
}

func parseMinutes(val string, def int) time.Duration {
	return time.Duration(parseInt(val, def)) * time.Minute
}

func parseList(val string) []string {
	parts := strings.Split(val, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
