package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter tracks abuse counters in Redis. Counters are best-effort;
// losing Redis degrades to no throttling, not to denied logins.
type RateLimiter struct {
	Redis *redis.Client
}

const (
	loginMaxAttempts       = 5
	loginAttemptTTL        = 10 * time.Minute
	loginBanTTL            = 1 * time.Hour
	verifyMaxAttempts      = 5
	verifyAttemptTTL       = 10 * time.Minute
	resetMaxAttempts       = 5
	resetAttemptTTL        = 15 * time.Minute
	signupMaxAttemptsIP    = 10
	signupAttemptTTLIP     = 30 * time.Minute
	signupMaxAttemptsEmail = 3
	signupAttemptTTLEmail  = 30 * time.Minute

	EmailCooldown = 60 * time.Second
)

func (r *RateLimiter) loginAttemptKey(ip string) string {
	return "login_attempts:" + ip
}

func (r *RateLimiter) loginBanKey(ip string) string {
	return "login_ban:" + ip
}

func (r *RateLimiter) verifyAttemptKey(email string) string {
	return "verify_attempts:" + strings.ToLower(email)
}

func (r *RateLimiter) resetAttemptEmailKey(email string) string {
	if email == "" {
		return ""
	}
	return "reset_attempts:" + strings.ToLower(email)
}

func (r *RateLimiter) resetAttemptIPKey(ip string) string {
	if ip == "" {
		return ""
	}
	return "reset_attempts_ip:" + ip
}

func (r *RateLimiter) signupAttemptIPKey(ip string) string {
	if ip == "" {
		return ""
	}
	return "signup_attempts_ip:" + ip
}

func (r *RateLimiter) signupAttemptEmailKey(email string) string {
	if email == "" {
		return ""
	}
	return "signup_attempts_email:" + strings.ToLower(email)
}

func (r *RateLimiter) IsIPBanned(ctx context.Context, ip string) bool {
	exists, _ := r.Redis.Exists(ctx, r.loginBanKey(ip)).Result()
	return exists == 1
}

func (r *RateLimiter) RegisterLoginFailure(ctx context.Context, ip string) error {
	key := r.loginAttemptKey(ip)

	attempts, err := r.Redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if attempts == 1 {
		r.Redis.Expire(ctx, key, loginAttemptTTL)
	}
	if attempts >= loginMaxAttempts {
		r.Redis.Set(ctx, r.loginBanKey(ip), "1", loginBanTTL)
		r.Redis.Expire(ctx, key, loginBanTTL)
	}
	return nil
}

func (r *RateLimiter) ResetLogin(ctx context.Context, ip string) {
	r.Redis.Del(ctx, r.loginAttemptKey(ip))
}

func (r *RateLimiter) RegisterVerifyAttempt(ctx context.Context, email string) (bool, time.Duration, error) {
	key := r.verifyAttemptKey(email)

	attempts, err := r.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if attempts == 1 {
		r.Redis.Expire(ctx, key, verifyAttemptTTL)
	}
	ttl, _ := r.Redis.TTL(ctx, key).Result()
	return attempts >= verifyMaxAttempts, ttl, nil
}

func (r *RateLimiter) ResetVerify(ctx context.Context, email string) {
	r.Redis.Del(ctx, r.verifyAttemptKey(email))
}

func (r *RateLimiter) RegisterResetAttempt(ctx context.Context, email, ip string) (bool, time.Duration, error) {
	keys := []string{r.resetAttemptEmailKey(email), r.resetAttemptIPKey(ip)}
	locked := false
	var ttlMax time.Duration

	for _, key := range keys {
		if key == "" {
			continue
		}
		attempts, err := r.Redis.Incr(ctx, key).Result()
		if err != nil {
			return false, 0, err
		}
		if attempts == 1 {
			r.Redis.Expire(ctx, key, resetAttemptTTL)
		}
		if attempts >= resetMaxAttempts {
			locked = true
		}
		if ttl, _ := r.Redis.TTL(ctx, key).Result(); ttl > ttlMax {
			ttlMax = ttl
		}
	}

	return locked, ttlMax, nil
}

func (r *RateLimiter) RegisterSignupAttempt(ctx context.Context, email, ip string) (bool, time.Duration, error) {
	keys := []struct {
		key string
		max int64
		ttl time.Duration
	}{
		{r.signupAttemptIPKey(ip), signupMaxAttemptsIP, signupAttemptTTLIP},
		{r.signupAttemptEmailKey(email), signupMaxAttemptsEmail, signupAttemptTTLEmail},
	}

	locked := false
	var ttlMax time.Duration

	for _, k := range keys {
		if k.key == "" {
			continue
		}
		attempts, err := r.Redis.Incr(ctx, k.key).Result()
		if err != nil {
			return false, 0, err
		}
		if attempts == 1 {
			r.Redis.Expire(ctx, k.key, k.ttl)
		}
		if attempts >= k.max {
			locked = true
		}
		if ttl, _ := r.Redis.TTL(ctx, k.key).Result(); ttl > ttlMax {
			ttlMax = ttl
		}
	}

	return locked, ttlMax, nil
}

func (r *RateLimiter) CooldownTTL(ctx context.Context, key string) time.Duration {
	ttl, err := r.Redis.TTL(ctx, key).Result()
	if err != nil {
		return 0
	}
	return ttl
}

func (r *RateLimiter) SetCooldown(ctx context.Context, key string, ttl time.Duration) {
	r.Redis.Set(ctx, key, "1", ttl)
}
