package auth

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Purpose scopes a verification code to the flow that requested it. A code
// issued for one purpose never satisfies another.
type Purpose string

const (
	PurposeSignupVerify  Purpose = "SIGNUP_VERIFY"
	PurposeTwoFactor     Purpose = "TWO_FACTOR"
	PurposePasswordReset Purpose = "PASSWORD_RESET"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeSignupVerify, PurposeTwoFactor, PurposePasswordReset:
		return true
	}
	return false
}

// VerifyCode is a one-time code pending verification. At most one live row
// exists per (email, purpose); issuing a new code supersedes the old one.
type VerifyCode struct {
	ID        string
	Email     string
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c *VerifyCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode draws length characters uniformly from [A-Z0-9] using
// crypto/rand. Rejection sampling keeps the distribution uniform.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be > 0")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	// 252 is the largest multiple of 36 below 256; bytes at or above it
	// would skew the distribution and are discarded.
	const max = byte(252)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
