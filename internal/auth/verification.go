package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCodeLength = 6
	DefaultCodeTTL    = 15 * time.Minute
)

// CodeStorage is the persistence contract the Verifier depends on.
// *CodeStore is the production implementation.
type CodeStorage interface {
	Put(ctx context.Context, email string, purpose Purpose, code string, ttl time.Duration) (*VerifyCode, error)
	FindLatest(ctx context.Context, email string, purpose Purpose) (*VerifyCode, error)
	Delete(ctx context.Context, id string) error
}

// Notifier delivers a verification code to the user. Delivery failure is
// fatal for the issuing flow; codes must never be silently dropped.
type Notifier interface {
	Send(ctx context.Context, locale, email string, purpose Purpose, code string, ttl time.Duration) error
}

// VerifierUsers is the slice of the user store the Verifier needs.
type VerifierUsers interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	SetVerified(ctx context.Context, userID string) error
}

// Verifier owns the verification-code lifecycle: issuing supersedes any
// prior code for the same (email, purpose), and consuming is single-use.
type Verifier struct {
	Codes      CodeStorage
	Users      VerifierUsers
	Mailer     Notifier
	CodeLength int
	CodeTTL    time.Duration

	now func() time.Time
}

func NewVerifier(codes CodeStorage, users VerifierUsers, mailer Notifier, codeLength int, codeTTL time.Duration) *Verifier {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &Verifier{
		Codes:      codes,
		Users:      users,
		Mailer:     mailer,
		CodeLength: codeLength,
		CodeTTL:    codeTTL,
		now:        time.Now,
	}
}

// Issue generates a fresh code for (email, purpose), stores it, and emails
// it to the user. Exactly one notification goes out per call, and at most
// one live code remains for the pair afterward. The code is returned so
// tests can complete the flow without reading email.
func (v *Verifier) Issue(ctx context.Context, locale, email string, purpose Purpose) (string, error) {
	email = NormalizeEmail(email)

	code, err := GenerateCode(v.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	if _, err := v.Codes.Put(ctx, email, purpose, code, v.CodeTTL); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}

	if err := v.Mailer.Send(ctx, locale, email, purpose, code, v.CodeTTL); err != nil {
		return "", fmt.Errorf("send verification code: %w", err)
	}

	return code, nil
}

// Consume validates a submitted code and burns it. Absent, expired, and
// mismatched codes all fail with ErrInvalidCode, as does an unknown account,
// so the caller learns nothing about which check failed. On success for the
// signup purpose, the account is marked verified.
func (v *Verifier) Consume(ctx context.Context, email string, purpose Purpose, submitted string) (*User, error) {
	email = NormalizeEmail(email)

	rec, err := v.Codes.FindLatest(ctx, email, purpose)
	if err != nil {
		return nil, fmt.Errorf("load verification code: %w", err)
	}
	if rec == nil {
		return nil, ErrInvalidCode
	}

	if rec.Expired(v.now()) {
		// Reap the stale row so it does not linger until superseded.
		_ = v.Codes.Delete(ctx, rec.ID)
		return nil, ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(submitted)) != 1 {
		return nil, ErrInvalidCode
	}

	// Single-use: the code is gone whether or not the rest succeeds.
	if err := v.Codes.Delete(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("delete verification code: %w", err)
	}

	user, err := v.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCode
	}

	if purpose == PurposeSignupVerify && !user.IsVerified {
		if err := v.Users.SetVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("mark user verified: %w", err)
		}
		user.IsVerified = true
	}

	return user, nil
}

// BeginChallenge records that a flow is waiting on a second factor that is
// not delivered by email (the code lives on the user's device). The stored
// code is a placeholder; only the row's existence and expiry matter.
func (v *Verifier) BeginChallenge(ctx context.Context, email string, purpose Purpose) error {
	email = NormalizeEmail(email)

	code, err := GenerateCode(v.CodeLength)
	if err != nil {
		return fmt.Errorf("generate challenge: %w", err)
	}
	if _, err := v.Codes.Put(ctx, email, purpose, code, v.CodeTTL); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

// ConsumeChallenge burns the pending challenge for (email, purpose) and
// reports whether a live one existed.
func (v *Verifier) ConsumeChallenge(ctx context.Context, email string, purpose Purpose) (bool, error) {
	email = NormalizeEmail(email)

	rec, err := v.Codes.FindLatest(ctx, email, purpose)
	if err != nil {
		return false, fmt.Errorf("load challenge: %w", err)
	}
	if rec == nil {
		return false, nil
	}
	if rec.Expired(v.now()) {
		_ = v.Codes.Delete(ctx, rec.ID)
		return false, nil
	}

	if err := v.Codes.Delete(ctx, rec.ID); err != nil {
		return false, fmt.Errorf("delete challenge: %w", err)
	}
	return true, nil
}

// NormalizeEmail lowercases and trims an address so lookups and code scoping
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
