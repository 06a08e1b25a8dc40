package auth

import (
	"context"
	"fmt"
	"strings"
)

// UserStore is the identity persistence contract the auth flows depend on.
// *UserRepository is the production implementation.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *User) (*User, error)
	SetVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// CodeFlows is the slice of the Verifier the auth service needs.
type CodeFlows interface {
	Issue(ctx context.Context, locale, email string, purpose Purpose) (string, error)
	Consume(ctx context.Context, email string, purpose Purpose, code string) (*User, error)
	BeginChallenge(ctx context.Context, email string, purpose Purpose) error
	ConsumeChallenge(ctx context.Context, email string, purpose Purpose) (bool, error)
}

type SignUpParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService drives the sign-up / sign-in / two-factor / password-reset
// state machine. Flows that stop at a pending state return
// ErrVerificationNeeded or ErrTwoFactorRequired instead of a token.
type AuthService struct {
	Users  UserStore
	Codes  CodeFlows
	Hasher PasswordHasher
	Tokens *TokenCodec
	TOTP   TOTPVerifier

	// SkipVerify creates accounts pre-verified; used in deployments
	// without a mail server.
	SkipVerify bool
}

func NewAuthService(users UserStore, codes CodeFlows, hasher PasswordHasher, tokens *TokenCodec, totp TOTPVerifier) *AuthService {
	return &AuthService{
		Users:  users,
		Codes:  codes,
		Hasher: hasher,
		Tokens: tokens,
		TOTP:   totp,
	}
}

// SignUp registers a new account. Unless SkipVerify is set, it issues a
// signup code and returns ErrVerificationNeeded; the token comes later via
// Verify.
func (s *AuthService) SignUp(ctx context.Context, locale string, p SignUpParams) (string, error) {
	email := NormalizeEmail(p.Email)
	username := strings.ToLower(strings.TrimSpace(p.Username))

	if taken, err := s.Users.ExistsByEmail(ctx, email); err != nil {
		return "", fmt.Errorf("check email: %w", err)
	} else if taken {
		return "", ErrAlreadyExists
	}
	if taken, err := s.Users.ExistsByUsername(ctx, username); err != nil {
		return "", fmt.Errorf("check username: %w", err)
	} else if taken {
		return "", ErrAlreadyExists
	}

	hash, err := s.Hasher.Hash(p.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.Users.Create(ctx, &User{
		Username:     username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   s.SkipVerify,
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	if !user.IsVerified {
		if _, err := s.Codes.Issue(ctx, locale, email, PurposeSignupVerify); err != nil {
			return "", err
		}
		return "", ErrVerificationNeeded
	}

	return s.Tokens.Mint(NewClaims(user))
}

// SignIn checks credentials and walks the account through any pending
// states: unverified accounts get a fresh signup code, two-factor accounts
// get a second-factor challenge. Only a fully settled account gets a token.
func (s *AuthService) SignIn(ctx context.Context, locale, email, password string) (string, error) {
	user, err := s.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil || !s.Hasher.Matches(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	if !user.IsVerified {
		if _, err := s.Codes.Issue(ctx, locale, user.Email, PurposeSignupVerify); err != nil {
			return "", err
		}
		return "", ErrVerificationNeeded
	}

	if user.TwoFactorEnabled {
		// App-method users read the code off their authenticator, so no
		// email goes out; a pending challenge is recorded instead, and
		// Verify refuses a TOTP code without one. Email-method users get
		// a code sent, which doubles as the pending state.
		if user.UsesAppTwoFactor() {
			if err := s.Codes.BeginChallenge(ctx, user.Email, PurposeTwoFactor); err != nil {
				return "", err
			}
		} else {
			if _, err := s.Codes.Issue(ctx, locale, user.Email, PurposeTwoFactor); err != nil {
				return "", err
			}
		}
		return "", ErrTwoFactorRequired
	}

	return s.Tokens.Mint(NewClaims(user))
}

// Verify consumes a pending code (signup or two-factor) and mints the
// session token the interrupted flow was waiting for.
func (s *AuthService) Verify(ctx context.Context, email string, purpose Purpose, code string) (string, error) {
	if purpose == PurposeTwoFactor {
		if user, err := s.Users.FindByEmail(ctx, NormalizeEmail(email)); err != nil {
			return "", fmt.Errorf("load user: %w", err)
		} else if user != nil && user.UsesAppTwoFactor() {
			if user.TwoFactorSecret == nil || !s.TOTP.Verify(*user.TwoFactorSecret, code) {
				return "", ErrInvalidCode
			}
			// A TOTP code only completes a sign-in that already passed
			// the password check; without that pending challenge the
			// authenticator alone opens nothing.
			ok, err := s.Codes.ConsumeChallenge(ctx, email, PurposeTwoFactor)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", ErrInvalidCode
			}
			return s.Tokens.Mint(NewClaims(user))
		}
	}

	user, err := s.Codes.Consume(ctx, email, purpose, code)
	if err != nil {
		return "", err
	}
	return s.Tokens.Mint(NewClaims(user))
}

// ForgotPassword issues a password-reset code. An unknown email fails with
// ErrInvalidCredentials, matching the behavior the clients were built
// against; the account-existence leak is a known trade-off.
func (s *AuthService) ForgotPassword(ctx context.Context, locale, email string) error {
	user, err := s.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	_, err = s.Codes.Issue(ctx, locale, user.Email, PurposePasswordReset)
	return err
}

// ResetPassword consumes the reset code, stores the new password hash, and
// signs the user straight in.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	user, err := s.Codes.Consume(ctx, email, PurposePasswordReset, code)
	if err != nil {
		return "", err
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash

	return s.Tokens.Mint(NewClaims(user))
}

// ChangePassword swaps the password for an authenticated user after
// re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	user, err := s.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || !s.Hasher.Matches(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, user.ID, hash)
}
