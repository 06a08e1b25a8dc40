package auth

import "errors"

// Sentinel errors surfaced by the auth flows. Handlers map these to HTTP
// statuses; none of them are retried internally.
var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAlreadyExists is returned when the email or username is taken.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrVerificationNeeded signals that a signup verification code was
	// issued and the caller must verify before a token is minted. It is a
	// recoverable status, not a hard failure.
	ErrVerificationNeeded = errors.New("verification code sent, check your email")

	// ErrTwoFactorRequired signals that a second factor must be submitted
	// through the verify endpoint.
	ErrTwoFactorRequired = errors.New("two-factor code required")

	// ErrInvalidCode covers absent, expired, and mismatched verification
	// codes. The same error for all three so callers cannot probe which
	// accounts exist.
	ErrInvalidCode = errors.New("invalid or expired verification code")

	// ErrUnauthorized is returned for missing, malformed, or rejected
	// bearer tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
