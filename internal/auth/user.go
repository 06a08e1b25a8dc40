package auth

import "time"

// Two-factor delivery methods.
const (
	TwoFactorMethodEmail = "email"
	TwoFactorMethodApp   = "app"
)

type User struct {
	ID               string
	Username         string
	FirstName        string
	LastName         string
	Email            string
	PasswordHash     string
	IsVerified       bool
	TwoFactorEnabled bool
	TwoFactorMethod  *string
	TwoFactorSecret  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UsesAppTwoFactor reports whether second-factor codes come from an
// authenticator app instead of email.
func (u *User) UsesAppTwoFactor() bool {
	return u.TwoFactorMethod != nil && *u.TwoFactorMethod == TwoFactorMethodApp
}
