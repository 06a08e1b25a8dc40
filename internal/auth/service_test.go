package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[string]*User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User)}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	return f.users[strings.ToLower(email)], nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, _ := f.FindByEmail(ctx, email)
	return u != nil, nil
}

func (f *fakeUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	u, _ := f.FindByUsername(ctx, username)
	return u != nil, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *User) (*User, error) {
	f.nextID++
	u.ID = fmt.Sprintf("u%d", f.nextID)
	f.users[strings.ToLower(u.Email)] = u
	return u, nil
}

func (f *fakeUserStore) SetVerified(_ context.Context, userID string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.IsVerified = true
			return nil
		}
	}
	return fmt.Errorf("user %s not found", userID)
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return fmt.Errorf("user %s not found", userID)
}

// plainHasher keeps service tests fast; bcrypt is covered separately.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Matches(password, hash string) bool   { return hash == "plain:"+password }

type fakeTOTP struct {
	accept string
}

func (f *fakeTOTP) Verify(_, code string) bool { return code == f.accept }
func (f *fakeTOTP) Generate(string) (string, string, string, error) {
	return "SECRET", "otpauth://totp/test", "data:image/png;base64,", nil
}

type serviceFixture struct {
	svc      *AuthService
	users    *fakeUserStore
	notifier *recordingNotifier
	verifier *Verifier
	totp     *fakeTOTP
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	users := newFakeUserStore()
	store := newMemCodeStorage()
	notifier := &recordingNotifier{}
	verifier := NewVerifier(store, users, notifier, 6, 15*time.Minute)

	tokens, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	totp := &fakeTOTP{accept: "424242"}
	svc := NewAuthService(users, verifier, plainHasher{}, tokens, totp)

	return &serviceFixture{svc: svc, users: users, notifier: notifier, verifier: verifier, totp: totp}
}

func (f *serviceFixture) lastSentCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.notifier.sent)
	last := f.notifier.sent[len(f.notifier.sent)-1]
	parts := strings.SplitN(last, ":", 2)
	require.Len(t, parts, 2)
	return parts[1]
}

func signUpAlice(t *testing.T, f *serviceFixture) {
	t.Helper()
	_, err := f.svc.SignUp(context.Background(), "en", SignUpParams{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Password1",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.ErrorIs(t, err, ErrVerificationNeeded)
}

func TestSignUpRequiresVerification(t *testing.T) {
	f := newServiceFixture(t)

	signUpAlice(t, f)
	require.Len(t, f.notifier.sent, 1)

	user, err := f.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.IsVerified)

	code := f.lastSentCode(t)
	token, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeSignupVerify, code)
	require.NoError(t, err)

	claims, err := f.svc.Tokens.ParseClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.IsVerified)
	assert.Equal(t, "alice", claims.Username)
}

func TestSignUpSkipVerify(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.SkipVerify = true

	token, err := f.svc.SignUp(context.Background(), "en", SignUpParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Empty(t, f.notifier.sent)

	claims, err := f.svc.Tokens.ParseClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.IsVerified)
}

func TestSignUpDuplicate(t *testing.T) {
	f := newServiceFixture(t)
	signUpAlice(t, f)

	_, err := f.svc.SignUp(context.Background(), "en", SignUpParams{
		Username: "alice2",
		Email:    "ALICE@example.com",
		Password: "Password1",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.SignUp(context.Background(), "en", SignUpParams{
		Username: "Alice",
		Email:    "other@example.com",
		Password: "Password1",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestSignInInvalidCredentials(t *testing.T) {
	f := newServiceFixture(t)
	signUpAlice(t, f)

	_, err := f.svc.SignIn(context.Background(), "en", "alice@example.com", "WrongPassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SignIn(context.Background(), "en", "nobody@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInUnverifiedResendsCode(t *testing.T) {
	f := newServiceFixture(t)
	signUpAlice(t, f)
	require.Len(t, f.notifier.sent, 1)

	_, err := f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	require.ErrorIs(t, err, ErrVerificationNeeded)
	assert.Len(t, f.notifier.sent, 2)

	code := f.lastSentCode(t)
	token, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeSignupVerify, code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Once verified, sign-in goes straight to a token.
	token, err = f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func verifiedAlice(t *testing.T, f *serviceFixture) *User {
	t.Helper()
	signUpAlice(t, f)
	code := f.lastSentCode(t)
	_, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeSignupVerify, code)
	require.NoError(t, err)
	user, err := f.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func TestSignInWithEmailTwoFactor(t *testing.T) {
	f := newServiceFixture(t)
	user := verifiedAlice(t, f)

	method := TwoFactorMethodEmail
	user.TwoFactorEnabled = true
	user.TwoFactorMethod = &method

	sentBefore := len(f.notifier.sent)
	_, err := f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	require.ErrorIs(t, err, ErrTwoFactorRequired)
	require.Len(t, f.notifier.sent, sentBefore+1)

	code := f.lastSentCode(t)
	token, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, code)
	require.NoError(t, err)

	claims, err := f.svc.Tokens.ParseClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.IsTwoFacAuth)
}

func TestSignInWithAppTwoFactor(t *testing.T) {
	f := newServiceFixture(t)
	user := verifiedAlice(t, f)

	method := TwoFactorMethodApp
	secret := "SECRET"
	user.TwoFactorEnabled = true
	user.TwoFactorMethod = &method
	user.TwoFactorSecret = &secret

	sentBefore := len(f.notifier.sent)
	_, err := f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	require.ErrorIs(t, err, ErrTwoFactorRequired)
	assert.Len(t, f.notifier.sent, sentBefore, "app users do not get a code by email")

	_, err = f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	token, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, "424242")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestAppTwoFactorCodeAloneOpensNothing(t *testing.T) {
	f := newServiceFixture(t)
	user := verifiedAlice(t, f)

	method := TwoFactorMethodApp
	secret := "SECRET"
	user.TwoFactorEnabled = true
	user.TwoFactorMethod = &method
	user.TwoFactorSecret = &secret

	// A valid authenticator code without a preceding password check must
	// not mint a session.
	_, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, "424242")
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	require.ErrorIs(t, err, ErrTwoFactorRequired)

	token, err := f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, "424242")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The pending sign-in is single-use.
	_, err = f.svc.Verify(context.Background(), "alice@example.com", PurposeTwoFactor, "424242")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "en", "nobody@example.com")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, f.notifier.sent)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newServiceFixture(t)
	verifiedAlice(t, f)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "en", "alice@example.com"))
	code := f.lastSentCode(t)

	token, err := f.svc.ResetPassword(context.Background(), "alice@example.com", code, "NewPassword1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.svc.SignIn(context.Background(), "en", "alice@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SignIn(context.Background(), "en", "alice@example.com", "NewPassword1")
	require.NoError(t, err)

	// The reset code is single-use.
	_, err = f.svc.ResetPassword(context.Background(), "alice@example.com", code, "AnotherPassword1")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	verifiedAlice(t, f)

	err := f.svc.ChangePassword(context.Background(), "alice@example.com", "WrongPassword1", "NewPassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.svc.ChangePassword(context.Background(), "alice@example.com", "Password1", "NewPassword1"))

	_, err = f.svc.SignIn(context.Background(), "en", "alice@example.com", "NewPassword1")
	require.NoError(t, err)
}
