package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPServiceGenerate(t *testing.T) {
	svc := NewTOTPService("ChatAuth")

	secret, otpauthURL, qr, err := svc.Generate("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, otpauthURL, "otpauth://totp/")
	assert.Contains(t, otpauthURL, "ChatAuth")
	assert.Contains(t, qr, "data:image/png;base64,")
}

func TestTOTPServiceVerify(t *testing.T) {
	svc := NewTOTPService("ChatAuth")

	secret, _, _, err := svc.Generate("alice@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	assert.True(t, svc.Verify(secret, code))
	assert.False(t, svc.Verify(secret, "000000"))
}
