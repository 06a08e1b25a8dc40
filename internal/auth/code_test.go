package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	for _, r := range code {
		assert.Truef(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
	}
}

func TestGenerateCodeLengths(t *testing.T) {
	for _, n := range []int{4, 6, 8, 12} {
		code, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 identical 6-character codes would mean the generator is broken.
	assert.Greater(t, len(seen), 1)
}

func TestPurposeValid(t *testing.T) {
	assert.True(t, PurposeSignupVerify.Valid())
	assert.True(t, PurposeTwoFactor.Valid())
	assert.True(t, PurposePasswordReset.Valid())
	assert.False(t, Purpose("SOMETHING_ELSE").Valid())
	assert.False(t, Purpose("").Valid())
}

func TestVerifyCodeExpired(t *testing.T) {
	now := time.Now()
	rec := VerifyCode{ExpiresAt: now.Add(15 * time.Minute)}

	assert.False(t, rec.Expired(now))
	assert.False(t, rec.Expired(now.Add(14*time.Minute)))
	assert.True(t, rec.Expired(now.Add(16*time.Minute)))
}
