package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverAcceptsValidToken(t *testing.T) {
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	resolver := NewSessionResolver(codec)

	token, err := codec.Mint(NewClaims(testUser()))
	require.NoError(t, err)

	claims, err := resolver.Resolve("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestResolverRejectsBadHeaders(t *testing.T) {
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	resolver := NewSessionResolver(codec)

	token, err := codec.Mint(NewClaims(testUser()))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"no scheme":    token,
		"wrong scheme": "Basic " + token,
		"empty token":  "Bearer ",
		"lowercase":    "bearer " + token,
	} {
		_, err := resolver.Resolve(header)
		assert.ErrorIsf(t, err, ErrUnauthorized, "case %s", name)
	}
}

func TestResolverRejectsTamperedToken(t *testing.T) {
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	resolver := NewSessionResolver(codec)

	token, err := codec.Mint(NewClaims(testUser()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "X." + parts[2]

	_, err = resolver.Resolve("Bearer " + tampered)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolverRejectsExpiredToken(t *testing.T) {
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	resolver := NewSessionResolver(codec)

	token, err := codec.Mint(NewClaims(testUser()))
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = resolver.Resolve("Bearer " + token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolverRejectsUnverifiedAccount(t *testing.T) {
	codec, err := NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	resolver := NewSessionResolver(codec)

	user := testUser()
	user.IsVerified = false

	token, err := codec.Mint(NewClaims(user))
	require.NoError(t, err)

	_, err = resolver.Resolve("Bearer " + token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
