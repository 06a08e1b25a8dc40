package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher()

	hash, err := h.Hash("Password1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Password1", hash)

	assert.True(t, h.Matches("Password1", hash))
	assert.False(t, h.Matches("Password2", hash))
	assert.False(t, h.Matches("Password1", ""))
}
