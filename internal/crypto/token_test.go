package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "claw_"))

	hash, err := HashToken(token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "v1$"))
	assert.NotContains(t, hash, token)

	assert.True(t, VerifyToken(token, hash))
	assert.False(t, VerifyToken(token+"x", hash))
	assert.False(t, VerifyToken("", hash))
	assert.False(t, VerifyToken(token, ""))
}

func TestTokensAreUnique(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Same token hashes differently thanks to the random salt.
	h1, err := HashToken(a)
	require.NoError(t, err)
	h2, err := HashToken(a)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyToken(a, h1))
	assert.True(t, VerifyToken(a, h2))
}

func TestVerifyTokenMalformedHash(t *testing.T) {
	for _, stored := range []string{
		"v0$abc$def",
		"v1$not-base64!$def",
		"v1$only-two-parts",
		"plain",
	} {
		assert.False(t, VerifyToken("claw_x", stored), stored)
	}
}

func TestHashTokenEmpty(t *testing.T) {
	_, err := HashToken("")
	assert.Error(t, err)
}
