package utils

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		require.NotEmpty(t, id)
		for _, ch := range id {
			assert.Contains(t, base36, string(ch))
		}
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerateTokenLongerThanID(t *testing.T) {
	token := GenerateToken()
	require.NotEmpty(t, token)
	assert.Greater(t, len(token), len(GenerateID()))
	assert.NotEqual(t, GenerateToken(), token)
}

func randASCII(rng *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte(0x20 + rng.Intn(0x5f))) // printable ASCII
	}
	return b.String()
}

func TestHashPasswordRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		pw := randASCII(rng, 1+rng.Intn(40))
		hash := HashPassword(pw)
		assert.True(t, VerifyPassword(pw, hash), "password %q failed round trip", pw)

		other := randASCII(rng, 1+rng.Intn(40))
		if other != pw {
			assert.False(t, VerifyPassword(other, hash))
		}
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	assert.Equal(t, HashPassword("pw1"), HashPassword("pw1"))
	assert.NotEqual(t, HashPassword("pw1"), HashPassword("pw2"))
	// Length suffix distinguishes same-checksum candidates of different
	// lengths.
	assert.True(t, strings.HasSuffix(HashPassword("abc"), "3"))
}

func TestHashPasswordEmptyString(t *testing.T) {
	hash := HashPassword("")
	assert.Equal(t, "00", hash)
	assert.True(t, VerifyPassword("", hash))
}

func TestVerifyPasswordBcryptMode(t *testing.T) {
	hash, err := BcryptPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, VerifyPassword("secret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}
