package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPBKDF2Hasher_HashIsDeterministicPerSalt(t *testing.T) {
	hasher := NewPBKDF2Hasher()

	first, err := hasher.Hash("password123", "salt-a")
	require.NoError(t, err)
	second, err := hasher.Hash("password123", "salt-a")
	require.NoError(t, err)
	other, err := hasher.Hash("password123", "salt-b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, "password123", first)
}

func TestPBKDF2Hasher_Check(t *testing.T) {
	hasher := NewPBKDF2Hasher()

	hash, err := hasher.Hash("password123", "salt-a")
	require.NoError(t, err)

	assert.True(t, hasher.Check("password123", "salt-a", hash))
	assert.False(t, hasher.Check("wrong-password", "salt-a", hash))
	assert.False(t, hasher.Check("password123", "salt-b", hash))
	assert.False(t, hasher.Check("password123", "salt-a", "not-the-hash"))
}
