package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherVerify(t *testing.T) {
	hasher := NewHasher(4) // minimum cost keeps the test fast

	digest, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", digest)

	assert.True(t, hasher.Verify("s3cret-password", digest))
	assert.False(t, hasher.Verify("wrong-password", digest))
	assert.False(t, hasher.Verify("", digest))
}

func TestHasherSaltsEveryDigest(t *testing.T) {
	hasher := NewHasher(4)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-password", first))
	assert.True(t, hasher.Verify("same-password", second))
}

func TestHasherClampsInvalidCost(t *testing.T) {
	hasher := NewHasher(99)
	digest, err := hasher.Hash("pw")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("pw", digest))
}
