package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CompareHashAndPassword(hash, "correct horse"))
	assert.False(t, CompareHashAndPassword(hash, "battery staple"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "correct horse"))

	// salted: same input, different hash
	again, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)

	assert.NotPanics(t, func() { BurnPasswordCheck("anything") })
}
