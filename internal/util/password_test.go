package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	require.NoError(t, CheckPasswordHash("hunter2", hash))
	require.ErrorIs(t, CheckPasswordHash("wrong", hash), bcrypt.ErrMismatchedHashAndPassword)
}

func TestCheckAgainstEmptyHash(t *testing.T) {
	require.Error(t, CheckPasswordHash("anything", ""))
}
