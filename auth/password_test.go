package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashedPasswordVerifies(t *testing.T) {
	req := require.New(t)

	// Given an encoded hash of a password
	hash, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	// Then the right password matches and a wrong one does not
	ok, err := ComparePassword("Sup3r$ecretPass", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("Sup3r$ecretPasz", hash)
	req.NoError(err)
	req.False(ok)
}

func TestHashesAreSalted(t *testing.T) {
	req := require.New(t)

	// Given two hashes of the same password
	first, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)
	second, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)

	// Then the salts make them differ while both still verify
	req.NotEqual(first, second)
	ok, err := ComparePassword("Sup3r$ecretPass", second)
	req.NoError(err)
	req.True(ok)
}

func TestCompareRejectsMangledHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.Error(err)
}
