package accounts_test

import (
	"strings"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := accounts.BcryptHasher{Cost: 4}

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.NoError(t, hasher.Compare("correct horse battery staple", hash))
	assert.Error(t, hasher.Compare("wrong password", hash))
}

func TestBcryptHasherRejectsEmptyPassword(t *testing.T) {
	hasher := accounts.BcryptHasher{Cost: 4}

	_, err := hasher.Hash("")
	assert.Error(t, err)
}

func TestLegacySHA1Hasher(t *testing.T) {
	hasher := accounts.LegacySHA1Hasher{}

	hash, err := hasher.Hash("password")
	require.NoError(t, err)
	assert.Equal(t, "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8", hash)

	assert.NoError(t, hasher.Compare("password", hash))
	assert.Error(t, hasher.Compare("Password", hash))

	_, err = hasher.Hash("")
	assert.Error(t, err)
}
