package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenService(ttlHours int) *accounts.SessionTokenService {
	return accounts.NewSessionTokenService(
		[]byte("test-signing-key"),
		ttlHours,
		"test-issuer",
		[]string{"test:audience"},
		nil,
	)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := testTokenService(24)

	user := &accounts.User{
		ID:         uuid.New(),
		Email:      "ada@example.com",
		AccessKeys: accounts.AccessKeyList{accounts.KeyUser, accounts.KeyAdmin},
	}

	token, err := svc.Mint("sess-1", user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, user.ID.String(), claims.UID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.True(t, claims.Keys.Has(accounts.KeyAdmin))
}

func TestSessionTokenMintValidation(t *testing.T) {
	svc := testTokenService(24)

	_, err := svc.Mint("", &accounts.User{ID: uuid.New()})
	assert.Error(t, err)

	_, err = svc.Mint("sess-1", nil)
	assert.Error(t, err)
}

func TestSessionTokenWrongKey(t *testing.T) {
	svc := testTokenService(24)
	other := accounts.NewSessionTokenService([]byte("other-key"), 24, "test-issuer", []string{"test:audience"}, nil)

	token, err := other.Mint("sess-1", &accounts.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "SESSION_TOKEN_MALFORMED", richErr.TextCode)
}

func TestSessionTokenMalformed(t *testing.T) {
	svc := testTokenService(24)

	_, err := svc.Validate("not-a-token")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "SESSION_TOKEN_MALFORMED", richErr.TextCode)
}

func TestSessionTokenWrongIssuer(t *testing.T) {
	svc := testTokenService(24)
	other := accounts.NewSessionTokenService([]byte("test-signing-key"), 24, "other-issuer", []string{"test:audience"}, nil)

	token, err := other.Mint("sess-1", &accounts.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}
