package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerHandler(t *testing.T) (*accounts.RegisterAccountHandler, accounts.RepositoryManager) {
	t.Helper()

	repo := accounts.NewRepositoryManager(setupTestDB(t))
	tokens := accounts.NewTokenGenerator(repo.Users())

	handler := accounts.NewRegisterAccountHandler(repo, tokens, accounts.RouterConfig{
		SigningKey: "test-signing-key",
	}).WithHasher(accounts.BcryptHasher{Cost: 4})

	return handler, repo
}

func TestRegisterAccount(t *testing.T) {
	ctx := context.Background()
	handler, repo := registerHandler(t)

	result, err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName:       "Ada",
			LastName:        "Lovelace",
			Email:           "ada@example.com",
			Password:        "secret-pass",
			PasswordConfirm: "secret-pass",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)

	user := result.User
	assert.Equal(t, accounts.UserStatusPending, user.Status)
	assert.Equal(t, accounts.AccessKeyList{accounts.KeyUser}, user.AccessKeys)
	assert.Len(t, result.ConfirmToken, accounts.DefaultTokenLength)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)

	// The stored hash verifies the original password.
	stored, err := repo.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NoError(t, accounts.BcryptHasher{}.Compare("secret-pass", stored.PasswordHash))
	assert.Equal(t, result.ConfirmToken, stored.ConfirmToken)
	require.NotNil(t, stored.ConfirmSentAt, "registration must record when the confirmation token was issued")
}

func TestRegisterAccountValidationFailure(t *testing.T) {
	ctx := context.Background()
	handler, _ := registerHandler(t)

	_, err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName: "Ada",
			Email:     "not-an-email",
			Password:  "secret-pass",
		},
	})
	require.Error(t, err)
	assert.Contains(t, accounts.FieldErrors(err), "email")
}

func TestRegisterAccountDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	handler, _ := registerHandler(t)

	signup := accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName:       "Ada",
			Email:           "ada@example.com",
			Password:        "secret-pass",
			PasswordConfirm: "secret-pass",
		},
	}

	_, err := handler.Execute(ctx, signup)
	require.NoError(t, err)

	_, err = handler.Execute(ctx, signup)
	require.Error(t, err)
	assert.True(t, accounts.IsDuplicateEmail(err))
}

func TestRegisterAccountOpenID(t *testing.T) {
	ctx := context.Background()
	handler, repo := registerHandler(t)

	result, err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName:      "Ada",
			Email:          "fed@example.com",
			OpenIDIdentity: "https://openid.example.com/ada",
		},
	})
	require.NoError(t, err)

	assert.Empty(t, result.User.PasswordHash)
	assert.True(t, result.User.IsOpenID())

	stored, err := repo.Users().GetByOpenID(ctx, "https://openid.example.com/ada")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, stored.ID)
}

func TestRegisterAccountGeneratedPassword(t *testing.T) {
	ctx := context.Background()
	handler, _ := registerHandler(t)

	result, err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName: "Ada",
			Email:     "ada@example.com",
		},
		GeneratePassword: true,
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.GeneratedPassword)
	assert.NoError(t, accounts.BcryptHasher{}.Compare(result.GeneratedPassword, result.User.PasswordHash))
}

func TestRegisterAccountHashid(t *testing.T) {
	ctx := context.Background()
	handler, _ := registerHandler(t)

	result, err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName:       "Ada",
			Email:           "ada@example.com",
			Password:        "secret-pass",
			PasswordConfirm: "secret-pass",
		},
		UseHashid: true,
	})
	require.NoError(t, err)

	handler2, _ := registerHandler(t)
	result2, err := handler2.Execute(ctx, accounts.RegisterAccountMessage{
		RegistrationInput: accounts.RegistrationInput{
			FirstName:       "Ada",
			Email:           "ada@example.com",
			Password:        "secret-pass",
			PasswordConfirm: "secret-pass",
		},
		UseHashid: true,
	})
	require.NoError(t, err)

	// Same email derives the same deterministic id across stores.
	assert.Equal(t, result.User.ID, result2.User.ID)
}
