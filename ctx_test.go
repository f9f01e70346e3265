package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessContextRoundTrip(t *testing.T) {
	access := accounts.NewAccessContext()
	id := uuid.New()
	access.Install(id, accounts.AccessKeyList{accounts.KeyAdmin})

	ctx := accounts.WithAccessContext(context.Background(), access)

	got, ok := accounts.AccessFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, access, got)

	assert.True(t, accounts.HasKey(ctx, accounts.KeyAdmin))
	assert.False(t, accounts.HasKey(ctx, accounts.KeyUser))
	assert.Equal(t, id, accounts.CurrentIdentity(ctx))
}

func TestAccessContextMissing(t *testing.T) {
	ctx := context.Background()

	_, ok := accounts.AccessFromContext(ctx)
	assert.False(t, ok)

	assert.False(t, accounts.HasKey(ctx, accounts.KeyUser))
	assert.Equal(t, uuid.Nil, accounts.CurrentIdentity(ctx))
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &accounts.User{ID: uuid.New(), Email: "ada@example.com"}

	ctx := accounts.WithUser(context.Background(), user)

	got, ok := accounts.UserFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, user, got)

	_, ok = accounts.UserFromContext(context.Background())
	assert.False(t, ok)
}
