package accounts_test

import (
	"sync"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccessContextStartsAnonymous(t *testing.T) {
	access := accounts.NewAccessContext()

	assert.False(t, access.Authenticated())
	assert.Equal(t, uuid.Nil, access.CurrentIdentity())
	assert.False(t, access.HasKey(accounts.KeyUser))
	assert.Nil(t, access.Keys())
}

func TestAccessContextInstall(t *testing.T) {
	access := accounts.NewAccessContext()
	id := uuid.New()

	access.Install(id, accounts.AccessKeyList{accounts.KeyUser, accounts.KeyAdmin})

	assert.True(t, access.Authenticated())
	assert.Equal(t, id, access.CurrentIdentity())
	assert.True(t, access.HasKey(accounts.KeyUser))
	assert.True(t, access.HasKey(accounts.KeyAdmin))
	assert.False(t, access.HasKey("Owner"))
}

func TestAccessContextInstallReplacesKeys(t *testing.T) {
	access := accounts.NewAccessContext()

	first := uuid.New()
	access.Install(first, accounts.AccessKeyList{accounts.KeyAdmin})

	second := uuid.New()
	access.Install(second, accounts.AccessKeyList{accounts.KeyUser})

	// No keys from the previous identity may survive a re-install.
	assert.Equal(t, second, access.CurrentIdentity())
	assert.True(t, access.HasKey(accounts.KeyUser))
	assert.False(t, access.HasKey(accounts.KeyAdmin))
}

func TestAccessContextInstallCopiesKeys(t *testing.T) {
	access := accounts.NewAccessContext()

	keys := accounts.AccessKeyList{accounts.KeyUser}
	access.Install(uuid.New(), keys)

	keys[0] = accounts.KeyAdmin

	assert.True(t, access.HasKey(accounts.KeyUser))
	assert.False(t, access.HasKey(accounts.KeyAdmin))
}

func TestAccessContextClear(t *testing.T) {
	access := accounts.NewAccessContext()
	access.Install(uuid.New(), accounts.AccessKeyList{accounts.KeyAdmin})

	access.Clear()

	assert.False(t, access.Authenticated())
	assert.False(t, access.HasKey(accounts.KeyAdmin))

	// Clearing twice is fine.
	access.Clear()
	assert.False(t, access.Authenticated())
}

func TestAccessContextConcurrentReads(t *testing.T) {
	access := accounts.NewAccessContext()
	adminID := uuid.New()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				// Readers may race individual installs, but any observed key
				// set must be one that was actually installed, never a blend.
				if keys := access.Keys(); keys != nil {
					assert.Len(t, keys, 1)
					assert.True(t, keys.Has(accounts.KeyAdmin) || keys.Has(accounts.KeyUser))
				}
				_ = access.CurrentIdentity()
			}
		}()
	}

	for j := 0; j < 500; j++ {
		access.Install(adminID, accounts.AccessKeyList{accounts.KeyAdmin})
		access.Install(userID, accounts.AccessKeyList{accounts.KeyUser})
	}
	wg.Wait()
}

func TestKeysReturnsCopy(t *testing.T) {
	access := accounts.NewAccessContext()
	access.Install(uuid.New(), accounts.AccessKeyList{accounts.KeyUser})

	keys := access.Keys()
	keys[0] = accounts.KeyAdmin

	assert.True(t, access.HasKey(accounts.KeyUser))
	assert.False(t, access.HasKey(accounts.KeyAdmin))
}
