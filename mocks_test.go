package accounts_test

import (
	"context"
	"sync"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements accounts.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) GetByOpenID(ctx context.Context, identity string) (*accounts.User, error) {
	args := m.Called(ctx, identity)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockLifecycleStore implements accounts.LifecycleStore
type MockLifecycleStore struct {
	mock.Mock
}

func (m *MockLifecycleStore) Activate(ctx context.Context, id uuid.UUID) (*accounts.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockLifecycleStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenIndex implements accounts.TokenIndex
type MockTokenIndex struct {
	mock.Mock
}

func (m *MockTokenIndex) GetByToken(ctx context.Context, token string) (*accounts.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []accounts.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]accounts.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *capturingSink) Types() []accounts.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]accounts.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		types = append(types, e.EventType)
	}
	return types
}
