package accounts

import (
	"sync"

	"github.com/google/uuid"
)

// AccessContext holds the authenticated identity and its access keys for the
// duration of one request/session. It is owned by a single request and must
// never be shared across sessions; the mutex exists only to make the
// clear-then-set sequence during authentication a single critical section.
// A half-installed context (id set, keys stale) is a security defect.
type AccessContext struct {
	mu   sync.Mutex
	id   uuid.UUID
	keys AccessKeyList
}

// NewAccessContext returns an anonymous context.
func NewAccessContext() *AccessContext {
	return &AccessContext{}
}

// Install atomically replaces any previous identity and key set. Used by the
// Authenticator after a successful credential check.
func (a *AccessContext) Install(id uuid.UUID, keys AccessKeyList) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.id = uuid.Nil
	a.keys = nil

	a.id = id
	if len(keys) > 0 {
		a.keys = make(AccessKeyList, len(keys))
		copy(a.keys, keys)
	}
}

// SetIdentity sets the current identity without touching the key set.
func (a *AccessContext) SetIdentity(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = id
}

// SetAccessKeys replaces the key set without touching the identity.
func (a *AccessContext) SetAccessKeys(keys AccessKeyList) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = make(AccessKeyList, len(keys))
	copy(a.keys, keys)
}

// Clear resets the context to anonymous. Safe to call repeatedly.
func (a *AccessContext) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = uuid.Nil
	a.keys = nil
}

// CurrentIdentity returns the authenticated user id, or uuid.Nil when the
// context is anonymous.
func (a *AccessContext) CurrentIdentity() uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// Authenticated reports whether an identity is installed.
func (a *AccessContext) Authenticated() bool {
	return a.CurrentIdentity() != uuid.Nil
}

// HasKey reports whether the current identity carries the given access key.
// Anonymous contexts have no keys.
func (a *AccessContext) HasKey(key AccessKey) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys.Has(key)
}

// Keys returns a copy of the installed key set.
func (a *AccessContext) Keys() AccessKeyList {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.keys) == 0 {
		return nil
	}
	out := make(AccessKeyList, len(a.keys))
	copy(out, a.keys)
	return out
}
