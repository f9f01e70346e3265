package accounts

import (
	"context"

	"github.com/google/uuid"
)

var accessCtxKey = &contextKey{"access"}
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithAccessContext attaches the request's AccessContext to ctx. Carrying it
// on the context instead of a process-wide registry keeps per-request
// isolation testable.
func WithAccessContext(ctx context.Context, access *AccessContext) context.Context {
	return context.WithValue(ctx, accessCtxKey, access)
}

// AccessFromContext finds the AccessContext attached to ctx.
func AccessFromContext(ctx context.Context) (*AccessContext, bool) {
	raw, ok := ctx.Value(accessCtxKey).(*AccessContext)
	return raw, ok
}

// WithUser attaches the authenticated user snapshot to ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user snapshot attached to ctx.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// HasKey is a convenience check against the context's AccessContext.
// Returns false when no context is attached.
func HasKey(ctx context.Context, key AccessKey) bool {
	access, ok := AccessFromContext(ctx)
	if !ok {
		return false
	}
	return access.HasKey(key)
}

// CurrentIdentity returns the authenticated identity from ctx, or uuid.Nil.
func CurrentIdentity(ctx context.Context) uuid.UUID {
	access, ok := AccessFromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return access.CurrentIdentity()
}
