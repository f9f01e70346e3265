package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AuthPhase labels where a login attempt sits in its lifecycle. A request
// starts Anonymous, moves through Authenticating while credentials are
// checked, and ends Authenticated or Rejected. Phases are reported in
// activity events and by CurrentPhase.
type AuthPhase string

const (
	PhaseAnonymous      AuthPhase = "anonymous"
	PhaseAuthenticating AuthPhase = "authenticating"
	PhaseAuthenticated  AuthPhase = "authenticated"
	PhaseRejected       AuthPhase = "rejected"
)

// CurrentPhase reports the settled phase of an AccessContext.
func CurrentPhase(access *AccessContext) AuthPhase {
	if access == nil || !access.Authenticated() {
		return PhaseAnonymous
	}
	return PhaseAuthenticated
}

// CredentialStore is the slice of the users repository the Authenticator
// reads and touches.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByOpenID(ctx context.Context, identity string) (*User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Authenticator validates credentials and transitions a user into an
// authenticated session. It installs the identity and its access keys into
// the request's AccessContext as one critical section and snapshots the
// user record into the session store.
type Authenticator struct {
	store        CredentialStore
	sessions     SessionStore
	hasher       PasswordHasher
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// NewAuthenticator returns a new Authenticator. The default password hasher
// is bcrypt; inject LegacySHA1Hasher only for stores migrated from the old
// unsalted scheme.
func NewAuthenticator(store CredentialStore, sessions SessionStore) *Authenticator {
	return &Authenticator{
		store:        store,
		sessions:     sessions,
		hasher:       BcryptHasher{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
}

// WithHasher overrides the password hasher.
func (a *Authenticator) WithHasher(hasher PasswordHasher) *Authenticator {
	if hasher != nil {
		a.hasher = hasher
	}
	return a
}

// WithLogger overrides the logger.
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// WithClock injects a custom clock (useful for tests).
func (a *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	if clock != nil {
		a.now = clock
	}
	return a
}

// AuthenticateByPassword checks an email/password pair. An unknown email, an
// empty password, and a hash mismatch all fail with the same
// ErrInvalidCredentials so the response leaks nothing about which part was
// wrong.
func (a *Authenticator) AuthenticateByPassword(ctx context.Context, access *AccessContext, sessionID, email, password string) error {
	user, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return a.reject(ctx, access, ActorRef{Type: "unknown"}, "", map[string]any{
				"email":  email,
				"reason": "unknown email",
			})
		}
		a.logger.Error("authenticate password lookup failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user during authentication")
	}

	if password == "" || user.PasswordHash == "" {
		return a.reject(ctx, access, a.actorFor(user), user.ID.String(), map[string]any{
			"email":  email,
			"reason": "empty password or passwordless record",
		})
	}

	if err := a.hasher.Compare(password, user.PasswordHash); err != nil {
		return a.reject(ctx, access, a.actorFor(user), user.ID.String(), map[string]any{
			"email":  email,
			"reason": "password mismatch",
		})
	}

	return a.establish(ctx, access, sessionID, user, "password")
}

// AuthenticateByOpenID checks a federated identity URL. An identity with no
// matching record is not an error: the method returns (nil, nil) and leaves
// the AccessContext untouched, so the caller can route into a registration
// flow.
func (a *Authenticator) AuthenticateByOpenID(ctx context.Context, access *AccessContext, sessionID, identityURL string) (*User, error) {
	user, err := a.store.GetByOpenID(ctx, identityURL)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			a.emitAuthEvent(ctx, ActivityEventOpenIDUnknown, ActorRef{Type: "unknown"}, "", map[string]any{
				"identity": identityURL,
				"phase":    PhaseAnonymous,
			})
			return nil, nil
		}
		a.logger.Error("authenticate openid lookup failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user during authentication")
	}

	if err := a.establish(ctx, access, sessionID, user, "openid"); err != nil {
		return nil, err
	}

	return user, nil
}

// Logout clears the AccessContext and removes the session snapshot. Safe to
// call when already anonymous.
func (a *Authenticator) Logout(ctx context.Context, access *AccessContext, sessionID string) error {
	var userID string
	if access != nil {
		if id := access.CurrentIdentity(); id != uuid.Nil {
			userID = id.String()
		}
		access.Clear()
	}

	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove session state")
	}

	a.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
		"phase": PhaseAnonymous,
	})

	return nil
}

// establish is the common authenticate step: status gate, atomic context
// install, last-login touch, session snapshot.
func (a *Authenticator) establish(ctx context.Context, access *AccessContext, sessionID string, user *User, method string) error {
	user.EnsureStatus()

	if user.Status != UserStatusActive {
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, a.actorFor(user), user.ID.String(), map[string]any{
			"method": method,
			"status": user.Status,
			"phase":  PhaseRejected,
		})
		return ErrInactiveAccount.WithMetadata(map[string]any{
			"status": user.Status,
		})
	}

	// Clear-then-set runs under the context's lock: observers never see the
	// new identity with a stale key set.
	access.Install(user.ID, user.AccessKeys)

	now := a.now()
	if err := a.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		a.logger.Error("failed to record last login", "error", err, "user_id", user.ID)
	}
	user.LastLoginAt = &now

	snapshot := *user
	if err := a.sessions.Put(ctx, sessionID, &SessionState{
		User:            &snapshot,
		AuthenticatedAt: now,
	}); err != nil {
		// A session that cannot be persisted must not leave the request
		// half authenticated.
		access.Clear()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session state")
	}

	a.emitAuthEvent(ctx, ActivityEventLoginSuccess, a.actorFor(user), user.ID.String(), map[string]any{
		"method": method,
		"phase":  PhaseAuthenticated,
	})

	return nil
}

func (a *Authenticator) reject(ctx context.Context, access *AccessContext, actor ActorRef, userID string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["phase"] = PhaseRejected

	a.emitAuthEvent(ctx, ActivityEventLoginFailure, actor, userID, metadata)
	_ = access // rejection leaves the context exactly as it was

	return ErrInvalidCredentials
}

func (a *Authenticator) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error", "error", err)
	}
}

func (a *Authenticator) actorFor(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
