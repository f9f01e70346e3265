package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// ActivateAccountMessage carries the confirmation token from the activation
// link back into the system.
type ActivateAccountMessage struct {
	Token string `json:"token"`
	Actor ActorRef
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

// ActivateAccountHandler resolves a confirmation token to its pending
// account and transitions it to active. The token is single-use: activation
// clears it, so replaying the same link fails with ErrInvalidToken.
type ActivateAccountHandler struct {
	repo         RepositoryManager
	states       UserStateMachine
	activitySink ActivitySink
	logger       Logger
}

// NewActivateAccountHandler wires the handler.
func NewActivateAccountHandler(repo RepositoryManager, states UserStateMachine) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:         repo,
		states:       states,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

// WithActivitySink configures an ActivitySink for activation events.
func (h *ActivateAccountHandler) WithActivitySink(sink ActivitySink) *ActivateAccountHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger.
func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute looks up the token and activates its account.
func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) (*User, error) {
	if event.Token == "" {
		return nil, ErrInvalidToken
	}

	user, err := h.repo.Users().GetByToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidToken.WithMetadata(map[string]any{
				"token": event.Token,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up confirmation token")
	}

	actor := event.Actor
	if actor == (ActorRef{}) {
		actor = ActorRef{ID: user.ID.String(), Type: "user"}
	}

	activated, err := h.states.Transition(ctx, actor, user, UserStatusActive,
		WithTransitionReason("confirmation token redeemed"),
	)
	if err != nil {
		return nil, err
	}

	h.recordActivated(ctx, actor, activated)

	return activated, nil
}

func (h *ActivateAccountHandler) recordActivated(ctx context.Context, actor ActorRef, user *User) {
	sink := normalizeActivitySink(h.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserActivated,
		Actor:      actor,
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("activation activity sink error", "error", err)
	}
}
