package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage is the signup command payload.
type RegisterAccountMessage struct {
	RegistrationInput

	// GeneratePassword replaces Password with a mnemonic one when the form
	// did not supply any, e.g. for admin-created accounts. The generated
	// password comes back in the Result so it can be relayed once.
	GeneratePassword bool `json:"generate_password,omitempty"`
	// UseHashid derives the record id deterministically from the email.
	UseHashid bool `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountResult reports what the command produced.
type RegisterAccountResult struct {
	User *User
	// ConfirmToken also lives on User; duplicated here because the mailer
	// only needs the token and the email.
	ConfirmToken string
	// GeneratedPassword is set only when GeneratePassword was requested.
	GeneratedPassword string
}

// RegisterAccountHandler creates a pending account with a unique confirmation
// token. The whole command runs inside one transaction so a failed token or
// hash step never leaves a half-created record.
type RegisterAccountHandler struct {
	repo         RepositoryManager
	tokens       *TokenGenerator
	hasher       PasswordHasher
	cfg          Config
	activitySink ActivitySink
	logger       Logger
}

// NewRegisterAccountHandler wires the handler. cfg may be nil, in which case
// defaults apply.
func NewRegisterAccountHandler(repo RepositoryManager, tokens *TokenGenerator, cfg Config) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:         repo,
		tokens:       tokens,
		hasher:       BcryptHasher{},
		cfg:          cfg,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

// WithHasher overrides the password hasher.
func (h *RegisterAccountHandler) WithHasher(hasher PasswordHasher) *RegisterAccountHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithActivitySink configures an ActivitySink for registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute validates and persists the signup.
func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*RegisterAccountResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*RegisterAccountResult, error) {
	result := &RegisterAccountResult{}

	if event.GeneratePassword && !event.IsOpenID() && event.Password == "" {
		generated := h.tokens.GenerateMnemonicPassword(h.passwordLetters(), h.passwordDigits())
		event.Password = generated
		event.PasswordConfirm = generated
		result.GeneratedPassword = generated
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Collision checks run before the transaction so the insert never holds
	// its lock across token regeneration.
	token, err := h.tokens.GenerateConfirmationToken(ctx, h.tokenLength())
	if err != nil {
		return nil, err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user := &User{
			FirstName:      event.FirstName,
			LastName:       event.LastName,
			Email:          event.Email,
			Phone:          NormalizePhoneNumber(event.Phone, event.DefaultPhoneRegion),
			OpenIDIdentity: event.OpenIDIdentity,
			ConfirmToken:   token,
		}

		if !event.IsOpenID() {
			hash, err := h.hasher.Hash(event.Password)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			user.PasswordHash = hash
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		created, err := h.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			return err
		}

		result.User = created
		result.ConfirmToken = created.ConfirmToken
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	h.recordRegistered(ctx, result.User)

	return result, nil
}

func (h *RegisterAccountHandler) recordRegistered(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	sink := normalizeActivitySink(h.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserRegistered,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"openid": user.IsOpenID()},
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("registration activity sink error", "error", err)
	}
}

func (h *RegisterAccountHandler) tokenLength() int {
	if h.cfg != nil {
		return h.cfg.GetConfirmTokenLength()
	}
	return DefaultTokenLength
}

func (h *RegisterAccountHandler) passwordLetters() int {
	if h.cfg != nil {
		return h.cfg.GetPasswordLetters()
	}
	return 8
}

func (h *RegisterAccountHandler) passwordDigits() int {
	if h.cfg != nil {
		return h.cfg.GetPasswordDigits()
	}
	return 2
}
