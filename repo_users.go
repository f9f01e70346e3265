package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var setPasswordHashSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?
WHERE
	"usr"."id" = ?
AND "usr"."openid_identity" IS NULL
AND "usr"."status" != 'deleted'
RETURNING *;`

var activateUserSQL = `UPDATE "users" AS "usr"
SET
	"status" = 'active',
	"confirm_token" = NULL
WHERE
	"usr"."id" = ?
RETURNING *;`

// ProfileUpdate carries the self-service fields a user may change about
// their own record. Status, access keys, OpenID identity, confirmation and
// audit columns are administrative and cannot be reached through it.
// PasswordHash is ignored for OpenID records, which must stay passwordless.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	PasswordHash *string
}

// Users is the credential store. Reads of single records go through an LRU
// cache keyed by id; every mutator invalidates the touched entry.
type Users interface {
	repository.Repository[*User]

	GetRecord(ctx context.Context, id uuid.UUID) (*User, error)
	GetRecordTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByOpenID(ctx context.Context, identity string) (*User, error)
	GetByOpenIDTx(ctx context.Context, tx bun.IDB, identity string) (*User, error)
	GetByToken(ctx context.Context, token string) (*User, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	Register(ctx context.Context, record *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileUpdate) (*User, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileUpdate) (*User, error)

	Activate(ctx context.Context, id uuid.UUID) (*User, error)
	ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	TouchLastLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
}

type users struct {
	repository.Repository[*User]
	db    *bun.DB
	cache *recordCache
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ TokenIndex                   = (*users)(nil)
)

// UsersOption customizes the users repository.
type UsersOption func(*users)

// WithRecordCacheSize overrides the LRU capacity of the record cache.
func WithRecordCacheSize(size int) UsersOption {
	return func(u *users) {
		if size > 0 {
			u.cache = newRecordCache(size)
		}
	}
}

// NewUsersRepository returns the Bun-backed credential store.
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		cache:      newRecordCache(defaultRecordCacheSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetRecord(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetRecordTx(ctx, a.db, id)
}

func (a *users) GetRecordTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	if cached, ok := a.cache.get(id); ok {
		return cached, nil
	}

	record, err := a.findOneTx(ctx, tx, "id", id.String())
	if err != nil {
		return nil, err
	}

	a.cache.put(record)
	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.findOneTx(ctx, tx, "email", email)
}

func (a *users) GetByOpenID(ctx context.Context, identity string) (*User, error) {
	return a.GetByOpenIDTx(ctx, a.db, identity)
}

func (a *users) GetByOpenIDTx(ctx context.Context, tx bun.IDB, identity string) (*User, error) {
	return a.findOneTx(ctx, tx, "openid_identity", identity)
}

func (a *users) GetByToken(ctx context.Context, token string) (*User, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *users) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	return a.findOneTx(ctx, tx, "confirm_token", token)
}

func (a *users) findOneTx(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)

	inUse, err := a.emailInUseTx(ctx, tx, record.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, ErrDuplicateEmail.WithMetadata(map[string]any{
			"email": record.Email,
		})
	}

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		return nil, err
	}

	a.cache.invalidate(created.ID)
	return created, nil
}

// Register persists a self-registered account: the record always starts
// pending with the default User key, no matter what the caller set. Use
// Create for administrative inserts that fix status and keys directly.
func (a *users) Register(ctx context.Context, record *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record == nil {
		return nil, goerrors.New("cannot register a nil user", goerrors.CategoryValidation)
	}

	record.Status = UserStatusPending
	record.AccessKeys = AccessKeyList{KeyUser}

	// The confirmation mail goes out as part of registration, so the record
	// keeps when its token was issued.
	if record.ConfirmToken != "" && record.ConfirmSentAt == nil {
		now := time.Now()
		record.ConfirmSentAt = &now
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileUpdate) (*User, error) {
	return a.UpdateProfileTx(ctx, a.db, id, changes)
}

func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileUpdate) (*User, error) {
	current, err := a.findOneTx(ctx, tx, "id", id.String())
	if err != nil {
		return nil, err
	}

	if changes.Email != nil && *changes.Email != current.Email {
		inUse, err := a.emailInUseTx(ctx, tx, *changes.Email, id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, ErrDuplicateEmail.WithMetadata(map[string]any{
				"email": *changes.Email,
			})
		}
		current.Email = *changes.Email
	}

	if changes.FirstName != nil {
		current.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		current.LastName = *changes.LastName
	}
	if changes.Phone != nil {
		current.Phone = *changes.Phone
	}
	if changes.PasswordHash != nil && !current.IsOpenID() {
		current.PasswordHash = *changes.PasswordHash
	}

	updated, err := a.Repository.UpdateTx(ctx, tx, current, repository.UpdateByID(id.String()))
	if err != nil {
		return nil, err
	}

	a.cache.invalidate(id)
	return updated, nil
}

func (a *users) Activate(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.ActivateTx(ctx, a.db, id)
}

// ActivateTx flips the record to active and clears the confirmation token in
// the same statement, so the token can never survive activation.
func (a *users) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, activateUserSQL, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	a.cache.invalidate(id)
	return res[0], nil
}

func (a *users) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return a.SoftDeleteTx(ctx, a.db, id)
}

// SoftDeleteTx marks the record deleted. The row is retained; its email no
// longer counts toward uniqueness.
func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"status" = 'deleted'
		WHERE
			("usr".id = ?);
	`, id).Exec(ctx)
	if err != nil {
		return err
	}

	a.cache.invalidate(id)
	return nil
}

func (a *users) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return a.SetPasswordHashTx(ctx, a.db, id, hash)
}

// SetPasswordHashTx stores a new hash. OpenID records are excluded at the
// SQL level so they stay passwordless.
func (a *users) SetPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string) error {
	res, err := a.Repository.RawTx(ctx, tx, setPasswordHashSQL, hash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	a.cache.invalidate(id)
	return nil
}

func (a *users) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return a.TouchLastLoginTx(ctx, a.db, id, at)
}

func (a *users) TouchLastLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"last_login_at" = ?
		WHERE
			("usr".id = ?);
	`, at, id).Exec(ctx)
	if err != nil {
		return err
	}

	a.cache.invalidate(id)
	return nil
}

// emailInUseTx reports whether a non-deleted record other than exclude
// already claims the email.
func (a *users) emailInUseTx(ctx context.Context, tx bun.IDB, email string, exclude uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.status != ?", UserStatusDeleted)

	if exclude != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", exclude.String())
	}

	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if len(record.AccessKeys) == 0 {
		record.AccessKeys = AccessKeyList{KeyUser}
	}

	// An OpenID identity forces an empty password hash, otherwise the
	// record would be reachable through the email/password path as well.
	if record.IsOpenID() {
		record.PasswordHash = ""
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}
