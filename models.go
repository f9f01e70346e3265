package accounts

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus tracks where an account sits in its lifecycle.
type UserStatus = string

const (
	// UserStatusPending is the status of a self-registered account that has
	// not confirmed its email address yet.
	UserStatusPending UserStatus = "pending"
	// UserStatusActive is the status of a confirmed, login-capable account.
	UserStatusActive UserStatus = "active"
	// UserStatusDeleted marks a soft-deleted account. The row is retained.
	UserStatusDeleted UserStatus = "deleted"
)

// AccessKey is a role/permission tag attached to a user record.
type AccessKey = string

const (
	// KeyUser is the default key granted to every account.
	KeyUser AccessKey = "User"
	// KeyAdmin grants administrative operations (status changes, full updates).
	KeyAdmin AccessKey = "Admin"
)

// AccessKeyList is the set of access keys on a record, stored comma-joined.
type AccessKeyList []AccessKey

// Has reports whether the list contains the given key.
func (l AccessKeyList) Has(key AccessKey) bool {
	for _, k := range l {
		if k == key {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer, joining keys with commas.
func (l AccessKeyList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner for string and []byte columns.
func (l *AccessKeyList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		*l = ParseAccessKeys(v)
		return nil
	case []byte:
		*l = ParseAccessKeys(string(v))
		return nil
	default:
		return fmt.Errorf("accounts: cannot scan access keys from %T", src)
	}
}

// ParseAccessKeys splits a comma-joined key string, dropping empty entries.
func ParseAccessKeys(s string) AccessKeyList {
	parts := strings.Split(s, ",")
	keys := make(AccessKeyList, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return keys
}

// User is the persisted credential record.
//
// PasswordHash is empty exactly when OpenIDIdentity is set: an OpenID-only
// account must not be able to log in through the email/password path.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string        `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string        `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string        `bun:"email,notnull" json:"email,omitempty"`
	Phone          string        `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string        `bun:"password_hash" json:"-"`
	OpenIDIdentity string        `bun:"openid_identity,nullzero" json:"openid_identity,omitempty"`
	Status         UserStatus    `bun:"status,notnull" json:"status,omitempty"`
	AccessKeys     AccessKeyList `bun:"access_keys" json:"access_keys,omitempty"`
	ConfirmToken   string        `bun:"confirm_token,nullzero" json:"-"`
	ConfirmSentAt  *time.Time    `bun:"confirm_sent_at,nullzero" json:"confirm_sent_at,omitempty"`
	CreatedAt      *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	LastLoginAt    *time.Time    `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
}

// Name returns the display name derived from the stored name columns.
// It is never persisted.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EnsureStatus backfills the zero value with pending, the state every
// self-registered record starts in.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusPending
	}
}

// IsOpenID reports whether this record authenticates through a federated
// identity provider instead of a password.
func (u *User) IsOpenID() bool {
	return u.OpenIDIdentity != ""
}

// IsDeleted reports whether the record has been soft deleted.
func (u *User) IsDeleted() bool {
	return u.Status == UserStatusDeleted
}

// HasKey reports whether the record carries the given access key.
func (u *User) HasKey(key AccessKey) bool {
	return u.AccessKeys.Has(key)
}
