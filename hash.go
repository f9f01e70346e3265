package accounts

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies login passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// BcryptHasher is the default hasher.
type BcryptHasher struct {
	Cost int
}

// Hash generates a bcrypt hash for the given password.
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	cost := h.Cost
	if cost == 0 {
		cost = 14
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(out), nil
}

// Compare validates the cleartext password against a stored bcrypt hash.
func (h BcryptHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "failed to compare password hash")
	}
	return nil
}

// LegacySHA1Hasher reproduces the unsalted single-round SHA-1 scheme of the
// system this package migrated from. It exists only so rows hashed under
// that scheme keep authenticating until they are rotated to bcrypt.
//
// Deprecated: unsalted fast hashes are not acceptable for new records; use
// BcryptHasher.
type LegacySHA1Hasher struct{}

// Hash hex-encodes sha1(password).
func (LegacySHA1Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Compare checks the cleartext against a stored hex SHA-1 digest in constant
// time.
func (h LegacySHA1Hasher) Compare(password, hash string) error {
	computed, err := h.Hash(password)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}
