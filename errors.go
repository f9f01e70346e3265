package accounts

import (
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for an unknown email, an empty password,
// or a hash mismatch. The three cases are deliberately indistinguishable.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrInactiveAccount is returned when credentials check out but the account
// status is not active.
var ErrInactiveAccount = goerrors.New("this account is not active", goerrors.CategoryAuth).
	WithTextCode("INACTIVE_ACCOUNT").
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned when an insert or profile update would reuse
// the email address of a non-deleted record.
var ErrDuplicateEmail = goerrors.New("this email address is already in use", goerrors.CategoryValidation).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(goerrors.CodeConflict)

// ErrTokenSpaceExhausted is the defensive bound on the confirmation token
// collision-retry loop. Hitting it means the token column is corrupt or the
// random source is broken, not that the space is genuinely full.
var ErrTokenSpaceExhausted = goerrors.New("confirmation token space exhausted", goerrors.CategoryInternal).
	WithTextCode("TOKEN_SPACE_EXHAUSTED")

// ErrInvalidToken is returned when a confirmation token matches no record.
var ErrInvalidToken = goerrors.New("unknown or expired confirmation token", goerrors.CategoryValidation).
	WithTextCode("INVALID_CONFIRM_TOKEN").
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyPassword rejects hashing an empty string.
var ErrNoEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrMismatchedHashAndPassword is the normalized bcrypt mismatch error.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionTokenExpired is returned for expired session cookie tokens.
var ErrSessionTokenExpired = goerrors.New("session token expired", goerrors.CategoryAuth).
	WithTextCode("SESSION_TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionTokenMalformed is returned for undecodable session cookie tokens.
var ErrSessionTokenMalformed = goerrors.New("session token malformed", goerrors.CategoryAuth).
	WithTextCode("SESSION_TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionNotFound is the error for a session id with no server-side state.
var ErrSessionNotFound = stderrors.New("session not found")

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsInvalidCredentials reports whether err is a credential validation failure.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, "INVALID_CREDENTIALS")
}

// IsInactiveAccount reports whether err is a blocked-status failure.
func IsInactiveAccount(err error) bool {
	return hasTextCode(err, "INACTIVE_ACCOUNT")
}

// IsDuplicateEmail reports whether err is an email uniqueness violation.
func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, "DUPLICATE_EMAIL")
}

// IsTransportError reports whether err came out of the OpenID relay.
func IsTransportError(err error) bool {
	return hasTextCode(err, "OPENID_TRANSPORT")
}

// FieldErrors flattens a validation failure into the field -> message map the
// form layer re-displays. Duplicate email failures surface under "email".
// Returns nil when err carries no field information.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		out := make(map[string]string, len(fieldErrs))
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	if IsDuplicateEmail(err) {
		return map[string]string{"email": ErrDuplicateEmail.Message}
	}

	return nil
}
