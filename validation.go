package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// RegistrationInput is the raw signup form payload. Password is required for
// local accounts and must stay empty for federated ones, where
// OpenIDIdentity carries the verified identity URL instead.
type RegistrationInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password,omitempty"`
	PasswordConfirm string `json:"password_confirm,omitempty"`
	OpenIDIdentity  string `json:"openid_identity,omitempty"`

	// DefaultPhoneRegion is the ISO region used to parse national-format
	// phone numbers. Empty means only E.164 input is accepted.
	DefaultPhoneRegion string `json:"-"`
}

// IsOpenID reports whether the signup is federated.
func (r RegistrationInput) IsOpenID() bool {
	return r.OpenIDIdentity != ""
}

// Validate applies the signup rules. Failures come back as
// validation.Errors keyed by field, ready for FieldErrors.
func (r RegistrationInput) Validate() error {
	passwordRules := []validation.Rule{
		validation.By(requireEmptyString("federated accounts must not carry a password")),
	}
	confirmRules := []validation.Rule{}

	if !r.IsOpenID() {
		passwordRules = []validation.Rule{
			validation.Required.Error("password is required"),
			validation.Length(6, 72),
		}
		confirmRules = []validation.Rule{
			validation.Required.Error("password confirmation is required"),
			validation.By(ValidateStringEquals(r.Password, "passwords do not match")),
		}
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber(r.DefaultPhoneRegion))),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.PasswordConfirm, confirmRules...),
		validation.Field(&r.OpenIDIdentity, is.URL),
	)
}

func requireEmptyString(message string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); s != "" {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// ValidateStringEquals builds a rule asserting the field equals expected.
func ValidateStringEquals(expected, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// ValidatePhoneNumber builds a rule that accepts an empty phone or one
// phonenumbers can parse and deem valid. region is the default ISO region
// for national-format input, e.g. "US".
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		parsed, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("invalid phone number: %v", err)
		}

		if !phonenumbers.IsValidNumber(parsed) {
			return fmt.Errorf("invalid phone number")
		}

		return nil
	}
}

// NormalizePhoneNumber formats a valid phone into E.164 for storage. Returns
// the input unchanged when it cannot be parsed; validation owns rejection.
func NormalizePhoneNumber(phone, region string) string {
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
