package accounts

import (
	"fmt"
	"time"
)

// Config carries the values the package needs from the host application.
// Implement it on your app's config struct; RouterConfig adapts the common
// case.
type Config interface {
	// GetSigningKey is the HMAC secret for session cookie tokens.
	GetSigningKey() string
	// GetTokenExpiration is the session token TTL in hours.
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	// GetSessionCookieName names the cookie carrying the session token.
	GetSessionCookieName() string
	// GetConfirmTokenLength is the confirmation token length in characters.
	GetConfirmTokenLength() int
	// GetPasswordLetters and GetPasswordDigits shape generated mnemonic
	// passwords. Digits > 0 appends, < 0 prepends, 0 omits.
	GetPasswordLetters() int
	GetPasswordDigits() int
	// GetOpenIDRelayTimeout bounds provider verification round trips.
	GetOpenIDRelayTimeout() time.Duration
	// GetRejectedRoute is where unauthenticated requests are redirected.
	GetRejectedRoute() string
}

// RouterConfig is a plain-struct Config for apps without their own config
// layer.
type RouterConfig struct {
	SigningKey         string
	TokenExpiration    int
	Issuer             string
	Audience           []string
	SessionCookieName  string
	ConfirmTokenLength int
	PasswordLetters    int
	PasswordDigits     int
	OpenIDRelayTimeout time.Duration
	RejectedRoute      string
}

var _ Config = RouterConfig{}

func (c RouterConfig) GetSigningKey() string { return c.SigningKey }

func (c RouterConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c RouterConfig) GetIssuer() string { return c.Issuer }

func (c RouterConfig) GetAudience() []string { return c.Audience }

func (c RouterConfig) GetSessionCookieName() string {
	if c.SessionCookieName == "" {
		return "accounts_session"
	}
	return c.SessionCookieName
}

func (c RouterConfig) GetConfirmTokenLength() int {
	if c.ConfirmTokenLength <= 0 {
		return DefaultTokenLength
	}
	return c.ConfirmTokenLength
}

func (c RouterConfig) GetPasswordLetters() int {
	if c.PasswordLetters <= 0 {
		return 8
	}
	return c.PasswordLetters
}

func (c RouterConfig) GetPasswordDigits() int { return c.PasswordDigits }

func (c RouterConfig) GetOpenIDRelayTimeout() time.Duration {
	if c.OpenIDRelayTimeout <= 0 {
		return DefaultRelayTimeout
	}
	return c.OpenIDRelayTimeout
}

func (c RouterConfig) GetRejectedRoute() string {
	if c.RejectedRoute == "" {
		return "/login"
	}
	return c.RejectedRoute
}

// ValidateConfig rejects configs that cannot produce working tokens.
func ValidateConfig(cfg Config) error {
	if cfg == nil {
		return fmt.Errorf("accounts: config must not be nil")
	}
	if cfg.GetSigningKey() == "" {
		return fmt.Errorf("accounts: signing key must not be empty")
	}
	return nil
}
