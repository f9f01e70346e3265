package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// SessionClaims is the payload of the signed session cookie. The session id
// travels in the registered ID (jti) claim; the server-side SessionState it
// names is the authority, the token only proves the cookie was minted here.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID  string        `json:"uid,omitempty"`
	Keys AccessKeyList `json:"keys,omitempty"`
}

// SessionID returns the session id the token names.
func (c *SessionClaims) SessionID() string {
	return c.RegisteredClaims.ID
}

// SessionTokenService mints and validates the HS256 tokens stored in the
// session cookie.
type SessionTokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewSessionTokenService creates a new SessionTokenService. ttlHours falls
// back to 24 when non-positive.
func NewSessionTokenService(signingKey []byte, ttlHours int, issuer string, audience []string, logger Logger) *SessionTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if ttlHours <= 0 {
		ttlHours = 24
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &SessionTokenService{
		signingKey: signingKey,
		ttl:        time.Duration(ttlHours) * time.Hour,
		issuer:     issuer,
		audience:   aud,
		logger:     logger,
	}
}

// Mint signs a token binding sessionID to the authenticated user.
func (ts *SessionTokenService) Mint(sessionID string, user *User) (string, error) {
	if sessionID == "" {
		return "", goerrors.New("session id must not be empty", goerrors.CategoryValidation)
	}
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryValidation)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID:  user.ID.String(),
		Keys: user.AccessKeys,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Validate parses a cookie token and returns its claims.
func (ts *SessionTokenService) Validate(raw string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("session token has unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrSessionTokenMalformed.Category, ErrSessionTokenMalformed.Message).
			WithTextCode(ErrSessionTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("session token claims could not be decoded")
		return nil, ErrSessionTokenMalformed
	}

	if claims.SessionID() == "" {
		return nil, ErrSessionTokenMalformed
	}

	return claims, nil
}
