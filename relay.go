package accounts

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultRelayTimeout bounds the provider round trip. Direct
	// verification calls hang the login flow, so they never run unbounded.
	DefaultRelayTimeout = 10 * time.Second

	textCodeOpenIDTransport = "OPENID_TRANSPORT"
)

// ErrRelayTransport is returned when the provider could not be reached or
// did not answer in time.
var ErrRelayTransport = goerrors.New("openid provider request failed", goerrors.CategoryOperation).
	WithTextCode(textCodeOpenIDTransport).
	WithCode(goerrors.CodeInternal)

// Poster relays verification requests to an OpenID provider. It is pure
// transport: it posts the key/value pairs the caller hands it and returns
// the raw response body. Interpreting the provider's answer, including any
// signature checks, stays with the caller.
type Poster struct {
	client *http.Client
	logger Logger
}

// PosterOption customizes a Poster.
type PosterOption func(*Poster)

// WithRelayTimeout overrides the request timeout.
func WithRelayTimeout(timeout time.Duration) PosterOption {
	return func(p *Poster) {
		if timeout > 0 {
			p.client.Timeout = timeout
		}
	}
}

// WithRelayClient replaces the HTTP client wholesale. The replacement keeps
// the no-redirect policy unless the caller installs their own.
func WithRelayClient(client *http.Client) PosterOption {
	return func(p *Poster) {
		if client == nil {
			return
		}
		if client.CheckRedirect == nil {
			client.CheckRedirect = noRedirects
		}
		p.client = client
	}
}

// WithRelayLogger overrides the logger.
func WithRelayLogger(logger Logger) PosterOption {
	return func(p *Poster) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoster returns a Poster with the default timeout. Redirect responses
// are returned as-is, never followed: a provider that answers a
// check_authentication POST with a redirect is not giving a verdict.
func NewPoster(opts ...PosterOption) *Poster {
	p := &Poster{
		client: &http.Client{
			Timeout:       DefaultRelayTimeout,
			CheckRedirect: noRedirects,
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// NewPosterFromConfig builds a Poster bounded by the relay timeout the host
// config carries. Extra options apply on top and may override it.
func NewPosterFromConfig(cfg Config, opts ...PosterOption) *Poster {
	base := make([]PosterOption, 0, len(opts)+1)
	if cfg != nil {
		base = append(base, WithRelayTimeout(cfg.GetOpenIDRelayTimeout()))
	}
	return NewPoster(append(base, opts...)...)
}

func noRedirects(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// Post form-encodes params, POSTs them to endpoint, and returns the raw
// response body. Network failures and timeouts come back as relay transport
// errors; any HTTP status is a successful relay and its body is returned
// untouched.
func (p *Poster) Post(ctx context.Context, endpoint string, params map[string]string) (string, error) {
	if endpoint == "" {
		return "", goerrors.New("relay endpoint must not be empty", goerrors.CategoryValidation)
	}

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "failed to build relay request").
			WithMetadata(map[string]any{
				"endpoint": endpoint,
			})
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("openid relay request failed", "endpoint", endpoint, "error", err)
		return "", goerrors.Wrap(err, ErrRelayTransport.Category, ErrRelayTransport.Message).
			WithTextCode(ErrRelayTransport.TextCode).
			WithMetadata(map[string]any{
				"endpoint": endpoint,
			})
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", goerrors.Wrap(err, ErrRelayTransport.Category, "failed to read provider response").
			WithTextCode(ErrRelayTransport.TextCode).
			WithMetadata(map[string]any{
				"endpoint": endpoint,
			})
	}

	return string(body), nil
}
