package accounts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosterRelaysFormParams(t *testing.T) {
	var gotMethod, gotContentType string
	var gotForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		_, _ = w.Write([]byte("is_valid:true\n"))
	}))
	defer server.Close()

	poster := accounts.NewPoster()

	body, err := poster.Post(context.Background(), server.URL, map[string]string{
		"openid.mode":      "check_authentication",
		"openid.assoc":     "handle-1",
		"openid.signature": "sig-value",
	})
	require.NoError(t, err)

	assert.Equal(t, "is_valid:true\n", body)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "check_authentication", gotForm["openid.mode"])
	assert.Equal(t, "handle-1", gotForm["openid.assoc"])
}

func TestPosterReturnsBodyForErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("error:bad request"))
	}))
	defer server.Close()

	poster := accounts.NewPoster()

	// HTTP status is for the caller to interpret; the relay just moves bytes.
	body, err := poster.Post(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "error:bad request", body)
}

func TestPosterDoesNotFollowRedirects(t *testing.T) {
	redirected := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/elsewhere" {
			redirected = true
			_, _ = w.Write([]byte("should not get here"))
			return
		}
		http.Redirect(w, r, "/elsewhere", http.StatusSeeOther)
	}))
	defer server.Close()

	poster := accounts.NewPoster()

	_, err := poster.Post(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.False(t, redirected, "relay must not follow provider redirects")
}

func TestPosterUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	poster := accounts.NewPoster()

	_, err := poster.Post(context.Background(), endpoint, map[string]string{"openid.mode": "check_authentication"})
	require.Error(t, err)
	assert.True(t, accounts.IsTransportError(err))
}

func TestPosterTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	poster := accounts.NewPoster(accounts.WithRelayTimeout(20 * time.Millisecond))

	_, err := poster.Post(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, accounts.IsTransportError(err))
}

func TestNewPosterFromConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	poster := accounts.NewPosterFromConfig(accounts.RouterConfig{
		OpenIDRelayTimeout: 20 * time.Millisecond,
	})

	_, err := poster.Post(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, accounts.IsTransportError(err))
}

func TestPosterEmptyEndpoint(t *testing.T) {
	poster := accounts.NewPoster()

	_, err := poster.Post(context.Background(), "", nil)
	require.Error(t, err)
	assert.False(t, accounts.IsTransportError(err))
}
