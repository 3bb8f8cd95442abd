package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etr/internal/api"
)

// oauthServer fakes the broker's OAuth endpoints. The verifier it accepts
// is fixed; anything else is rejected like an expired code would be.
func oauthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if verifierFromRequest(r) != "GOOD" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=acc-token&oauth_token_secret=acc-secret"))
	})
	mux.HandleFunc("/oauth/renew_access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// verifierFromRequest extracts oauth_verifier from the OAuth Authorization
// header (RFC 5849 3.5.1), where the oauth1 client sends it, falling back
// to the form encoding.
func verifierFromRequest(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("Authorization"), ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "OAuth"))
		if key, value, ok := strings.Cut(part, "="); ok && strings.TrimSpace(key) == "oauth_verifier" {
			value = strings.Trim(strings.TrimSpace(value), `"`)
			if decoded, err := url.QueryUnescape(value); err == nil {
				return decoded
			}
			return value
		}
	}
	_ = r.ParseForm()
	return r.FormValue("oauth_verifier")
}

func testEndpoints(server *httptest.Server) Endpoints {
	return Endpoints{
		RequestTokenURL: server.URL + "/oauth/request_token",
		AccessTokenURL:  server.URL + "/oauth/access_token",
		RenewTokenURL:   server.URL + "/oauth/renew_access_token",
		AuthorizeURL:    server.URL + "/authorize",
	}
}

func testSession(t *testing.T, server *httptest.Server) *Session {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), ".credential_cache")
	return NewSession("ckey", "csecret", true,
		WithEndpoints(testEndpoints(server)),
		WithCachePath(cachePath))
}

func TestSession_InitialState(t *testing.T) {
	s := testSession(t, oauthServer(t))

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Sandbox())
}

func TestSession_BeginAuthorization(t *testing.T) {
	s := testSession(t, oauthServer(t))

	authorizeURL, err := s.BeginAuthorization()

	require.NoError(t, err)
	assert.Equal(t, StateRequestTokenIssued, s.State())

	parsed, err := url.Parse(authorizeURL)
	require.NoError(t, err)
	assert.Equal(t, "ckey", parsed.Query().Get("key"))
	assert.Equal(t, "req-token", parsed.Query().Get("token"))
}

func TestSession_BeginAuthorization_BrokerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := NewSession("ckey", "csecret", true,
		WithEndpoints(testEndpoints(server)),
		WithCachePath(filepath.Join(t.TempDir(), "cache")))

	_, err := s.BeginAuthorization()

	var authErr *UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestSession_CompleteAuthorization_Success(t *testing.T) {
	s := testSession(t, oauthServer(t))

	_, err := s.BeginAuthorization()
	require.NoError(t, err)

	err = s.CompleteAuthorization("GOOD")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
}

func TestSession_CompleteAuthorization_EmptyVerifier(t *testing.T) {
	s := testSession(t, oauthServer(t))

	_, err := s.BeginAuthorization()
	require.NoError(t, err)

	err = s.CompleteAuthorization("")

	var valErr *api.ValidationError
	require.ErrorAs(t, err, &valErr)
	// The pending request token survives a local validation failure.
	assert.Equal(t, StateRequestTokenIssued, s.State())
}

func TestSession_CompleteAuthorization_WithoutBegin(t *testing.T) {
	s := testSession(t, oauthServer(t))

	err := s.CompleteAuthorization("GOOD")

	var preErr *api.PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestSession_CompleteAuthorization_BadVerifier(t *testing.T) {
	s := testSession(t, oauthServer(t))

	_, err := s.BeginAuthorization()
	require.NoError(t, err)

	err = s.CompleteAuthorization("WRONG")

	var authErr *UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_CredentialCachedAndRestored(t *testing.T) {
	server := oauthServer(t)
	cachePath := filepath.Join(t.TempDir(), ".credential_cache")

	s := NewSession("ckey", "csecret", true,
		WithEndpoints(testEndpoints(server)),
		WithCachePath(cachePath))
	_, err := s.BeginAuthorization()
	require.NoError(t, err)
	require.NoError(t, s.CompleteAuthorization("GOOD"))

	// A fresh session over the same cache picks the credential up.
	restored := NewSession("ckey", "csecret", true,
		WithEndpoints(testEndpoints(server)),
		WithCachePath(cachePath))
	assert.True(t, restored.Restore())
	assert.True(t, restored.IsAuthenticated())
}

func TestSession_Restore_ModeMismatch(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), ".credential_cache")
	require.NoError(t, SaveCredential(cachePath, &Credential{
		AccessToken:  "tok",
		AccessSecret: "sec",
		Sandbox:      false,
	}))

	// Production credential, sandbox session: not interchangeable.
	s := NewSession("ckey", "csecret", true, WithCachePath(cachePath))

	assert.False(t, s.Restore())
	assert.False(t, s.IsAuthenticated())
}

func TestSession_Logout(t *testing.T) {
	server := oauthServer(t)
	cachePath := filepath.Join(t.TempDir(), ".credential_cache")

	s := NewSession("ckey", "csecret", true,
		WithEndpoints(testEndpoints(server)),
		WithCachePath(cachePath))
	_, err := s.BeginAuthorization()
	require.NoError(t, err)
	require.NoError(t, s.CompleteAuthorization("GOOD"))

	require.NoError(t, s.Logout())

	assert.Equal(t, StateUnauthenticated, s.State())
	_, err = LoadCredential(cachePath)
	assert.Error(t, err)
}

func TestSession_HTTPClient_RequiresAuthentication(t *testing.T) {
	s := testSession(t, oauthServer(t))

	_, err := s.HTTPClient(context.Background())

	var preErr *api.PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestSession_CheckStatus_ValidCredential(t *testing.T) {
	server := oauthServer(t)
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AccountListResponse":{"Accounts":{"Account":[]}}}`))
	}))
	defer apiServer.Close()

	s := testSession(t, server)
	_, err := s.BeginAuthorization()
	require.NoError(t, err)
	require.NoError(t, s.CompleteAuthorization("GOOD"))

	status, err := s.CheckStatus(context.Background(), apiServer.URL)

	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.True(t, status.Sandbox)
}

func TestSession_CheckStatus_ExpiredCredentialResetsState(t *testing.T) {
	server := oauthServer(t)
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"Error":{"code":100,"message":"token expired"}}`))
	}))
	defer apiServer.Close()

	s := testSession(t, server)
	_, err := s.BeginAuthorization()
	require.NoError(t, err)
	require.NoError(t, s.CompleteAuthorization("GOOD"))

	status, err := s.CheckStatus(context.Background(), apiServer.URL)

	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestSession_CheckStatus_Unauthenticated(t *testing.T) {
	s := testSession(t, oauthServer(t))

	status, err := s.CheckStatus(context.Background(), "http://unused")

	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestTestCredentials(t *testing.T) {
	server := oauthServer(t)

	assert.NoError(t, TestCredentials("ckey", "csecret", testEndpoints(server)))
}

func TestTestCredentials_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := TestCredentials("bad", "keys", testEndpoints(server))

	var authErr *UpstreamAuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestSession_Renew(t *testing.T) {
	s := testSession(t, oauthServer(t))
	_, err := s.BeginAuthorization()
	require.NoError(t, err)
	require.NoError(t, s.CompleteAuthorization("GOOD"))

	assert.NoError(t, s.Renew(context.Background()))
}

func TestSession_Renew_RequiresAuthentication(t *testing.T) {
	s := testSession(t, oauthServer(t))

	err := s.Renew(context.Background())

	var preErr *api.PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "request-token-issued", StateRequestTokenIssued.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
