// Package auth owns the three-legged OAuth handshake with the broker and
// the resulting session state. Every other operation in the client is
// gated on this package reporting an authenticated session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dghubble/oauth1"
	log "github.com/sirupsen/logrus"

	"etr/internal/api"
)

// State is the session's position in the three-legged handshake. No
// transition skips a state.
type State int

const (
	// StateUnauthenticated is the initial state and the state after logout.
	StateUnauthenticated State = iota
	// StateRequestTokenIssued means a request token is pending a verifier.
	StateRequestTokenIssued
	// StateAuthenticated means an access credential is held.
	StateAuthenticated
)

// String returns a short label for logging.
func (s State) String() string {
	switch s {
	case StateRequestTokenIssued:
		return "request-token-issued"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// UpstreamAuthError reports the broker rejecting a step of the handshake:
// an unconfigured or invalid consumer key pair, an expired or wrong
// verifier, or a request token that was already consumed.
type UpstreamAuthError struct {
	Op  string
	Err error
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("broker rejected %s: %v", e.Op, e.Err)
}

func (e *UpstreamAuthError) Unwrap() error {
	return e.Err
}

// Endpoints are the OAuth endpoints of the broker. Injectable so tests can
// point the handshake at an httptest server.
type Endpoints struct {
	RequestTokenURL string
	AccessTokenURL  string
	RenewTokenURL   string
	AuthorizeURL    string
}

// authorizePageURL is the user-facing authorization page. It is the same
// for sandbox and production; only the API hosts differ.
const authorizePageURL = "https://us.etrade.com/e/t/etws/authorize"

// BrokerEndpoints returns the broker's OAuth endpoints for the given mode.
func BrokerEndpoints(sandbox bool) Endpoints {
	base := api.ProductionBaseURL
	if sandbox {
		base = api.SandboxBaseURL
	}
	return Endpoints{
		RequestTokenURL: base + "/oauth/request_token",
		AccessTokenURL:  base + "/oauth/access_token",
		RenewTokenURL:   base + "/oauth/renew_access_token",
		AuthorizeURL:    authorizePageURL,
	}
}

// Status is the session validity snapshot returned by CheckStatus.
type Status struct {
	Authenticated bool
	Sandbox       bool
}

// Session holds the OAuth state for one consumer key pair. Safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	consumerKey    string
	consumerSecret string
	sandbox        bool
	endpoints      Endpoints
	cachePath      string

	state         State
	requestToken  string
	requestSecret string
	access        *oauth1.Token
}

// Option configures a Session.
type Option func(*Session)

// WithEndpoints overrides the broker OAuth endpoints.
func WithEndpoints(e Endpoints) Option {
	return func(s *Session) { s.endpoints = e }
}

// WithCachePath overrides where the access credential is cached.
func WithCachePath(path string) Option {
	return func(s *Session) { s.cachePath = path }
}

// NewSession creates an unauthenticated session for the given consumer key
// pair and mode.
func NewSession(consumerKey, consumerSecret string, sandbox bool, opts ...Option) *Session {
	s := &Session{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		sandbox:        sandbox,
		endpoints:      BrokerEndpoints(sandbox),
		cachePath:      CredentialCachePath(),
		state:          StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// config builds the oauth1 configuration for the current endpoints.
func (s *Session) config() *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    s.consumerKey,
		ConsumerSecret: s.consumerSecret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: s.endpoints.RequestTokenURL,
			AuthorizeURL:    s.endpoints.AuthorizeURL,
			AccessTokenURL:  s.endpoints.AccessTokenURL,
		},
	}
}

// State returns the current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether an access credential is held. All
// account, market data, and order operations are gated on this.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Sandbox reports whether the session targets the paper trading host.
func (s *Session) Sandbox() bool {
	return s.sandbox
}

// Restore loads a cached access credential, if one matching the session's
// mode exists, and moves the session straight to Authenticated. Returns
// true when a credential was restored.
func (s *Session) Restore() bool {
	cred, err := LoadCredential(s.cachePath)
	if err != nil || cred.Sandbox != s.sandbox {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = oauth1.NewToken(cred.AccessToken, cred.AccessSecret)
	s.state = StateAuthenticated
	return true
}

// BeginAuthorization requests a temporary request token from the broker
// and returns the URL the user must visit to approve it. Re-entering from
// RequestTokenIssued overwrites the pending request token; the old one
// becomes unusable.
func (s *Session) BeginAuthorization() (string, error) {
	requestToken, requestSecret, err := s.config().RequestToken()
	if err != nil {
		return "", &UpstreamAuthError{Op: "request token", Err: err}
	}

	s.mu.Lock()
	s.requestToken = requestToken
	s.requestSecret = requestSecret
	s.state = StateRequestTokenIssued
	s.mu.Unlock()

	log.WithField("state", StateRequestTokenIssued).Debug("authorization started")

	// The broker's authorization page takes the consumer key and the
	// request token as its own query parameters.
	query := url.Values{}
	query.Set("key", s.consumerKey)
	query.Set("token", requestToken)
	return s.endpoints.AuthorizeURL + "?" + query.Encode(), nil
}

// CompleteAuthorization exchanges the user-supplied verifier code plus the
// stored request token for a long-lived access credential. On success the
// session is Authenticated and the credential is cached.
func (s *Session) CompleteAuthorization(verifier string) error {
	if verifier == "" {
		return &api.ValidationError{Msg: "verifier code is required"}
	}

	s.mu.Lock()
	if s.state != StateRequestTokenIssued {
		s.mu.Unlock()
		return &api.PreconditionError{Msg: "no pending authorization; begin authorization first"}
	}
	requestToken, requestSecret := s.requestToken, s.requestSecret
	s.mu.Unlock()

	accessToken, accessSecret, err := s.config().AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return &UpstreamAuthError{Op: "verifier", Err: err}
	}

	s.mu.Lock()
	s.access = oauth1.NewToken(accessToken, accessSecret)
	s.requestToken = ""
	s.requestSecret = ""
	s.state = StateAuthenticated
	s.mu.Unlock()

	// Cache failures are not fatal; the in-memory credential still works.
	_ = SaveCredential(s.cachePath, &Credential{
		AccessToken:  accessToken,
		AccessSecret: accessSecret,
		Sandbox:      s.sandbox,
	})

	log.WithField("state", StateAuthenticated).Debug("authorization completed")
	return nil
}

// Logout discards the access credential and its cache, returning the
// session to Unauthenticated.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.access = nil
	s.requestToken = ""
	s.requestSecret = ""
	s.state = StateUnauthenticated
	s.mu.Unlock()

	return ClearCredential(s.cachePath)
}

// HTTPClient returns an http.Client that signs requests with the access
// credential. PreconditionError when the session is not authenticated.
func (s *Session) HTTPClient(ctx context.Context) (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.access == nil {
		return nil, &api.PreconditionError{Msg: "not authenticated"}
	}
	return s.config().Client(ctx, s.access), nil
}

// CheckStatus probes the broker with the held credential and refreshes the
// authenticated flag. It is idempotent and mutates nothing else: a probe
// that comes back 401 marks the session unauthenticated.
func (s *Session) CheckStatus(ctx context.Context, apiBaseURL string) (Status, error) {
	status := Status{Sandbox: s.sandbox}

	httpClient, err := s.HTTPClient(ctx)
	if err != nil {
		return status, nil
	}

	client := api.NewClient(apiBaseURL, httpClient)
	_, err = client.ListAccounts(ctx)
	if err != nil {
		var upErr *api.UpstreamError
		if errors.As(err, &upErr) && upErr.IsUnauthorized() {
			s.mu.Lock()
			s.state = StateUnauthenticated
			s.access = nil
			s.mu.Unlock()
			return status, nil
		}
		return status, fmt.Errorf("status probe failed: %w", err)
	}

	status.Authenticated = true
	return status, nil
}

// TestCredentials performs a dry request-token call with the given
// consumer key pair against the given endpoints. It is independent of any
// live session and mutates nothing; use it to validate new keys before
// committing them.
func TestCredentials(key, secret string, endpoints Endpoints) error {
	config := &oauth1.Config{
		ConsumerKey:    key,
		ConsumerSecret: secret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: endpoints.RequestTokenURL,
			AuthorizeURL:    endpoints.AuthorizeURL,
			AccessTokenURL:  endpoints.AccessTokenURL,
		},
	}
	if _, _, err := config.RequestToken(); err != nil {
		return &UpstreamAuthError{Op: "credential test", Err: err}
	}
	return nil
}

// Renew asks the broker to extend the access credential's validity. The
// broker expires idle credentials; a renewed one keeps working without a
// fresh handshake.
func (s *Session) Renew(ctx context.Context) error {
	httpClient, err := s.HTTPClient(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.RenewTokenURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to renew access token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamAuthError{Op: "renew", Err: fmt.Errorf("status %s", resp.Status)}
	}

	return nil
}
