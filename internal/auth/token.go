package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoAccessToken is returned when the token endpoint responds without
// an access_token field.
var ErrNoAccessToken = errors.New("auth: token response did not contain an access_token")

// Options configures the token manager.
type Options struct {
	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// ClientID and ClientSecret are the client-credentials pair.
	ClientID     string
	ClientSecret string

	// RefreshBuffer re-authenticates when this much time remains before
	// token expiry.
	// Default: 5m
	RefreshBuffer time.Duration
}

// TokenManager caches an OAuth2 access token obtained via the Client
// Credentials Grant and refreshes it when it approaches expiry.
//
// Downloads within a window run on concurrent goroutines and all ask for
// the current token, so access is serialized under a mutex.
type TokenManager struct {
	opts   Options
	client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager creates a TokenManager that performs token requests
// with the given HTTP client.
func NewTokenManager(opts Options, client *http.Client) *TokenManager {
	if opts.RefreshBuffer == 0 {
		opts.RefreshBuffer = 5 * time.Minute
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenManager{opts: opts, client: client}
}

// Token returns a valid bearer token, fetching a new one if the cached
// token is absent, expired, or within the refresh buffer of expiry.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid() {
		return m.token, nil
	}

	if err := m.fetch(ctx); err != nil {
		return "", err
	}
	return m.token, nil
}

// Invalidate forces the next Token call to fetch a fresh token.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

// valid reports whether the cached token exists and is not approaching
// expiry. Caller must hold mu.
func (m *TokenManager) valid() bool {
	if m.token == "" {
		return false
	}
	return time.Now().Before(m.expiresAt.Add(-m.opts.RefreshBuffer))
}

// tokenResponse is the relevant subset of the OAuth2 token response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// fetch requests a new token via the Client Credentials Grant.
// Caller must hold mu.
func (m *TokenManager) fetch(ctx context.Context) error {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: create token request: %w", err)
	}
	req.SetBasicAuth(m.opts.ClientID, m.opts.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: token request failed (HTTP %d): %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("auth: parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return ErrNoAccessToken
	}

	// The API omits expires_in on some gateway configurations; assume
	// the documented default of one hour.
	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	m.token = tr.AccessToken
	m.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	log.Debug().
		Time("expires_at", m.expiresAt).
		Msg("obtained access token")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
