package zoom

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
)

const defaultTokenURL = "https://zoom.us/oauth/token"

// tokenSafetyMargin is subtracted from the advertised token lifetime so a
// token is never handed out moments before it expires server-side.
const tokenSafetyMargin = 5 * time.Minute

// AuthError captures a failed server-to-server OAuth token exchange. It is
// fatal for the run; callers must not retry.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zoom: token exchange failed with status %d: %s", e.StatusCode, e.Body)
}

// credential is a bearer token together with its expiry deadline. Owned
// exclusively by TokenProvider.
type credential struct {
	token     string
	expiresAt time.Time
}

func (c credential) valid(now time.Time) bool {
	return c.token != "" && now.Before(c.expiresAt.Add(-tokenSafetyMargin))
}

// TokenProvider exchanges server-to-server OAuth client credentials for a
// short-lived bearer token and caches it for the process lifetime. A cached
// token is reused while it is still at least tokenSafetyMargin from expiry.
type TokenProvider struct {
	accountID    string
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time

	mu     sync.Mutex
	cached credential
}

type TokenOption func(*TokenProvider)

func WithTokenURL(u string) TokenOption {
	return func(p *TokenProvider) {
		p.tokenURL = strings.TrimSpace(u)
	}
}

func WithTokenHTTPClient(c *http.Client) TokenOption {
	return func(p *TokenProvider) {
		p.httpClient = c
	}
}

// WithClock overrides the provider's notion of the current time.
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		p.now = now
	}
}

func NewTokenProvider(accountID, clientID, clientSecret string, opts ...TokenOption) (*TokenProvider, error) {
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, errors.New("zoom: account id, client id and client secret are all required")
	}
	p := &TokenProvider{
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Token returns a bearer token, issuing a network exchange only when no valid
// cached token exists.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached.valid(p.now()) {
		return p.cached.token, nil
	}

	cred, err := p.exchange(ctx)
	if err != nil {
		return "", err
	}
	p.cached = cred
	return cred.token, nil
}

func (p *TokenProvider) exchange(ctx context.Context) (credential, error) {
	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", p.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return credential{}, fmt.Errorf("zoom: create token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return credential{}, fmt.Errorf("zoom: token request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if res.StatusCode != http.StatusOK {
		return credential{}, &AuthError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return credential{}, fmt.Errorf("zoom: decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return credential{}, errors.New("zoom: token response contained no access token")
	}

	return credential{
		token:     payload.AccessToken,
		expiresAt: p.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}
