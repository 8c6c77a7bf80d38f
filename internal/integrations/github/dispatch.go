// Package github triggers repository_dispatch events so a webhook receiver can
// hand work off to a repository's workflow runs.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "zoom-discord-workflows-bridge"
)

// HTTPStatusError is returned when the GitHub API responds with an unexpected
// status code.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("github: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// HTTPStatusCode returns the upstream HTTP status code.
func (e *HTTPStatusError) HTTPStatusCode() int { return e.StatusCode }

// Dispatcher sends repository_dispatch events to a single repository.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	token      string
	owner      string
	repo       string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBaseURL overrides the GitHub API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(d *Dispatcher) { d.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.httpClient = c }
}

// NewDispatcher creates a Dispatcher for owner/repo authenticated with the
// given token.
func NewDispatcher(token, owner, repo string, opts ...Option) (*Dispatcher, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("github: token is required")
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" {
		return nil, errors.New("github: owner and repo are required")
	}
	d := &Dispatcher{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		owner:      owner,
		repo:       repo,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type dispatchRequest struct {
	EventType     string `json:"event_type"`
	ClientPayload any    `json:"client_payload,omitempty"`
}

// Dispatch fires a repository_dispatch event. GitHub acknowledges with 204 No
// Content; any other status is an error.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, clientPayload any) error {
	if strings.TrimSpace(eventType) == "" {
		return errors.New("github: event type is required")
	}

	body, err := json.Marshal(dispatchRequest{EventType: eventType, ClientPayload: clientPayload})
	if err != nil {
		return fmt.Errorf("github: marshal dispatch request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/dispatches", d.baseURL, d.owner, d.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("github: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url, Body: string(respBody)}
	}
	return nil
}
