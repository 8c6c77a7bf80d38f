package canva

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

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

const defaultBaseURL = "https://api.canva.com/rest/v1"

// Field length limits accepted by the brand template.
const (
	maxTitleFieldLen    = 60
	maxSubtitleFieldLen = 40
)

// defaultSubtitle is substituted when no subtitle is supplied, so the
// template's subtitle element never renders empty.
const defaultSubtitle = "講義録画"

// HTTPStatusError captures non-2xx responses from the Canva REST API.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("canva: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client drives the Canva autofill, design and export endpoints for one
// pre-built brand template.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	exportClient *http.Client
	apiKey       string
	templateID   string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
		c.exportClient = httpClient
	}
}

// NewClient creates a template-bound Canva client. Both the API key and the
// template id are required; when either is absent the caller should skip the
// remote thumbnail path entirely rather than construct a client.
func NewClient(apiKey, templateID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("canva: API key must not be empty")
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, errors.New("canva: template id must not be empty")
	}
	c := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		exportClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:       apiKey,
		templateID:   templateID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Autofill inserts the given texts into the brand template's named fields and
// returns the id of the resulting design.
func (c *Client) Autofill(ctx context.Context, title, subtitle string) (string, error) {
	sub := subtitle
	if sub == "" {
		sub = defaultSubtitle
	}
	payload := map[string]any{
		"brand_template_id": c.templateID,
		"data": map[string]string{
			"title":            domain.TruncateRunes(title, maxTitleFieldLen),
			"subtitle":         domain.TruncateRunes(subtitle, maxSubtitleFieldLen),
			"lecture_title":    title,
			"lecture_subtitle": sub,
		},
	}

	var out struct {
		Design struct {
			ID string `json:"id"`
		} `json:"design"`
	}
	if err := c.postJSON(ctx, c.httpClient, "/autofills", payload, &out); err != nil {
		return "", err
	}
	if out.Design.ID == "" {
		return "", errors.New("canva: autofill response contained no design id")
	}
	return out.Design.ID, nil
}

// CloneTemplate duplicates the brand template into a fresh, editable design
// and returns its id.
func (c *Client) CloneTemplate(ctx context.Context) (string, error) {
	payload := map[string]any{
		"design_type": map[string]string{
			"type": "preset",
			"name": "presentation",
		},
		"template_id": c.templateID,
	}

	var out struct {
		Design struct {
			ID string `json:"id"`
		} `json:"design"`
	}
	if err := c.postJSON(ctx, c.httpClient, "/designs", payload, &out); err != nil {
		return "", err
	}
	if out.Design.ID == "" {
		return "", errors.New("canva: design response contained no design id")
	}
	return out.Design.ID, nil
}

// UpdateText overwrites named text elements of a design by element id.
func (c *Client) UpdateText(ctx context.Context, designID string, elements map[string]string) error {
	updates := make([]map[string]string, 0, len(elements))
	for id, text := range elements {
		updates = append(updates, map[string]string{"element_id": id, "text": text})
	}
	payload := map[string]any{"updates": updates}

	var out struct{}
	return c.postJSON(ctx, c.httpClient, "/designs/"+designID+"/elements", payload, &out)
}

// Export rasterizes the design to a 1280x720 PNG and returns the hosted URL
// of the export.
func (c *Client) Export(ctx context.Context, designID string) (string, error) {
	payload := map[string]any{
		"format":  "PNG",
		"quality": "high",
		"width":   1280,
		"height":  720,
	}

	var out struct {
		ExportURL string `json:"export_url"`
	}
	if err := c.postJSON(ctx, c.exportClient, "/designs/"+designID+"/export", payload, &out); err != nil {
		return "", err
	}
	if out.ExportURL == "" {
		return "", errors.New("canva: export response contained no URL")
	}
	return out.ExportURL, nil
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("canva: marshal request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("canva: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("canva: request %s: %w", path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("canva: decode response from %s: %w", path, err)
	}
	return nil
}
