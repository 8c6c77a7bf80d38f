package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

// Discord embed field limits.
const (
	maxEmbedTitleLen       = 256
	maxEmbedDescriptionLen = 4096
	maxEmbedTags           = 10
)

const (
	botUsername  = "Zoom講義Bot"
	botAvatarURL = "https://cdn-icons-png.flaticon.com/512/2111/2111728.png"

	accentColor = 0x4A90E2
	testColor   = 0x00FF00
	errorColor  = 0xFF0000

	attachmentName = "thumbnail.png"
)

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Image       *embedImage  `json:"image,omitempty"`
}

type webhookPayload struct {
	Embeds    []embed `json:"embeds"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url"`
}

// Poster delivers rich messages to a Discord forum webhook. Delivery is
// one-shot: no retries, and failures surface as a false return, never as an
// error, so the caller decides whether to escalate.
type Poster struct {
	webhookURL string
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Poster)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Poster) {
		p.httpClient = httpClient
	}
}

// WithClock overrides the timestamp source for embeds.
func WithClock(now func() time.Time) Option {
	return func(p *Poster) {
		p.now = now
	}
}

func NewPoster(webhookURL string, log *slog.Logger, opts ...Option) (*Poster, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, errors.New("discord: webhook URL must not be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Poster{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PostToForum posts the announcement embed. A Remote thumbnail is embedded by
// URL; a Local thumbnail is uploaded as a multipart attachment with the embed
// image rewritten to reference it. A nil thumbnail posts without an image.
func (p *Poster) PostToForum(ctx context.Context, title, description, sourceURL string, thumbnail domain.ThumbnailArtifact, tags []string) bool {
	e := embed{
		Title:       domain.TruncateRunes(title, maxEmbedTitleLen),
		Description: domain.TruncateRunes(description, maxEmbedDescriptionLen),
		Color:       accentColor,
		Timestamp:   p.timestamp(),
		Footer:      &embedFooter{Text: "Zoom講義録画システム", IconURL: botAvatarURL},
	}

	if sourceURL != "" {
		e.Fields = append(e.Fields, embedField{
			Name:  "🎥 録画視聴",
			Value: fmt.Sprintf("[こちらから視聴できます](%s)", sourceURL),
		})
	}

	if len(tags) > 0 {
		capped := tags
		if len(capped) > maxEmbedTags {
			capped = capped[:maxEmbedTags]
		}
		tokens := make([]string, 0, len(capped))
		for _, tag := range capped {
			tokens = append(tokens, "`"+tag+"`")
		}
		e.Fields = append(e.Fields, embedField{Name: "🏷️ タグ", Value: strings.Join(tokens, " ")})
	}

	var attachment []byte
	switch art := thumbnail.(type) {
	case domain.RemoteThumbnail:
		e.Image = &embedImage{URL: art.URL}
	case domain.LocalThumbnail:
		data, err := os.ReadFile(art.Path)
		if err != nil {
			p.log.Warn("could not read local thumbnail, posting without image", "path", art.Path, "err", err)
		} else {
			attachment = data
			e.Image = &embedImage{URL: "attachment://" + attachmentName}
		}
	case nil:
		// post without image
	}

	payload := webhookPayload{Embeds: []embed{e}, Username: botUsername, AvatarURL: botAvatarURL}
	return p.deliver(ctx, payload, attachment)
}

// SendTestMessage posts a fixed payload to verify webhook reachability.
func (p *Poster) SendTestMessage(ctx context.Context) bool {
	e := embed{
		Title:       "🧪 Zoom講義Bot テスト",
		Description: "Zoom → Discord 自動投稿システムのテストメッセージです。",
		Color:       testColor,
		Timestamp:   p.timestamp(),
		Footer:      &embedFooter{Text: "テスト実行中", IconURL: botAvatarURL},
		Fields: []embedField{
			{Name: "✅ 接続確認", Value: "Webhookが正常に動作しています"},
		},
	}
	payload := webhookPayload{Embeds: []embed{e}, Username: botUsername, AvatarURL: botAvatarURL}
	return p.deliver(ctx, payload, nil)
}

// PostErrorNotification reports a pipeline failure back to the same channel.
// The context map is rendered as inline fields.
func (p *Poster) PostErrorNotification(ctx context.Context, message string, contextFields map[string]string) bool {
	e := embed{
		Title:       "⚠️ Zoom講義Bot エラー",
		Description: fmt.Sprintf("自動投稿処理中にエラーが発生しました。\n\n```\n%s\n```", message),
		Color:       errorColor,
		Timestamp:   p.timestamp(),
		Footer:      &embedFooter{Text: "エラー通知", IconURL: botAvatarURL},
	}
	for key, value := range contextFields {
		e.Fields = append(e.Fields, embedField{Name: key, Value: value, Inline: true})
	}

	payload := webhookPayload{Embeds: []embed{e}, Username: botUsername, AvatarURL: botAvatarURL}
	return p.deliver(ctx, payload, nil)
}

func (p *Poster) deliver(ctx context.Context, payload webhookPayload, attachment []byte) bool {
	var req *http.Request
	var err error
	if attachment != nil {
		req, err = p.multipartRequest(ctx, payload, attachment)
	} else {
		req, err = p.jsonRequest(ctx, payload)
	}
	if err != nil {
		p.log.Error("building webhook request failed", "err", err)
		return false
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Error("webhook delivery failed", "err", err)
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		p.log.Error("webhook rejected the message", "status", res.StatusCode, "body", string(body))
		return false
	}
	return true
}

func (p *Poster) jsonRequest(ctx context.Context, payload webhookPayload) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("discord: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *Poster) multipartRequest(ctx context.Context, payload webhookPayload, attachment []byte) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("discord: marshal payload: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("payload_json", string(body)); err != nil {
		return nil, fmt.Errorf("discord: write payload part: %w", err)
	}
	part, err := writer.CreateFormFile("file", attachmentName)
	if err != nil {
		return nil, fmt.Errorf("discord: create file part: %w", err)
	}
	if _, err := part.Write(attachment); err != nil {
		return nil, fmt.Errorf("discord: write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("discord: finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (p *Poster) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}
