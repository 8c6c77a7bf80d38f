package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

const defaultBaseURL = "https://api.zoom.us/v2"

// ErrRecordingNotFound is returned by Recording when the recordings lookup
// itself fails. It lets the orchestrator tell "no recording" apart from a
// crash elsewhere in the pipeline.
var ErrRecordingNotFound = errors.New("zoom: recording not found")

// TokenSource supplies a bearer token for API calls. *TokenProvider satisfies
// this interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client fetches recording metadata, transcripts and participants from the
// Zoom REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
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
	}
}

func NewClient(tokens TokenSource, log *slog.Logger, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("zoom: token source must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// encodeMeetingUUID percent-encodes the characters Zoom requires to be
// double-encoded in path position. A UUID that already contains a % is
// assumed to be pre-encoded by the caller and is left untouched.
func encodeMeetingUUID(uuid string) string {
	if strings.Contains(uuid, "%") {
		return uuid
	}
	uuid = strings.ReplaceAll(uuid, "/", "%2F")
	return strings.ReplaceAll(uuid, "+", "%2B")
}

// Recording fetches and normalizes the cloud recording for one meeting. A
// transcript is fetched best-effort on a second request; its absence or
// failure is logged and otherwise ignored. When the primary lookup fails the
// error wraps ErrRecordingNotFound.
func (c *Client) Recording(ctx context.Context, meetingUUID string) (*domain.RecordingMetadata, error) {
	encoded := encodeMeetingUUID(meetingUUID)

	var payload recordingResponse
	if err := c.getJSON(ctx, "/meetings/"+encoded+"/recordings", &payload); err != nil {
		if isAuthFailure(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRecordingNotFound, err)
	}

	meta := payload.normalize()

	if transcript, err := c.transcript(ctx, encoded); err != nil {
		c.log.Warn("transcript fetch failed, continuing without one", "meeting_uuid", meetingUUID, "err", err)
	} else if transcript != "" {
		meta.Transcript = transcript
	}

	return meta, nil
}

// transcript fetches the recording transcript when one exists.
func (c *Client) transcript(ctx context.Context, encodedUUID string) (string, error) {
	var payload struct {
		Transcript string `json:"transcript"`
	}
	if err := c.getJSON(ctx, "/meetings/"+encodedUUID+"/recordings/transcript", &payload); err != nil {
		return "", err
	}
	return payload.Transcript, nil
}

// Participants fetches the participant report for a meeting. Best-effort
// enrichment; never on the pipeline critical path.
func (c *Client) Participants(ctx context.Context, meetingUUID string) (*ParticipantReport, error) {
	encoded := encodeMeetingUUID(meetingUUID)

	var payload ParticipantReport
	if err := c.getJSON(ctx, "/meetings/"+encoded+"/participants", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("zoom: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoom: request %s: %w", path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("zoom: unexpected status %d from %s: %s", res.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("zoom: decode response from %s: %w", path, err)
	}
	return nil
}

func isAuthFailure(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ParticipantReport is the participant listing for one meeting.
type ParticipantReport struct {
	TotalRecords int `json:"total_records"`
	Participants []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		UserMail string `json:"user_email"`
	} `json:"participants"`
}

// recordingResponse mirrors the recordings-by-meeting API shape. Normalization
// into the domain type defaults absent numerics to 0 and absent strings to "".
type recordingResponse struct {
	UUID           string `json:"uuid"`
	ID             int64  `json:"id"`
	Topic          string `json:"topic"`
	StartTime      string `json:"start_time"`
	Duration       int    `json:"duration"`
	TotalSize      int64  `json:"total_size"`
	RecordingCount int    `json:"recording_count"`
	ShareURL       string `json:"share_url"`
	RecordingFiles []struct {
		ID             string `json:"id"`
		MeetingID      string `json:"meeting_id"`
		RecordingStart string `json:"recording_start"`
		RecordingEnd   string `json:"recording_end"`
		FileType       string `json:"file_type"`
		FileExtension  string `json:"file_extension"`
		FileSize       int64  `json:"file_size"`
		PlayURL        string `json:"play_url"`
		DownloadURL    string `json:"download_url"`
	} `json:"recording_files"`
}

func (r recordingResponse) normalize() *domain.RecordingMetadata {
	meta := &domain.RecordingMetadata{
		UUID:            r.UUID,
		ID:              r.ID,
		Topic:           r.Topic,
		StartTime:       r.StartTime,
		DurationMinutes: r.Duration,
		TotalSize:       r.TotalSize,
		FileCount:       r.RecordingCount,
		ShareURL:        r.ShareURL,
		Files:           make([]domain.RecordingFile, 0, len(r.RecordingFiles)),
	}
	for _, f := range r.RecordingFiles {
		meta.Files = append(meta.Files, domain.RecordingFile{
			ID:             f.ID,
			MeetingID:      f.MeetingID,
			RecordingStart: f.RecordingStart,
			RecordingEnd:   f.RecordingEnd,
			FileType:       f.FileType,
			FileExtension:  f.FileExtension,
			FileSizeBytes:  f.FileSize,
			PlayURL:        f.PlayURL,
			DownloadURL:    f.DownloadURL,
		})
	}
	return meta
}
