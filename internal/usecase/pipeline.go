package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/zoom"
)

const defaultMinDuration = 30

// RecordingSource fetches normalized recording metadata. *zoom.Client
// satisfies this interface.
type RecordingSource interface {
	Recording(ctx context.Context, meetingUUID string) (*domain.RecordingMetadata, error)
}

// ContentGenerator produces announcement copy; it never fails.
type ContentGenerator interface {
	Generate(ctx context.Context, meta *domain.RecordingMetadata, topicHint string) domain.GeneratedContent
}

// ThumbnailCreator produces a thumbnail artifact, or nil when none could be
// generated.
type ThumbnailCreator interface {
	Create(ctx context.Context, title, subtitle string) domain.ThumbnailArtifact
}

// ForumPoster delivers messages to the chat channel.
type ForumPoster interface {
	PostToForum(ctx context.Context, title, description, sourceURL string, thumbnail domain.ThumbnailArtifact, tags []string) bool
	PostErrorNotification(ctx context.Context, message string, contextFields map[string]string) bool
}

// Pipeline runs the whole announcement flow for one meeting: fetch recording,
// admission filter, content generation, thumbnail, post. One linear pass, no
// retries, no state kept between runs.
type Pipeline struct {
	recordings  RecordingSource
	content     ContentGenerator
	thumbnails  ThumbnailCreator
	poster      ForumPoster
	minDuration int
	log         *slog.Logger
}

type RunInput struct {
	MeetingUUID string
	TopicHint   string
}

func NewPipeline(recordings RecordingSource, content ContentGenerator, thumbnails ThumbnailCreator, poster ForumPoster, minDuration int, log *slog.Logger) (*Pipeline, error) {
	if recordings == nil {
		return nil, errors.New("usecase: recording source must not be nil")
	}
	if content == nil {
		return nil, errors.New("usecase: content generator must not be nil")
	}
	if thumbnails == nil {
		return nil, errors.New("usecase: thumbnail creator must not be nil")
	}
	if poster == nil {
		return nil, errors.New("usecase: forum poster must not be nil")
	}
	if minDuration <= 0 {
		minDuration = defaultMinDuration
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		recordings:  recordings,
		content:     content,
		thumbnails:  thumbnails,
		poster:      poster,
		minDuration: minDuration,
		log:         log,
	}, nil
}

// Run executes the pipeline for one meeting. A nil return means the process
// should exit 0; that covers both a delivered post and the minimum-duration
// early exit, which is a normal termination, not a failure.
func (p *Pipeline) Run(ctx context.Context, in RunInput) error {
	meetingUUID := strings.TrimSpace(in.MeetingUUID)
	if meetingUUID == "" {
		return newError(ErrorConfig, "missing_meeting_uuid", nil)
	}

	p.log.Info("fetching recording", "meeting_uuid", meetingUUID)
	meta, err := p.recordings.Recording(ctx, meetingUUID)
	if err != nil {
		var authErr *zoom.AuthError
		switch {
		case errors.Is(err, zoom.ErrRecordingNotFound):
			p.notifyFailure(ctx, meetingUUID, "FetchRecording", err)
			return newError(ErrorNotFound, "recording_lookup_failed", err)
		case errors.As(err, &authErr):
			p.notifyFailure(ctx, meetingUUID, "FetchToken", err)
			return newError(ErrorAuth, "token_exchange_failed", err)
		default:
			p.notifyFailure(ctx, meetingUUID, "FetchRecording", err)
			return newError(ErrorFetch, "recording_fetch_failed", err)
		}
	}
	p.log.Info("recording fetched", "topic", meta.Topic, "duration_minutes", meta.DurationMinutes)

	if meta.DurationMinutes < p.minDuration {
		p.log.Info("recording below minimum duration, skipping announcement",
			"duration_minutes", meta.DurationMinutes, "min_duration", p.minDuration)
		return nil
	}

	content := p.content.Generate(ctx, meta, in.TopicHint)
	p.log.Info("content generated", "title", content.Title)

	thumbnail := p.thumbnails.Create(ctx, content.Title, thumbnailSubtitle(meta))

	if !p.poster.PostToForum(ctx, content.Title, content.Description, meta.ShareURL, thumbnail, content.Tags) {
		return newError(ErrorDelivery, "forum_post_failed", nil)
	}

	p.log.Info("announcement posted", "meeting_uuid", meetingUUID)
	return nil
}

// notifyFailure reports a fatal pipeline error back to the chat channel.
// Best-effort: the delivery result is ignored.
func (p *Pipeline) notifyFailure(ctx context.Context, meetingUUID, stage string, err error) {
	p.poster.PostErrorNotification(ctx, err.Error(), map[string]string{
		"Meeting UUID": meetingUUID,
		"Stage":        stage,
	})
}

// thumbnailSubtitle derives the thumbnail's secondary line from the
// recording's start date and length.
func thumbnailSubtitle(meta *domain.RecordingMetadata) string {
	date := meta.StartTime
	if len(date) >= 10 {
		date = date[:10]
	}
	if date == "" {
		return fmt.Sprintf("%d分", meta.DurationMinutes)
	}
	return fmt.Sprintf("%s・%d分", date, meta.DurationMinutes)
}
