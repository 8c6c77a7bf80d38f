package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanameru/zoom-discord-workflows/internal/config"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/canva"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/discord"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/openai"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/zoom"
	"github.com/nanameru/zoom-discord-workflows/internal/logging"
	"github.com/nanameru/zoom-discord-workflows/internal/render"
	"github.com/nanameru/zoom-discord-workflows/internal/usecase"
)

func newRunCommand() *cobra.Command {
	var uuidFlag string
	var topicFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one completed recording and post it to the forum",
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingUUID := uuidFlag
			if meetingUUID == "" {
				meetingUUID = os.Getenv("MEETING_UUID")
			}
			topicHint := topicFlag
			if topicHint == "" {
				topicHint = os.Getenv("MEETING_TOPIC")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, closeLog, err := logging.Setup(cfg.LogDir, slog.LevelInfo)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			pipeline, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}

			return pipeline.Run(cmd.Context(), usecase.RunInput{
				MeetingUUID: meetingUUID,
				TopicHint:   topicHint,
			})
		},
	}

	cmd.Flags().StringVar(&uuidFlag, "meeting-uuid", "", "Meeting UUID to process (defaults to MEETING_UUID)")
	cmd.Flags().StringVar(&topicFlag, "topic", "", "Topic hint for content generation (defaults to MEETING_TOPIC)")

	return cmd
}

// buildPipeline wires every integration from configuration. The Canva client
// is only constructed when both credential halves are present; the thumbnail
// service then falls back to local rendering alone.
func buildPipeline(cfg *config.Config, log *slog.Logger) (*usecase.Pipeline, error) {
	tokens, err := zoom.NewTokenProvider(cfg.ZoomAccountID, cfg.ZoomClientID, cfg.ZoomClientSecret)
	if err != nil {
		return nil, err
	}
	recordings, err := zoom.NewClient(tokens, log)
	if err != nil {
		return nil, err
	}

	llm, err := openai.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	content, err := usecase.NewContentService(llm, cfg.OpenAIModel, log)
	if err != nil {
		return nil, err
	}

	var designer usecase.DesignClient
	if cfg.CanvaEnabled() {
		canvaClient, err := canva.NewClient(cfg.CanvaAPIKey, cfg.CanvaTemplateID)
		if err != nil {
			return nil, err
		}
		designer = canvaClient
	}
	thumbnails, err := usecase.NewThumbnailService(designer, render.NewRenderer(""), log)
	if err != nil {
		return nil, err
	}

	poster, err := discord.NewPoster(cfg.DiscordWebhookURL, log)
	if err != nil {
		return nil, err
	}

	return usecase.NewPipeline(recordings, content, thumbnails, poster, cfg.MinRecordingDuration, log)
}
