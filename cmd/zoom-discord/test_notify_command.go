package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanameru/zoom-discord-workflows/internal/integrations/discord"
)

func newTestNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test message to the configured webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
			if webhookURL == "" {
				return errors.New("DISCORD_WEBHOOK_URL is not set")
			}

			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			poster, err := discord.NewPoster(webhookURL, log)
			if err != nil {
				return err
			}

			if !poster.SendTestMessage(cmd.Context()) {
				return errors.New("test message was not delivered")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test message sent")
			return nil
		},
	}
}
