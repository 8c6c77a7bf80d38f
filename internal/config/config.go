// Package config loads the pipeline's configuration from the environment.
// Configuration is read once at startup; nothing else in the codebase touches
// os.Getenv.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultModel       = "gpt-5"
	defaultMinDuration = 30
)

// Config carries everything the pipeline needs. The Canva pair is optional;
// when either half is missing the remote thumbnail path is disabled.
type Config struct {
	ZoomAccountID    string
	ZoomClientID     string
	ZoomClientSecret string

	OpenAIAPIKey string
	OpenAIModel  string

	CanvaAPIKey     string
	CanvaTemplateID string

	DiscordWebhookURL string

	MinRecordingDuration int
	LogDir               string
}

// Load reads configuration from the environment and validates the required
// variables. All missing requirements are reported in one error so a broken
// deployment is fixed in one pass.
func Load() (*Config, error) {
	cfg := &Config{
		ZoomAccountID:        os.Getenv("ZOOM_ACCOUNT_ID"),
		ZoomClientID:         os.Getenv("ZOOM_CLIENT_ID"),
		ZoomClientSecret:     os.Getenv("ZOOM_CLIENT_SECRET"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          envDefault("OPENAI_MODEL", defaultModel),
		CanvaAPIKey:          os.Getenv("CANVA_API_KEY"),
		CanvaTemplateID:      os.Getenv("CANVA_TEMPLATE_ID"),
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		MinRecordingDuration: envInt("MIN_RECORDING_DURATION", defaultMinDuration),
		LogDir:               os.Getenv("LOG_DIR"),
	}

	var missing []string
	for _, v := range []struct {
		key   string
		value string
	}{
		{"ZOOM_ACCOUNT_ID", cfg.ZoomAccountID},
		{"ZOOM_CLIENT_ID", cfg.ZoomClientID},
		{"ZOOM_CLIENT_SECRET", cfg.ZoomClientSecret},
		{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
		{"DISCORD_WEBHOOK_URL", cfg.DiscordWebhookURL},
	} {
		if strings.TrimSpace(v.value) == "" {
			missing = append(missing, v.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.MinRecordingDuration <= 0 {
		return nil, errors.New("config: MIN_RECORDING_DURATION must be a positive integer")
	}
	return cfg, nil
}

// CanvaEnabled reports whether both halves of the Canva credential pair are
// present.
func (c *Config) CanvaEnabled() bool {
	return strings.TrimSpace(c.CanvaAPIKey) != "" && strings.TrimSpace(c.CanvaTemplateID) != ""
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
