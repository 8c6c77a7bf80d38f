// Package logging configures the process-wide slog logger. Each run writes to
// stdout and to its own timestamped file under the log directory, so a failed
// scheduled run leaves a self-contained artifact behind.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const filePrefix = "zoom_discord"

// Setup creates the log directory, opens a per-run log file and returns a
// logger writing to both stdout and that file. The returned closer flushes and
// closes the file; callers should defer it. When dir is empty, "logs" relative
// to the working directory is used.
func Setup(dir string, level slog.Level) (*slog.Logger, func() error, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.log", filePrefix, time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{Level: level})
	return slog.New(handler), f.Close, nil
}
