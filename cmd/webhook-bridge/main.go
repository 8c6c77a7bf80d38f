package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/nanameru/zoom-discord-workflows/handler"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/github"
	"github.com/nanameru/zoom-discord-workflows/internal/integrations/paramstore"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	repoOwner := mustEnv("GITHUB_OWNER")
	repoName := mustEnv("GITHUB_REPO")

	// ---- AWS SDK config ----
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	secrets, err := paramstore.New(awsssm.NewFromConfig(cfg), paramPrefix)
	if err != nil {
		slog.Error("failed to create secrets client", "err", err)
		os.Exit(1)
	}
	token, err := secrets.GitHubToken(ctx)
	if err != nil {
		slog.Error("failed to resolve GitHub token", "err", err)
		os.Exit(1)
	}

	dispatcher, err := github.NewDispatcher(token, repoOwner, repoName)
	if err != nil {
		slog.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(dispatcher, slog.Default())
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
