// Package main provides a one-shot local runner for testing the review
// pipeline without a webhook server. It reads a webhook payload from a
// file and dispatches it exactly as the server would.
//
// Configuration via environment variables:
//
//	GITHUB_EVENT_NAME       - webhook event type (e.g. pull_request)
//	GITHUB_EVENT_PATH       - path to a JSON payload file
//	GITHUB_APP_ID           - GitHub App ID (required)
//	GITHUB_PRIVATE_KEY_PATH - path to the App private key PEM file (required)
//	WATSONX_API_KEY / WATSONX_PROJECT_ID / ANTHROPIC_API_KEY - backend credentials
//
// Usage:
//
//	go run cmd/local/main.go [-validate]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SeineAI/SeineFish/backend"
	"github.com/SeineAI/SeineFish/config"
	"github.com/SeineAI/SeineFish/github"
	"github.com/SeineAI/SeineFish/review"
)

func main() {
	validate := flag.Bool("validate", false, "make a minimal backend call and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if err := run(logger, *validate); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, validate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Local runs read the key from a file instead of the environment
	if path := os.Getenv("GITHUB_PRIVATE_KEY_PATH"); path != "" {
		key, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read private key from %s: %w", path, err)
		}
		cfg.GitHubPrivateKey = string(key)
	}

	llm, err := backend.New(backend.Config{
		Logger:           logger,
		WatsonxURL:       cfg.WatsonxURL,
		WatsonxAPIKey:    cfg.WatsonxAPIKey,
		WatsonxProjectID: cfg.WatsonxProjectID,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
	})
	if err != nil {
		return err
	}

	if validate {
		ctx, cancel := context.WithTimeout(context.Background(), backend.GenerateTimeout)
		defer cancel()
		if err := backend.Validate(ctx, llm); err != nil {
			return fmt.Errorf("backend validation failed: %w", err)
		}
		logger.Info("backend validated", "backend", llm.Name())
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	eventType := os.Getenv("GITHUB_EVENT_NAME")
	eventPath := os.Getenv("GITHUB_EVENT_PATH")
	if eventType == "" || eventPath == "" {
		return fmt.Errorf("GITHUB_EVENT_NAME and GITHUB_EVENT_PATH are required")
	}

	payload, err := os.ReadFile(eventPath)
	if err != nil {
		return fmt.Errorf("failed to read event payload: %w", err)
	}

	githubClient := github.NewClient(cfg.GitHubAppID, []byte(cfg.GitHubPrivateKey))

	// No audit log in local mode
	reviewer := review.NewReviewer(githubClient, llm, nil, logger)
	reviewer.SetSimilarityProvider(review.NewCommitHistoryProvider(githubClient, logger))
	router := review.NewRouter(reviewer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	outcome, message, err := router.Dispatch(ctx, eventType, payload)
	if err != nil {
		return err
	}

	logger.Info("event dispatched", "event", eventType, "outcome", int(outcome), "message", message)
	return nil
}
