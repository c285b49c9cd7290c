// Package main provides the SeineFish webhook server.
//
// Configuration via environment variables (or a YAML file named by
// SEINEFISH_CONFIG, with the environment taking precedence):
//
//	GITHUB_APP_ID         - GitHub App ID (required)
//	GITHUB_PRIVATE_KEY    - GitHub App private key in PEM format (required)
//	GITHUB_WEBHOOK_SECRET - Webhook signature secret (empty disables verification)
//	WATSONX_API_KEY       - IBM Cloud API key for watsonx.ai
//	WATSONX_PROJECT_ID    - watsonx.ai project ID
//	WATSONX_URL           - watsonx.ai endpoint (default: us-south)
//	ANTHROPIC_API_KEY     - Anthropic API key (used when watsonx is not configured)
//	DATABASE_URL          - PostgreSQL connection string for the audit log (optional)
//	PORT                  - HTTP server port (default: 8000)
//
// Usage:
//
//	go run cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/SeineAI/SeineFish/backend"
	"github.com/SeineAI/SeineFish/config"
	"github.com/SeineAI/SeineFish/github"
	"github.com/SeineAI/SeineFish/review"
	"github.com/SeineAI/SeineFish/storage"
	"github.com/SeineAI/SeineFish/storage/postgres"
)

var (
	logger         *slog.Logger
	webhookHandler *github.WebhookHandler
	reviewer       *review.Reviewer
	router         *review.Router
	pgStorage      *postgres.PostgreSQL
)

func main() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := initialize(cfg); err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	if pgStorage != nil {
		defer pgStorage.Close()
	}

	// Set up routes
	mux := http.NewServeMux()
	mux.HandleFunc("/github-webhook", handleWebhook)
	mux.HandleFunc("/update-prompt", handleUpdatePrompt)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/", handleRoot)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Webhook handling is synchronous and includes backend calls
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func initialize(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
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

	githubClient := github.NewClient(cfg.GitHubAppID, []byte(cfg.GitHubPrivateKey))
	webhookHandler = github.NewWebhookHandler(cfg.WebhookSecret)

	// Audit log is optional; reviews run the same without it
	var store storage.Storage
	if cfg.DatabaseURL != "" {
		pgStorage, err = postgres.NewFromDSN(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect storage: %w", err)
		}
		if err := pgStorage.Migrate(context.Background()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store = pgStorage
	}

	reviewer = review.NewReviewer(githubClient, llm, store, logger)
	reviewer.SetSimilarityProvider(review.NewCommitHistoryProvider(githubClient, logger))
	router = review.NewRouter(reviewer)

	logger.Info("initialized",
		"app_id", cfg.GitHubAppID,
		"backend", llm.Name(),
		"storage", pgStorage != nil,
	)

	return nil
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{
		"name":   "SeineFish",
		"status": "running",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleWebhook verifies, classifies, and handles a webhook delivery
// synchronously, so a failed review surfaces as a 5xx and the delivery
// can be retried.
func handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		http.Error(w, "missing X-GitHub-Event header", http.StatusBadRequest)
		return
	}

	logger.Info("received webhook", "event", eventType, "size", len(payload))

	signature := r.Header.Get("X-Hub-Signature-256")
	if err := webhookHandler.VerifySignature(payload, signature); err != nil {
		logger.Error("signature verification failed", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	outcome, message, err := router.Dispatch(r.Context(), eventType, payload)
	if err != nil {
		if errors.Is(err, github.ErrUnsupportedEvent) {
			logger.Info("unsupported event", "type", eventType)
			http.Error(w, "Unsupported event", http.StatusBadRequest)
			return
		}
		logger.Error("event handling failed", "event", eventType, "error", err)
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	switch outcome {
	case review.OutcomePong:
		textResponse(w, "Pong")
	case review.OutcomeIgnored:
		logger.Info("event acknowledged without work", "event", eventType)
		textResponse(w, message)
	default:
		textResponse(w, message)
	}
}

// updatePromptRequest is the body of a POST /update-prompt call.
type updatePromptRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// handleUpdatePrompt replaces the text of a known prompt template.
// Unknown names get 404; invalid replacements get 400.
func handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := reviewer.Templates().Set(req.Name, req.Template); err != nil {
		var unknown *review.ErrUnknownTemplate
		if errors.As(err, &unknown) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("prompt template updated", "name", req.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "template updated", "name": req.Name})
}

func textResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(message))
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
