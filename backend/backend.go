// Package backend provides the text-generation backend used for reviews.
//
// Exactly one provider is selected at startup from the configured
// credentials and stays fixed for the process lifetime. Providers hold
// no per-call mutable state and are safe for concurrent use.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoCredentials indicates that no usable backend credentials were
// configured. The process must not start without a backend.
var ErrNoCredentials = errors.New("no valid credentials found for either watsonx or anthropic")

const (
	// GenerateTimeout is the maximum time to wait for a single generation call.
	GenerateTimeout = 3 * time.Minute

	// MaxOutputTokens caps the length of a generated review.
	MaxOutputTokens = 4096
)

// Backend generates review text from a prompt.
// Implementations normalize provider responses to plain text.
type Backend interface {
	// Name identifies the provider (for logs).
	Name() string
	// Generate produces text for the given prompt. A call that exceeds
	// GenerateTimeout fails with a context error.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config carries the credentials the provider selection strategy inspects.
type Config struct {
	// Logger receives retry warnings. Optional.
	Logger *slog.Logger

	// Enterprise watsonx.ai credentials. All three must be present for
	// the watsonx provider to be selected; URL defaults when empty.
	WatsonxURL       string
	WatsonxAPIKey    string
	WatsonxProjectID string

	// Anthropic API key for the commercial provider.
	AnthropicAPIKey string
}

// New selects and constructs the backend provider:
// watsonx when its credentials are complete, otherwise anthropic when
// an API key is present, otherwise ErrNoCredentials.
func New(cfg Config) (Backend, error) {
	if cfg.WatsonxAPIKey != "" && cfg.WatsonxProjectID != "" {
		return newWatsonx(cfg.WatsonxURL, cfg.WatsonxAPIKey, cfg.WatsonxProjectID, cfg.Logger), nil
	}
	if cfg.AnthropicAPIKey != "" {
		return newAnthropic(cfg.AnthropicAPIKey, cfg.Logger), nil
	}
	return nil, ErrNoCredentials
}

// Validate makes a minimal generation call to verify the backend is usable.
// Used by the local runner's -validate flag, not at server startup.
func Validate(ctx context.Context, b Backend) error {
	_, err := b.Generate(ctx, "Reply with the single word: ok")
	return err
}
