package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicModel is the fixed model used by the commercial provider.
const anthropicModel = "claude-sonnet-4-20250514"

// anthropicBackend is the commercial provider, backed by the Anthropic API.
type anthropicBackend struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

func newAnthropic(apiKey string, logger *slog.Logger) *anthropicBackend {
	return &anthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropicModel,
		logger: logger,
	}
}

func (b *anthropicBackend) Name() string { return "anthropic" }

// Generate sends the prompt and returns the first text block of the response.
func (b *anthropicBackend) Generate(ctx context.Context, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	message, err := retryWithBackoff(timeoutCtx, b.logger, "anthropic.Generate", func() (*anthropic.Message, error) {
		return b.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
			Model:     anthropic.F(anthropic.Model(b.model)),
			MaxTokens: anthropic.F(int64(MaxOutputTokens)),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			}),
		})
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in anthropic response")
}
