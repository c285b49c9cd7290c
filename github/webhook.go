package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSignature indicates the webhook signature verification failed.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMissingSignature indicates the webhook signature header is missing.
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrUnsupportedEvent indicates the webhook event type is not handled.
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

// WebhookHandler verifies and parses GitHub webhook deliveries.
type WebhookHandler struct {
	secret []byte
}

// NewWebhookHandler creates a new webhook handler with the given secret.
// An empty secret disables signature verification.
func NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{
		secret: []byte(secret),
	}
}

// VerifySignature verifies the webhook payload signature.
// The signature header should be in the format "sha256=<hex-encoded-signature>".
// Verification is skipped when no secret is configured.
func (h *WebhookHandler) VerifySignature(payload []byte, signatureHeader string) error {
	if len(h.secret) == 0 {
		return nil
	}
	if signatureHeader == "" {
		return ErrMissingSignature
	}

	parts := strings.SplitN(signatureHeader, "=", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		return ErrInvalidSignature
	}

	signature, err := hex.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	// Constant-time comparison
	if !hmac.Equal(signature, expected) {
		return ErrInvalidSignature
	}

	return nil
}

// ParsePullRequestEvent parses a pull_request webhook payload.
func ParsePullRequestEvent(payload []byte) (*PullRequestEvent, error) {
	var event PullRequestEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse pull request payload: %w", err)
	}

	if event.Repository == nil || event.PullRequest == nil {
		return nil, errors.New("payload is not a pull request event")
	}

	return &event, nil
}

// ParseReviewCommentEvent parses a pull_request_review_comment webhook payload.
func ParseReviewCommentEvent(payload []byte) (*ReviewCommentEvent, error) {
	var event ReviewCommentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse review comment payload: %w", err)
	}

	if event.Repository == nil || event.PullRequest == nil || event.Comment == nil {
		return nil, errors.New("payload is missing comment")
	}

	return &event, nil
}

// ParseReviewEvent parses a pull_request_review webhook payload.
func ParseReviewEvent(payload []byte) (*ReviewEvent, error) {
	var event ReviewEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse review payload: %w", err)
	}

	if event.Repository == nil || event.PullRequest == nil || event.Review == nil {
		return nil, errors.New("payload is missing review")
	}

	return &event, nil
}

// ParseReviewThreadEvent parses a pull_request_review_thread webhook payload.
func ParseReviewThreadEvent(payload []byte) (*ReviewThreadEvent, error) {
	var event ReviewThreadEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse review thread payload: %w", err)
	}

	if event.Repository == nil || event.PullRequest == nil || event.Thread == nil {
		return nil, errors.New("payload is missing thread")
	}

	return &event, nil
}

// SplitFullName splits a repository full name ("owner/repo") into its parts.
func SplitFullName(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository full name: %q", fullName)
	}
	return parts[0], parts[1], nil
}
