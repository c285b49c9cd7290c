package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{
			name: "watsonx when credentials complete",
			cfg: Config{
				WatsonxAPIKey:    "wx-key",
				WatsonxProjectID: "wx-project",
			},
			want: "watsonx",
		},
		{
			name: "watsonx wins over anthropic",
			cfg: Config{
				WatsonxAPIKey:    "wx-key",
				WatsonxProjectID: "wx-project",
				AnthropicAPIKey:  "an-key",
			},
			want: "watsonx",
		},
		{
			name: "anthropic when watsonx incomplete",
			cfg: Config{
				WatsonxAPIKey:   "wx-key", // missing project ID
				AnthropicAPIKey: "an-key",
			},
			want: "anthropic",
		},
		{
			name: "anthropic alone",
			cfg: Config{
				AnthropicAPIKey: "an-key",
			},
			want: "anthropic",
		},
		{
			name:    "no credentials",
			cfg:     Config{},
			wantErr: ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if b.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.want)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", fmt.Errorf("request failed: 429 Too Many Requests"), true},
		{"server error", fmt.Errorf("unexpected status 503"), true},
		{"overloaded", fmt.Errorf("overloaded_error: try later"), true},
		{"connection", fmt.Errorf("dial tcp: connection refused"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"bad request", fmt.Errorf("invalid request: 400"), false},
		{"auth", fmt.Errorf("authentication failed: 401"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		got, err := retryWithBackoff(context.Background(), nil, "test", func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", fmt.Errorf("status 503")
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("retryWithBackoff() error = %v", err)
		}
		if got != "ok" {
			t.Errorf("result = %q, want ok", got)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("non-retryable fails immediately", func(t *testing.T) {
		attempts := 0
		_, err := retryWithBackoff(context.Background(), nil, "test", func() (string, error) {
			attempts++
			return "", fmt.Errorf("invalid request: 400")
		})
		if err == nil {
			t.Fatal("retryWithBackoff() expected error")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := retryWithBackoff(ctx, nil, "test", func() (string, error) {
			return "", fmt.Errorf("status 503")
		})
		if err == nil {
			t.Fatal("retryWithBackoff() expected error after cancellation")
		}
	})
}
