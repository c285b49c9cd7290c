// Package config handles process configuration and per-repository
// review configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from an optional YAML
// file with environment variables taking precedence.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`

	// GitHub App credentials.
	GitHubAppID      int64  `yaml:"github_app_id"`
	GitHubPrivateKey string `yaml:"github_private_key"`
	WebhookSecret    string `yaml:"webhook_secret"`

	// Backend credentials. Watsonx wins when complete; otherwise the
	// Anthropic key is used; with neither, startup fails.
	WatsonxURL       string `yaml:"watsonx_url"`
	WatsonxAPIKey    string `yaml:"watsonx_api_key"`
	WatsonxProjectID string `yaml:"watsonx_project_id"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`

	// DatabaseURL enables the review audit log when set.
	DatabaseURL string `yaml:"database_url"`
}

// Load reads the optional config file named by SEINEFISH_CONFIG and
// overlays environment variables on top of it.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("SEINEFISH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	overlayString(&cfg.Port, "PORT")
	overlayString(&cfg.GitHubPrivateKey, "GITHUB_PRIVATE_KEY")
	overlayString(&cfg.WebhookSecret, "GITHUB_WEBHOOK_SECRET")
	overlayString(&cfg.WatsonxURL, "WATSONX_URL")
	overlayString(&cfg.WatsonxAPIKey, "WATSONX_API_KEY")
	overlayString(&cfg.WatsonxProjectID, "WATSONX_PROJECT_ID")
	overlayString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	overlayString(&cfg.DatabaseURL, "DATABASE_URL")

	if appIDStr := os.Getenv("GITHUB_APP_ID"); appIDStr != "" {
		appID, err := strconv.ParseInt(appIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_APP_ID: %w", err)
		}
		cfg.GitHubAppID = appID
	}

	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	return cfg, nil
}

// Validate checks the fields every deployment needs. Backend credential
// presence is validated separately by backend.New so the error carries
// the provider-selection semantics.
func (c *Config) Validate() error {
	if c.GitHubAppID == 0 {
		return fmt.Errorf("GITHUB_APP_ID is required")
	}
	if c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is required")
	}
	return nil
}

func overlayString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
