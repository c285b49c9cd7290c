package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// RepoConfigPath is the in-repository path of the review config file.
	RepoConfigPath = ".github/seinefish.yml"

	// GranularityFile reviews one whole file per backend call.
	GranularityFile = "file"
	// GranularityFunction reviews one extracted function per backend call.
	GranularityFunction = "function"
)

// RepoConfigParseError indicates a review config file exists but
// contains invalid content, as opposed to being absent.
type RepoConfigParseError struct {
	Path string
	Err  error
}

func (e *RepoConfigParseError) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Err)
}

func (e *RepoConfigParseError) Unwrap() error {
	return e.Err
}

// RepoConfig is the per-repository review configuration.
type RepoConfig struct {
	// Enabled determines if the reviewer runs for this repository.
	Enabled bool `yaml:"enabled"`
	// Granularity selects the review unit: "file" or "function".
	Granularity string `yaml:"granularity"`
	// Exclude is a list of glob patterns for files to skip during review.
	// Example: ["vendor/**", "*.gen.go", "docs/**"]
	Exclude []string `yaml:"exclude"`
}

// DefaultRepoConfig returns the configuration used when a repository
// has no config file.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		Enabled:     true,
		Granularity: GranularityFile,
	}
}

// ContentFetcher fetches a file's content at a ref; empty content means
// the file does not exist there.
type ContentFetcher interface {
	FetchFileContent(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error)
}

// Loader loads per-repository configuration from repositories.
type Loader struct {
	fetcher ContentFetcher
}

// NewLoader creates a repo config loader.
func NewLoader(fetcher ContentFetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load fetches and parses the review config from a repository.
// A missing file yields the default config; an invalid file yields a
// RepoConfigParseError so callers can distinguish it from fetch errors.
func (l *Loader) Load(ctx context.Context, installationID int64, owner, repo, ref string) (*RepoConfig, error) {
	content, err := l.fetcher.FetchFileContent(ctx, installationID, owner, repo, RepoConfigPath, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config: %w", err)
	}

	if content == "" {
		return DefaultRepoConfig(), nil
	}

	cfg, err := ParseRepoConfig([]byte(content))
	if err != nil {
		return nil, &RepoConfigParseError{Path: RepoConfigPath, Err: err}
	}
	return cfg, nil
}

// ParseRepoConfig parses a repo config from YAML content.
func ParseRepoConfig(content []byte) (*RepoConfig, error) {
	cfg := DefaultRepoConfig()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *RepoConfig) Validate() error {
	switch c.Granularity {
	case GranularityFile, GranularityFunction:
	case "":
		c.Granularity = GranularityFile
	default:
		return fmt.Errorf("invalid granularity value: %s (must be 'file' or 'function')", c.Granularity)
	}
	return nil
}

// ShouldExcludeFile returns true if the file path matches any exclude pattern.
func (c *RepoConfig) ShouldExcludeFile(path string) bool {
	for _, pattern := range c.Exclude {
		// Handle ** patterns by checking the directory prefix
		if strings.Contains(pattern, "**") {
			prefix := strings.Split(pattern, "**")[0]
			if prefix != "" && strings.HasPrefix(path, prefix) {
				suffix := strings.Split(pattern, "**")[1]
				if suffix == "" || strings.HasSuffix(path, strings.TrimPrefix(suffix, "/")) {
					return true
				}
			}
			if prefix != "" && strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")) {
				return true
			}
		}

		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}

		// Also try matching just the filename for patterns like "*.gen.go"
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}
