package config

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestParseRepoConfig(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantEnabled     bool
		wantGranularity string
		wantErr         bool
	}{
		{
			name:            "full config",
			content:         "enabled: true\ngranularity: function\nexclude:\n  - \"vendor/**\"\n",
			wantEnabled:     true,
			wantGranularity: GranularityFunction,
		},
		{
			name:            "disabled",
			content:         "enabled: false\n",
			wantEnabled:     false,
			wantGranularity: GranularityFile,
		},
		{
			name:            "granularity defaults to file",
			content:         "enabled: true\n",
			wantEnabled:     true,
			wantGranularity: GranularityFile,
		},
		{
			name:    "invalid granularity",
			content: "granularity: class\n",
			wantErr: true,
		},
		{
			name:    "invalid YAML",
			content: "enabled: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRepoConfig([]byte(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepoConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Enabled != tt.wantEnabled {
				t.Errorf("Enabled = %v, want %v", cfg.Enabled, tt.wantEnabled)
			}
			if cfg.Granularity != tt.wantGranularity {
				t.Errorf("Granularity = %q, want %q", cfg.Granularity, tt.wantGranularity)
			}
		})
	}
}

func TestShouldExcludeFile(t *testing.T) {
	cfg := &RepoConfig{
		Exclude: []string{"vendor/**", "*.gen.py", "docs/**", "Makefile"},
	}

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/lib/util.py", true},
		{"api.gen.py", true},
		{"pkg/api.gen.py", true}, // basename match
		{"docs/guide.md", true},
		{"Makefile", true},
		{"main.py", false},
		{"src/vendor.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExcludeFile(tt.path); got != tt.want {
				t.Errorf("ShouldExcludeFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// stubFetcher returns canned content for the repo config path.
type stubFetcher struct {
	content string
	err     error
}

func (s *stubFetcher) FetchFileContent(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error) {
	return s.content, s.err
}

func TestLoaderLoad(t *testing.T) {
	t.Run("missing file yields default", func(t *testing.T) {
		loader := NewLoader(&stubFetcher{content: ""})
		cfg, err := loader.Load(context.Background(), 1, "owner", "repo", "sha")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !cfg.Enabled || cfg.Granularity != GranularityFile {
			t.Errorf("default config = %+v", cfg)
		}
	})

	t.Run("invalid file yields parse error", func(t *testing.T) {
		loader := NewLoader(&stubFetcher{content: "granularity: bogus\n"})
		_, err := loader.Load(context.Background(), 1, "owner", "repo", "sha")

		var parseErr *RepoConfigParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Load() error = %v, want RepoConfigParseError", err)
		}
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		loader := NewLoader(&stubFetcher{err: fmt.Errorf("network down")})
		_, err := loader.Load(context.Background(), 1, "owner", "repo", "sha")
		if err == nil {
			t.Fatal("Load() expected error")
		}
		var parseErr *RepoConfigParseError
		if errors.As(err, &parseErr) {
			t.Error("fetch failure should not be a parse error")
		}
	})
}
