package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SeineAI/SeineFish/github"
)

// SimilarityProvider supplies free text describing prior related commits
// for a file. The text is injected into review prompts as-is; the
// pipeline never produces or stores it. A nil provider, or a provider
// failure, degrades to empty context.
type SimilarityProvider interface {
	SimilarCommits(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error)
}

// commitsPerFile is the number of recent commits summarized per file.
const commitsPerFile = 5

// CommitHistoryProvider is the default SimilarityProvider: it summarizes
// the file's recent commit history from the host commits API.
type CommitHistoryProvider struct {
	client *github.Client
	logger *slog.Logger
}

// NewCommitHistoryProvider creates a commit-history similarity provider.
func NewCommitHistoryProvider(client *github.Client, logger *slog.Logger) *CommitHistoryProvider {
	return &CommitHistoryProvider{client: client, logger: logger}
}

// SimilarCommits returns one line per recent commit touching the file.
func (p *CommitHistoryProvider) SimilarCommits(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error) {
	commits, err := p.client.FetchFileCommits(ctx, installationID, owner, repo, path, ref, commitsPerFile)
	if err != nil {
		return "", fmt.Errorf("failed to fetch commit history: %w", err)
	}
	if len(commits) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, c := range commits {
		sha := c.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		message := ""
		if c.Commit != nil {
			// First line of the commit message only
			message = strings.SplitN(c.Commit.Message, "\n", 2)[0]
		}
		fmt.Fprintf(&sb, "- %s %s\n", sha, message)
	}
	return sb.String(), nil
}

// similarCommitText resolves the similarity context for one file,
// logging and swallowing failures.
func (r *Reviewer) similarCommitText(ctx context.Context, installationID int64, owner, repo, path, ref string) string {
	if r.similarity == nil {
		return ""
	}
	text, err := r.similarity.SimilarCommits(ctx, installationID, owner, repo, path, ref)
	if err != nil {
		r.logger.Warn("failed to fetch similarity context", "path", path, "error", err)
		return ""
	}
	return text
}
