// Package review implements the pull-request review orchestration
// pipeline: event routing, per-item fan-out to the generation backend,
// aggregation into a rated summary, and publication back to GitHub.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/SeineAI/SeineFish/backend"
	"github.com/SeineAI/SeineFish/config"
	"github.com/SeineAI/SeineFish/github"
	"github.com/SeineAI/SeineFish/storage"
)

const (
	// MaxConcurrentItems limits how many items are reviewed in parallel
	// within a single pull-request review.
	MaxConcurrentItems = 5
)

// Degradation placeholders recorded for items whose review could not be
// produced. Kept free of the issue marker so a failed item never skews
// the rating.
const (
	placeholderFetchFailed   = "_review unavailable: could not fetch file content_"
	placeholderBackendFailed = "_review unavailable: generation failed_"
)

// HostClient is the slice of the GitHub API the orchestrator consumes.
// *github.Client satisfies it; tests substitute fakes.
type HostClient interface {
	GetPullRequest(ctx context.Context, installationID int64, owner, repo string, prNumber int) (*github.PullRequest, error)
	ListPullRequestFiles(ctx context.Context, installationID int64, owner, repo string, prNumber int) ([]github.PullRequestFile, error)
	FetchFileContent(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error)
	CreateReview(ctx context.Context, installationID int64, owner, repo string, prNumber int, review *github.ReviewRequest) (*github.Review, error)
	GetReview(ctx context.Context, installationID int64, owner, repo string, prNumber int, reviewID int64) (*github.Review, error)
	GetReviewComment(ctx context.Context, installationID int64, owner, repo string, commentID int64) (*github.PullRequestComment, error)
	CreateCommentReply(ctx context.Context, installationID int64, owner, repo string, prNumber int, commentID int64, body string) (*github.PullRequestComment, error)
	CreateIssueComment(ctx context.Context, installationID int64, owner, repo string, prNumber int, body string) (*github.IssueCommentResponse, error)
	FetchReviewThreads(ctx context.Context, installationID int64, owner, repo string, prNumber int) ([]github.ReviewThread, error)
}

// Reviewer orchestrates the code review process. The host client and
// backend are injected at construction and shared across concurrent
// reviews; the Reviewer itself holds no per-event state.
type Reviewer struct {
	host       HostClient
	llm        backend.Backend
	store      storage.Storage
	loader     *config.Loader
	templates  *Templates
	matcher    LanguageMatcher
	similarity SimilarityProvider
	logger     *slog.Logger
}

// NewReviewer creates a new Reviewer instance. store may be nil to
// disable the audit log.
func NewReviewer(host HostClient, llm backend.Backend, store storage.Storage, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		host:      host,
		llm:       llm,
		store:     store,
		loader:    config.NewLoader(host),
		templates: NewTemplates(),
		matcher:   PythonMatcher{},
		logger:    logger,
	}
}

// Templates exposes the prompt template registry for validated updates.
func (r *Reviewer) Templates() *Templates {
	return r.templates
}

// SetMatcher overrides the language policy used by the extractor.
func (r *Reviewer) SetMatcher(m LanguageMatcher) {
	r.matcher = m
}

// SetSimilarityProvider injects the optional similar-commit context source.
func (r *Reviewer) SetSimilarityProvider(p SimilarityProvider) {
	r.similarity = p
}

// ReviewInput identifies the pull request to review.
type ReviewInput struct {
	InstallationID int64
	Owner          string
	Repo           string
	PRNumber       int
}

// ReviewResult contains the outcome of a published review.
type ReviewResult struct {
	ReviewID  int64
	ReviewURL string
	Summary   string
	Rating    Rating
	ItemCount int
}

// ReviewPullRequest performs a full review of a pull request and posts
// the result as a single COMMENT review. Returns (nil, nil) when the
// repository config disables reviews.
func (r *Reviewer) ReviewPullRequest(ctx context.Context, input *ReviewInput) (*ReviewResult, error) {
	r.logger.Info("starting review",
		"owner", input.Owner,
		"repo", input.Repo,
		"pr", input.PRNumber,
	)

	pr, err := r.host.GetPullRequest(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request: %w", err)
	}

	headSHA := ""
	if pr.Head != nil {
		headSHA = pr.Head.SHA
	}

	cfg, err := r.loader.Load(ctx, input.InstallationID, input.Owner, input.Repo, headSHA)
	if err != nil {
		var parseErr *config.RepoConfigParseError
		if errors.As(err, &parseErr) {
			// Invalid config is a user error that should be surfaced
			return nil, fmt.Errorf("invalid config file %s: %w", parseErr.Path, parseErr.Err)
		}
		r.logger.Warn("failed to load repo config, using defaults", "error", err)
		cfg = config.DefaultRepoConfig()
	}

	if !cfg.Enabled {
		r.logger.Info("review skipped: disabled by repo config")
		return nil, nil
	}

	files, err := r.host.ListPullRequestFiles(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}

	if len(cfg.Exclude) > 0 {
		files = filterFiles(files, cfg)
	}

	r.logger.Info("fetched changed files", "count", len(files), "granularity", cfg.Granularity)

	var items []ItemReview
	if cfg.Granularity == config.GranularityFunction {
		items = r.reviewByFunction(ctx, input, headSHA, files)
	} else {
		items = r.reviewByFile(ctx, input, headSHA, files)
	}

	summary, rating := Summarize(items)

	body := buildReviewBody(pr, files, summary, rating)

	posted, err := r.host.CreateReview(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber, &github.ReviewRequest{
		CommitID: headSHA,
		Body:     body,
		Event:    "COMMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post review: %w", err)
	}

	r.logger.Info("posted review",
		"review_id", posted.ID,
		"url", posted.HTMLURL,
		"rating", rating,
		"items", len(items),
	)

	r.recordReview(ctx, input, posted.ID, summary, rating, items)

	return &ReviewResult{
		ReviewID:  posted.ID,
		ReviewURL: posted.HTMLURL,
		Summary:   summary,
		Rating:    rating,
		ItemCount: len(items),
	}, nil
}

// reviewByFile fans out one backend call per changed file. Results are
// written into a position-indexed slice so the output order is the
// file-list order regardless of completion order. Per-item failures
// degrade to a placeholder instead of aborting the review.
func (r *Reviewer) reviewByFile(ctx context.Context, input *ReviewInput, headSHA string, files []github.PullRequestFile) []ItemReview {
	items := make([]ItemReview, len(files))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(MaxConcurrentItems)

	for i, file := range files {
		i, file := i, file
		items[i] = newItem(file)
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				items[i].Review = placeholderBackendFailed
				return nil
			}
			defer sem.Release(1)

			items[i].Review = r.reviewFile(gctx, input, headSHA, file)
			return nil
		})
	}

	// Item goroutines never return errors; only context cancellation
	// can surface here, and degraded items are already recorded.
	_ = g.Wait()

	return items
}

// reviewFile produces the review text for one file, or a degradation
// placeholder on failure.
func (r *Reviewer) reviewFile(ctx context.Context, input *ReviewInput, headSHA string, file github.PullRequestFile) string {
	content, err := r.host.FetchFileContent(ctx, input.InstallationID, input.Owner, input.Repo, file.Filename, headSHA)
	if err != nil {
		r.logger.Error("failed to fetch file content", "file", file.Filename, "error", err)
		return placeholderFetchFailed
	}

	similar := r.similarCommitText(ctx, input.InstallationID, input.Owner, input.Repo, file.Filename, headSHA)

	prompt, err := r.templates.Render(TemplateFileChange, map[string]string{
		"filename":             file.Filename,
		"file_content":         content,
		"file_diff":            file.Patch,
		"similar_commit_texts": similar,
	})
	if err != nil {
		r.logger.Error("failed to render prompt", "file", file.Filename, "error", err)
		return placeholderBackendFailed
	}

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		r.logger.Error("backend call failed", "file", file.Filename, "error", err)
		return placeholderBackendFailed
	}

	return strings.TrimSpace(text)
}

// reviewByFunction fans out per file; within a file, the diff is split
// into function fragments and each fragment gets its own backend call.
// Function results stay grouped under their owning file because the
// per-file result slices are flattened in file-list order.
func (r *Reviewer) reviewByFunction(ctx context.Context, input *ReviewInput, headSHA string, files []github.PullRequestFile) []ItemReview {
	perFile := make([][]ItemReview, len(files))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(MaxConcurrentItems)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				item := newItem(file)
				item.Review = placeholderBackendFailed
				perFile[i] = []ItemReview{item}
				return nil
			}
			defer sem.Release(1)

			perFile[i] = r.reviewFileFunctions(gctx, input, headSHA, file)
			return nil
		})
	}

	_ = g.Wait()

	var items []ItemReview
	for _, group := range perFile {
		items = append(items, group...)
	}
	return items
}

// reviewFileFunctions reviews each changed function of one file.
// A file whose diff yields no function fragments falls back to a
// whole-file item so the change is still reviewed.
func (r *Reviewer) reviewFileFunctions(ctx context.Context, input *ReviewInput, headSHA string, file github.PullRequestFile) []ItemReview {
	content, err := r.host.FetchFileContent(ctx, input.InstallationID, input.Owner, input.Repo, file.Filename, headSHA)
	if err != nil {
		r.logger.Error("failed to fetch file content", "file", file.Filename, "error", err)
		item := newItem(file)
		item.Review = placeholderFetchFailed
		return []ItemReview{item}
	}

	functions := SplitByFunction(file.Patch, r.matcher)
	if len(functions) == 0 {
		item := newItem(file)
		item.Review = r.reviewFile(ctx, input, headSHA, file)
		return []ItemReview{item}
	}

	similar := r.similarCommitText(ctx, input.InstallationID, input.Owner, input.Repo, file.Filename, headSHA)

	items := make([]ItemReview, 0, len(functions))
	for _, fn := range functions {
		item := newItem(file)
		item.Function = fn.Name
		item.Review = r.reviewFunction(ctx, file.Filename, fn, content, similar)
		items = append(items, item)
	}
	return items
}

// reviewFunction produces the review text for one function fragment.
func (r *Reviewer) reviewFunction(ctx context.Context, filename string, fn FunctionDiff, content, similar string) string {
	original := ExtractFunction(content, fn.Name, r.matcher)

	prompt, err := r.templates.Render(TemplateFunctionChange, map[string]string{
		"filename":               filename,
		"original_function_code": original,
		"function_diff":          fn.Diff,
		"similar_commit_texts":   similar,
	})
	if err != nil {
		r.logger.Error("failed to render prompt", "function", fn.Name, "error", err)
		return placeholderBackendFailed
	}

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		r.logger.Error("backend call failed", "file", filename, "function", fn.Name, "error", err)
		return placeholderBackendFailed
	}

	return strings.TrimSpace(text)
}

// newItem seeds an ItemReview with a file's change metadata.
func newItem(file github.PullRequestFile) ItemReview {
	return ItemReview{
		Filename:  file.Filename,
		Status:    file.Status,
		Additions: file.Additions,
		Deletions: file.Deletions,
		Changes:   file.Changes,
	}
}

// filterFiles removes files matching the repo config exclude patterns.
func filterFiles(files []github.PullRequestFile, cfg *config.RepoConfig) []github.PullRequestFile {
	kept := make([]github.PullRequestFile, 0, len(files))
	for _, f := range files {
		if !cfg.ShouldExcludeFile(f.Filename) {
			kept = append(kept, f)
		}
	}
	return kept
}

// buildReviewBody composes the final review: metadata header, per-file
// change stats, summary, and rating.
func buildReviewBody(pr *github.PullRequest, files []github.PullRequestFile, summary string, rating Rating) string {
	author := ""
	if pr.User != nil {
		author = pr.User.Login
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Pull Request Review for [%s](%s)\n", pr.Title, pr.HTMLURL)
	fmt.Fprintf(&sb, "**Author:** %s\n\n", author)
	fmt.Fprintf(&sb, "**Description:**\n%s\n\n", pr.Body)
	sb.WriteString("#### Changed Files:\n")

	for _, f := range files {
		fmt.Fprintf(&sb, "- **%s** (%s): %d changes\n", f.Filename, f.Status, f.Changes)
		fmt.Fprintf(&sb, "  - Additions: %d, Deletions: %d\n", f.Additions, f.Deletions)
	}

	fmt.Fprintf(&sb, "\n### Review Summary:\n%s\n", summary)
	fmt.Fprintf(&sb, "\n### Rating: %s\n", rating)

	return sb.String()
}

// recordReview writes the audit-log record for a published review.
// Recording failures are logged, never propagated.
func (r *Reviewer) recordReview(ctx context.Context, input *ReviewInput, reviewID int64, summary string, rating Rating, items []ItemReview) {
	if r.store == nil {
		return
	}

	recorded := make([]storage.Item, len(items))
	for i, item := range items {
		recorded[i] = storage.Item{
			Filename: item.Filename,
			Function: item.Function,
			Review:   item.Review,
		}
	}

	record := &storage.ReviewRecord{
		InstallationID: input.InstallationID,
		Owner:          input.Owner,
		Repo:           input.Repo,
		PRNumber:       input.PRNumber,
		ReviewID:       reviewID,
		Rating:         string(rating),
		Summary:        summary,
		Items:          recorded,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.store.RecordReview(ctx, record); err != nil {
		r.logger.Error("failed to record review", "error", err)
	}
}
