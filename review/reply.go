package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SeineAI/SeineFish/github"
	"github.com/SeineAI/SeineFish/storage"
)

// StripMentions removes @-mention tokens from a comment body so the
// backend never sees usernames as instructions.
func StripMentions(body string) string {
	fields := strings.Fields(body)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "@") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// ReplyInput identifies the pull request a targeted reply belongs to.
type ReplyInput struct {
	InstallationID int64
	Owner          string
	Repo           string
	PRNumber       int
}

// ReplyToComment generates and posts a threaded reply to a review
// comment.
func (r *Reviewer) ReplyToComment(ctx context.Context, input *ReplyInput, commentID int64) error {
	comment, err := r.host.GetReviewComment(ctx, input.InstallationID, input.Owner, input.Repo, commentID)
	if err != nil {
		return fmt.Errorf("failed to fetch review comment: %w", err)
	}

	prompt, err := r.templates.Render(TemplateReviewComment, map[string]string{
		"comment_body": StripMentions(comment.Body),
		"diff_hunk":    comment.DiffHunk,
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("backend call failed: %w", err)
	}

	posted, err := r.host.CreateCommentReply(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber, commentID, strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("failed to post comment reply: %w", err)
	}

	r.logger.Info("posted comment reply", "comment_id", commentID, "reply_id", posted.ID)

	r.recordReply(ctx, input, "comment", fmt.Sprintf("%d", commentID), posted.ID, posted.Body)
	return nil
}

// ReplyToReview generates a response to a submitted review. Reviews
// have no reply endpoint, so the response is posted as an issue comment
// on the pull request.
func (r *Reviewer) ReplyToReview(ctx context.Context, input *ReplyInput, reviewID int64) error {
	rv, err := r.host.GetReview(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber, reviewID)
	if err != nil {
		return fmt.Errorf("failed to fetch review: %w", err)
	}

	if strings.TrimSpace(rv.Body) == "" {
		r.logger.Info("review has no body, skipping reply", "review_id", reviewID)
		return nil
	}

	prompt, err := r.templates.Render(TemplateReview, map[string]string{
		"review_body": StripMentions(rv.Body),
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("backend call failed: %w", err)
	}

	posted, err := r.host.CreateIssueComment(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber, strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("failed to post issue comment: %w", err)
	}

	r.logger.Info("posted review reply", "review_id", reviewID, "comment_id", posted.ID)

	r.recordReply(ctx, input, "review", fmt.Sprintf("%d", reviewID), posted.ID, posted.Body)
	return nil
}

// ReplyToThread generates a reply within a review thread identified by
// its GraphQL node ID. The reply is attached to the thread's last
// comment so it lands inside the thread.
func (r *Reviewer) ReplyToThread(ctx context.Context, input *ReplyInput, threadNodeID string) error {
	threads, err := r.host.FetchReviewThreads(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch review threads: %w", err)
	}

	var thread *github.ReviewThread
	for i := range threads {
		if threads[i].ID == threadNodeID {
			thread = &threads[i]
			break
		}
	}
	if thread == nil {
		return fmt.Errorf("review thread %s not found", threadNodeID)
	}
	if len(thread.Comments) == 0 {
		return fmt.Errorf("review thread %s has no comments", threadNodeID)
	}

	bodies := make([]string, 0, len(thread.Comments))
	for _, c := range thread.Comments {
		bodies = append(bodies, StripMentions(c.Body))
	}

	prompt, err := r.templates.Render(TemplateReviewThread, map[string]string{
		"thread_comments": strings.Join(bodies, "\n\n"),
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("backend call failed: %w", err)
	}

	last := thread.Comments[len(thread.Comments)-1]
	posted, err := r.host.CreateCommentReply(ctx, input.InstallationID, input.Owner, input.Repo, input.PRNumber, last.DatabaseID, strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("failed to post thread reply: %w", err)
	}

	r.logger.Info("posted thread reply", "thread_id", threadNodeID, "reply_id", posted.ID)

	r.recordReply(ctx, input, "thread", threadNodeID, posted.ID, posted.Body)
	return nil
}

// recordReply writes the audit-log record for a published reply.
// Recording failures are logged, never propagated.
func (r *Reviewer) recordReply(ctx context.Context, input *ReplyInput, kind, targetID string, commentID int64, body string) {
	if r.store == nil {
		return
	}

	record := &storage.ReplyRecord{
		InstallationID: input.InstallationID,
		Owner:          input.Owner,
		Repo:           input.Repo,
		PRNumber:       input.PRNumber,
		Kind:           kind,
		TargetID:       targetID,
		CommentID:      commentID,
		Body:           body,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.store.RecordReply(ctx, record); err != nil {
		r.logger.Error("failed to record reply", "error", err)
	}
}
