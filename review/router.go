package review

import (
	"context"
	"fmt"

	"github.com/SeineAI/SeineFish/github"
)

// Outcome classifies the result of dispatching a webhook delivery.
type Outcome int

const (
	// OutcomePong is the liveness response to a ping delivery.
	OutcomePong Outcome = iota
	// OutcomeHandled means the event triggered pipeline work.
	OutcomeHandled
	// OutcomeIgnored means the event type is supported but the action
	// is not one that triggers work.
	OutcomeIgnored
)

// Webhook event types dispatched by the router.
const (
	EventPing          = "ping"
	EventPullRequest   = "pull_request"
	EventReviewComment = "pull_request_review_comment"
	EventReview        = "pull_request_review"
	EventReviewThread  = "pull_request_review_thread"
)

// Actions that trigger work, per event type. Deliveries for other
// actions (closed, dismissed, deleted, ...) are acknowledged and
// dropped without any pipeline work.
var (
	pullRequestActions   = map[string]bool{"opened": true, "edited": true, "synchronize": true}
	reviewCommentActions = map[string]bool{"created": true, "edited": true}
	reviewActions        = map[string]bool{"submitted": true, "edited": true}
	reviewThreadActions  = map[string]bool{"resolved": true, "unresolved": true}
)

// Router dispatches webhook deliveries to the reviewer.
type Router struct {
	reviewer *Reviewer
}

// NewRouter creates a router backed by a reviewer.
func NewRouter(reviewer *Reviewer) *Router {
	return &Router{reviewer: reviewer}
}

// Dispatch classifies a webhook delivery by event type and action, runs
// the matching pipeline work synchronously, and returns the outcome and
// acknowledgement message. Unknown event types return
// github.ErrUnsupportedEvent.
func (rt *Router) Dispatch(ctx context.Context, eventType string, payload []byte) (Outcome, string, error) {
	switch eventType {
	case EventPing:
		return OutcomePong, "Pong", nil

	case EventPullRequest:
		return rt.dispatchPullRequest(ctx, payload)

	case EventReviewComment:
		return rt.dispatchReviewComment(ctx, payload)

	case EventReview:
		return rt.dispatchReview(ctx, payload)

	case EventReviewThread:
		return rt.dispatchReviewThread(ctx, payload)

	default:
		return 0, "", fmt.Errorf("%w: %s", github.ErrUnsupportedEvent, eventType)
	}
}

func (rt *Router) dispatchPullRequest(ctx context.Context, payload []byte) (Outcome, string, error) {
	const message = "Pull request event handled"

	event, err := github.ParsePullRequestEvent(payload)
	if err != nil {
		return 0, "", err
	}
	if !pullRequestActions[event.Action] {
		return OutcomeIgnored, message, nil
	}

	owner, repo, err := github.SplitFullName(event.Repository.FullName)
	if err != nil {
		return 0, "", err
	}

	_, err = rt.reviewer.ReviewPullRequest(ctx, &ReviewInput{
		InstallationID: installationID(event.Installation),
		Owner:          owner,
		Repo:           repo,
		PRNumber:       event.PullRequest.Number,
	})
	if err != nil {
		return 0, "", err
	}
	return OutcomeHandled, message, nil
}

func (rt *Router) dispatchReviewComment(ctx context.Context, payload []byte) (Outcome, string, error) {
	const message = "Pull request review comment event handled"

	event, err := github.ParseReviewCommentEvent(payload)
	if err != nil {
		return 0, "", err
	}
	if !reviewCommentActions[event.Action] {
		return OutcomeIgnored, message, nil
	}

	// Replying to our own replies would loop forever.
	if event.Comment.InReplyToID != 0 && isOwnComment(event.Comment.User) {
		return OutcomeIgnored, message, nil
	}

	owner, repo, err := github.SplitFullName(event.Repository.FullName)
	if err != nil {
		return 0, "", err
	}

	input := &ReplyInput{
		InstallationID: installationID(event.Installation),
		Owner:          owner,
		Repo:           repo,
		PRNumber:       event.PullRequest.Number,
	}
	if err := rt.reviewer.ReplyToComment(ctx, input, event.Comment.ID); err != nil {
		return 0, "", err
	}
	return OutcomeHandled, message, nil
}

func (rt *Router) dispatchReview(ctx context.Context, payload []byte) (Outcome, string, error) {
	const message = "Pull request review event handled"

	event, err := github.ParseReviewEvent(payload)
	if err != nil {
		return 0, "", err
	}
	if !reviewActions[event.Action] {
		return OutcomeIgnored, message, nil
	}

	if isOwnComment(event.Review.User) {
		return OutcomeIgnored, message, nil
	}

	owner, repo, err := github.SplitFullName(event.Repository.FullName)
	if err != nil {
		return 0, "", err
	}

	input := &ReplyInput{
		InstallationID: installationID(event.Installation),
		Owner:          owner,
		Repo:           repo,
		PRNumber:       event.PullRequest.Number,
	}
	if err := rt.reviewer.ReplyToReview(ctx, input, event.Review.ID); err != nil {
		return 0, "", err
	}
	return OutcomeHandled, message, nil
}

func (rt *Router) dispatchReviewThread(ctx context.Context, payload []byte) (Outcome, string, error) {
	const message = "Pull request review thread event handled"

	event, err := github.ParseReviewThreadEvent(payload)
	if err != nil {
		return 0, "", err
	}
	if !reviewThreadActions[event.Action] {
		return OutcomeIgnored, message, nil
	}

	owner, repo, err := github.SplitFullName(event.Repository.FullName)
	if err != nil {
		return 0, "", err
	}

	input := &ReplyInput{
		InstallationID: installationID(event.Installation),
		Owner:          owner,
		Repo:           repo,
		PRNumber:       event.PullRequest.Number,
	}
	if err := rt.reviewer.ReplyToThread(ctx, input, event.Thread.NodeID); err != nil {
		return 0, "", err
	}
	return OutcomeHandled, message, nil
}

// installationID tolerates payloads without an installation block,
// as produced by some test and replay tools.
func installationID(inst *github.Installation) int64 {
	if inst == nil {
		return 0
	}
	return inst.ID
}

// isOwnComment reports whether a comment or review was authored by a
// bot account, which includes this app's installation identity.
func isOwnComment(user *github.User) bool {
	return user != nil && user.Type == "Bot"
}
