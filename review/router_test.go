package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SeineAI/SeineFish/github"
)

func newTestRouter(host *fakeHost, llm *fakeBackend) *Router {
	return NewRouter(NewReviewer(host, llm, nil, testLogger()))
}

func TestDispatchPing(t *testing.T) {
	host := newFakeHost()
	llm := &fakeBackend{response: "unused"}
	router := newTestRouter(host, llm)

	outcome, message, err := router.Dispatch(context.Background(), "ping", []byte(`{"zen": "Design for failure."}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if outcome != OutcomePong {
		t.Errorf("outcome = %v, want OutcomePong", outcome)
	}
	if message != "Pong" {
		t.Errorf("message = %q, want Pong", message)
	}
	if llm.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0", llm.callCount())
	}
}

func TestDispatchUnsupportedEvent(t *testing.T) {
	host := newFakeHost()
	llm := &fakeBackend{response: "unused"}
	router := newTestRouter(host, llm)

	_, _, err := router.Dispatch(context.Background(), "workflow_run", []byte(`{}`))
	if !errors.Is(err, github.ErrUnsupportedEvent) {
		t.Fatalf("Dispatch() error = %v, want ErrUnsupportedEvent", err)
	}
	if llm.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0", llm.callCount())
	}
}

func TestDispatchPullRequest(t *testing.T) {
	payload := func(action string) []byte {
		return []byte(fmt.Sprintf(`{
			"action": %q,
			"number": 7,
			"pull_request": {"number": 7, "title": "T", "head": {"sha": "abc"}},
			"repository": {"full_name": "owner/repo"},
			"installation": {"id": 1}
		}`, action))
	}

	t.Run("opened triggers review", func(t *testing.T) {
		host := newFakeHost()
		host.files = []github.PullRequestFile{
			{Filename: "a.py", Status: "modified", Changes: 1, Patch: "+x"},
		}
		llm := &fakeBackend{response: "Looks good."}
		router := newTestRouter(host, llm)

		outcome, message, err := router.Dispatch(context.Background(), "pull_request", payload("opened"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeHandled {
			t.Errorf("outcome = %v, want OutcomeHandled", outcome)
		}
		if message != "Pull request event handled" {
			t.Errorf("message = %q", message)
		}
		if len(host.postedReviews) != 1 {
			t.Errorf("posted reviews = %d, want 1", len(host.postedReviews))
		}
	})

	t.Run("closed is acknowledged without work", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "unused"}
		router := newTestRouter(host, llm)

		outcome, message, err := router.Dispatch(context.Background(), "pull_request", payload("closed"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeIgnored {
			t.Errorf("outcome = %v, want OutcomeIgnored", outcome)
		}
		if message != "Pull request event handled" {
			t.Errorf("message = %q", message)
		}
		if llm.callCount() != 0 {
			t.Errorf("backend calls = %d, want 0", llm.callCount())
		}
	})

	t.Run("synchronize triggers review", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "Looks good."}
		router := newTestRouter(host, llm)

		outcome, _, err := router.Dispatch(context.Background(), "pull_request", payload("synchronize"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeHandled {
			t.Errorf("outcome = %v, want OutcomeHandled", outcome)
		}
	})

	t.Run("malformed payload errors", func(t *testing.T) {
		router := newTestRouter(newFakeHost(), &fakeBackend{})
		if _, _, err := router.Dispatch(context.Background(), "pull_request", []byte(`{"action": "opened"}`)); err == nil {
			t.Error("Dispatch() expected error for payload without pull_request")
		}
	})
}

func TestDispatchReviewComment(t *testing.T) {
	payload := func(action string) []byte {
		return []byte(fmt.Sprintf(`{
			"action": %q,
			"comment": {"id": 555, "body": "why this?", "diff_hunk": "@@"},
			"pull_request": {"number": 7},
			"repository": {"full_name": "owner/repo"},
			"installation": {"id": 1}
		}`, action))
	}

	t.Run("created triggers reply", func(t *testing.T) {
		host := newFakeHost()
		host.comment = &github.PullRequestComment{ID: 555, Body: "why this?", DiffHunk: "@@"}
		llm := &fakeBackend{response: "Because of X."}
		router := newTestRouter(host, llm)

		outcome, message, err := router.Dispatch(context.Background(), "pull_request_review_comment", payload("created"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeHandled {
			t.Errorf("outcome = %v, want OutcomeHandled", outcome)
		}
		if message != "Pull request review comment event handled" {
			t.Errorf("message = %q", message)
		}
		if len(host.postedReplies) != 1 {
			t.Errorf("posted replies = %d, want 1", len(host.postedReplies))
		}
	})

	t.Run("deleted is acknowledged without work", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "unused"}
		router := newTestRouter(host, llm)

		outcome, _, err := router.Dispatch(context.Background(), "pull_request_review_comment", payload("deleted"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeIgnored {
			t.Errorf("outcome = %v, want OutcomeIgnored", outcome)
		}
		if llm.callCount() != 0 {
			t.Errorf("backend calls = %d, want 0", llm.callCount())
		}
	})

	t.Run("bot replies are not answered", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "unused"}
		router := newTestRouter(host, llm)

		payload := []byte(`{
			"action": "created",
			"comment": {"id": 556, "body": "auto reply", "in_reply_to_id": 555, "user": {"login": "seinefish[bot]", "type": "Bot"}},
			"pull_request": {"number": 7},
			"repository": {"full_name": "owner/repo"},
			"installation": {"id": 1}
		}`)

		outcome, _, err := router.Dispatch(context.Background(), "pull_request_review_comment", payload)
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeIgnored {
			t.Errorf("outcome = %v, want OutcomeIgnored", outcome)
		}
		if llm.callCount() != 0 {
			t.Errorf("backend calls = %d, want 0", llm.callCount())
		}
	})
}

func TestDispatchReview(t *testing.T) {
	payload := func(action string) []byte {
		return []byte(fmt.Sprintf(`{
			"action": %q,
			"review": {"id": 321, "body": "solid work", "user": {"login": "human"}},
			"pull_request": {"number": 7},
			"repository": {"full_name": "owner/repo"},
			"installation": {"id": 1}
		}`, action))
	}

	t.Run("submitted triggers reply", func(t *testing.T) {
		host := newFakeHost()
		host.review = &github.Review{ID: 321, Body: "solid work"}
		llm := &fakeBackend{response: "Thanks!"}
		router := newTestRouter(host, llm)

		outcome, message, err := router.Dispatch(context.Background(), "pull_request_review", payload("submitted"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeHandled {
			t.Errorf("outcome = %v, want OutcomeHandled", outcome)
		}
		if message != "Pull request review event handled" {
			t.Errorf("message = %q", message)
		}
		if len(host.postedComments) != 1 {
			t.Errorf("posted issue comments = %d, want 1", len(host.postedComments))
		}
	})

	t.Run("dismissed is acknowledged without work", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "unused"}
		router := newTestRouter(host, llm)

		outcome, _, err := router.Dispatch(context.Background(), "pull_request_review", payload("dismissed"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeIgnored {
			t.Errorf("outcome = %v, want OutcomeIgnored", outcome)
		}
		if llm.callCount() != 0 {
			t.Errorf("backend calls = %d, want 0", llm.callCount())
		}
	})
}

func TestDispatchReviewThread(t *testing.T) {
	payload := func(action string) []byte {
		return []byte(fmt.Sprintf(`{
			"action": %q,
			"thread": {"node_id": "PRRT_target"},
			"pull_request": {"number": 7},
			"repository": {"full_name": "owner/repo"},
			"installation": {"id": 1}
		}`, action))
	}

	t.Run("resolved triggers reply", func(t *testing.T) {
		host := newFakeHost()
		host.threads = []github.ReviewThread{
			{
				ID: "PRRT_target",
				Comments: []github.ThreadComment{
					{ID: "c1", DatabaseID: 201, Body: "first"},
				},
			},
		}
		llm := &fakeBackend{response: "Noted."}
		router := newTestRouter(host, llm)

		outcome, message, err := router.Dispatch(context.Background(), "pull_request_review_thread", payload("resolved"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeHandled {
			t.Errorf("outcome = %v, want OutcomeHandled", outcome)
		}
		if message != "Pull request review thread event handled" {
			t.Errorf("message = %q", message)
		}
		if len(host.postedReplies) != 1 {
			t.Errorf("posted replies = %d, want 1", len(host.postedReplies))
		}
	})

	t.Run("other action is acknowledged without work", func(t *testing.T) {
		host := newFakeHost()
		llm := &fakeBackend{response: "unused"}
		router := newTestRouter(host, llm)

		outcome, _, err := router.Dispatch(context.Background(), "pull_request_review_thread", payload("pinned"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if outcome != OutcomeIgnored {
			t.Errorf("outcome = %v, want OutcomeIgnored", outcome)
		}
		if llm.callCount() != 0 {
			t.Errorf("backend calls = %d, want 0", llm.callCount())
		}
	})
}
