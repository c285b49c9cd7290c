// Package github provides the GitHub API client and webhook handling for SeineFish.
package github

import "time"

// PullRequestEvent is the payload of a pull_request webhook event.
type PullRequestEvent struct {
	Action       string        `json:"action"`
	Number       int           `json:"number"`
	PullRequest  *PullRequest  `json:"pull_request,omitempty"`
	Repository   *Repository   `json:"repository"`
	Installation *Installation `json:"installation"`
	Sender       *User         `json:"sender"`
}

// ReviewCommentEvent is the payload of a pull_request_review_comment webhook event.
type ReviewCommentEvent struct {
	Action       string              `json:"action"` // created, edited, deleted
	Comment      *PullRequestComment `json:"comment"`
	PullRequest  *PullRequest        `json:"pull_request"`
	Repository   *Repository         `json:"repository"`
	Installation *Installation       `json:"installation"`
	Sender       *User               `json:"sender"`
}

// ReviewEvent is the payload of a pull_request_review webhook event.
type ReviewEvent struct {
	Action       string        `json:"action"` // submitted, edited, dismissed
	Review       *Review       `json:"review"`
	PullRequest  *PullRequest  `json:"pull_request"`
	Repository   *Repository   `json:"repository"`
	Installation *Installation `json:"installation"`
	Sender       *User         `json:"sender"`
}

// ReviewThreadEvent is the payload of a pull_request_review_thread webhook event.
type ReviewThreadEvent struct {
	Action       string        `json:"action"` // resolved, unresolved
	Thread       *ThreadRef    `json:"thread"`
	PullRequest  *PullRequest  `json:"pull_request"`
	Repository   *Repository   `json:"repository"`
	Installation *Installation `json:"installation"`
	Sender       *User         `json:"sender"`
}

// ThreadRef identifies a review thread in a webhook payload.
// The GraphQL node ID is the stable identifier for thread lookups.
type ThreadRef struct {
	NodeID string `json:"node_id"`
}

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	State     string `json:"state"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Head      *Ref   `json:"head"`
	Base      *Ref   `json:"base"`
	User      *User  `json:"user"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Ref represents a git reference (branch/commit).
type Ref struct {
	Ref  string      `json:"ref"`
	SHA  string      `json:"sha"`
	Repo *Repository `json:"repo,omitempty"`
}

// Repository represents a GitHub repository.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         *User  `json:"owner"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// User represents a GitHub user or organization.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Installation represents a GitHub App installation.
type Installation struct {
	ID int64 `json:"id"`
}

// PullRequestFile represents a file changed in a pull request.
// The Patch field holds the unified diff for the file as returned by
// the files API; it is empty for binary files.
type PullRequestFile struct {
	SHA              string `json:"sha"`
	Filename         string `json:"filename"`
	Status           string `json:"status"` // added, removed, modified, renamed, copied, changed, unchanged
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Changes          int    `json:"changes"`
	Patch            string `json:"patch,omitempty"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// ReviewRequest represents a request to create a pull request review.
type ReviewRequest struct {
	CommitID string `json:"commit_id,omitempty"`
	Body     string `json:"body"`
	Event    string `json:"event"` // APPROVE, REQUEST_CHANGES, COMMENT
}

// Review represents a pull request review.
type Review struct {
	ID          int64     `json:"id"`
	NodeID      string    `json:"node_id"`
	User        *User     `json:"user"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	HTMLURL     string    `json:"html_url"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// FileContent represents the content of a file from the GitHub contents API.
type FileContent struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
	HTMLURL  string `json:"html_url"`
}

// PullRequestComment represents a comment on a pull request review.
type PullRequestComment struct {
	ID                  int64  `json:"id"`
	NodeID              string `json:"node_id"`
	PullRequestReviewID int64  `json:"pull_request_review_id"`
	DiffHunk            string `json:"diff_hunk"`
	Path                string `json:"path"`
	Position            int    `json:"position,omitempty"`
	CommitID            string `json:"commit_id"`
	InReplyToID         int64  `json:"in_reply_to_id,omitempty"`
	User                *User  `json:"user"`
	Body                string `json:"body"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
	HTMLURL             string `json:"html_url"`
	Line                int    `json:"line,omitempty"`
	Side                string `json:"side,omitempty"`
}

// CommentReply represents the body of a reply to a review comment.
type CommentReply struct {
	Body string `json:"body"`
}

// IssueCommentRequest represents a request to create an issue comment.
type IssueCommentRequest struct {
	Body string `json:"body"`
}

// IssueCommentResponse represents a created issue comment.
type IssueCommentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
	User    *User  `json:"user"`
}

// Commit represents a commit from the GitHub API.
type Commit struct {
	SHA    string        `json:"sha"`
	Commit *CommitDetail `json:"commit"`
	Author *User         `json:"author,omitempty"` // GitHub user (may be nil for non-users)
}

// CommitDetail contains the commit details.
type CommitDetail struct {
	Message string        `json:"message"`
	Author  *CommitAuthor `json:"author,omitempty"`
}

// CommitAuthor contains commit author information.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}
