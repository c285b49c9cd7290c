package storage

// Item is a single reviewed item within a recorded review.
type Item struct {
	Filename string `json:"filename"`
	Function string `json:"function,omitempty"`
	Review   string `json:"review"`
}

// ReviewRecord represents a published pull-request review.
type ReviewRecord struct {
	InstallationID int64  `json:"installation_id"`
	Owner          string `json:"owner"`
	Repo           string `json:"repo"`
	PRNumber       int    `json:"pr_number"`
	ReviewID       int64  `json:"review_id"`
	Rating         string `json:"rating"`
	Summary        string `json:"summary"`
	Items          []Item `json:"items"`
	CreatedAt      string `json:"created_at"`
}

// ReplyRecord represents a published targeted reply.
// Kind is one of "comment", "review", "thread"; TargetID identifies the
// object replied to (comment ID, review ID, or thread node ID).
type ReplyRecord struct {
	InstallationID int64  `json:"installation_id"`
	Owner          string `json:"owner"`
	Repo           string `json:"repo"`
	PRNumber       int    `json:"pr_number"`
	Kind           string `json:"kind"`
	TargetID       string `json:"target_id"`
	CommentID      int64  `json:"comment_id"`
	Body           string `json:"body"`
	CreatedAt      string `json:"created_at"`
}
