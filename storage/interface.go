// Package storage defines the review audit log interface for SeineFish.
//
// The audit log records what was published; the review pipeline itself
// never reads from it, and a recording failure never fails a review.
package storage

import (
	"context"
)

// Storage defines the interface for SeineFish storage backends.
// Implementations must be safe for concurrent use by multiple goroutines.
type Storage interface {
	// RecordReview stores a published pull-request review.
	RecordReview(ctx context.Context, review *ReviewRecord) error
	// RecordReply stores a published targeted reply.
	RecordReply(ctx context.Context, reply *ReplyRecord) error
	// ListReviewsForPR retrieves recorded reviews for a pull request,
	// oldest first.
	ListReviewsForPR(ctx context.Context, installationID int64, owner, repo string, prNumber int) ([]*ReviewRecord, error)
}
