// Package postgres provides a PostgreSQL implementation of the storage
// interface. This is intended for self-hosted deployments.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SeineAI/SeineFish/storage"
)

// PostgreSQL provides storage operations using PostgreSQL.
type PostgreSQL struct {
	db *sql.DB
}

// New creates a new PostgreSQL storage instance.
func New(db *sql.DB) *PostgreSQL {
	return &PostgreSQL{db: db}
}

// NewFromDSN creates a new PostgreSQL storage instance from a connection string.
func NewFromDSN(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgreSQL{db: db}, nil
}

// Close closes the database connection.
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

// Migrate creates the required database tables.
func (p *PostgreSQL) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS reviews (
			id SERIAL PRIMARY KEY,
			installation_id BIGINT NOT NULL,
			owner TEXT NOT NULL,
			repo TEXT NOT NULL,
			pr_number INTEGER NOT NULL,
			review_id BIGINT NOT NULL,
			rating TEXT NOT NULL,
			summary TEXT,
			items JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(installation_id, owner, repo, pr_number, review_id)
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_pr ON reviews(installation_id, owner, repo, pr_number);

		CREATE TABLE IF NOT EXISTS replies (
			id SERIAL PRIMARY KEY,
			installation_id BIGINT NOT NULL,
			owner TEXT NOT NULL,
			repo TEXT NOT NULL,
			pr_number INTEGER NOT NULL,
			kind TEXT NOT NULL,
			target_id TEXT NOT NULL,
			comment_id BIGINT,
			body TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_replies_pr ON replies(installation_id, owner, repo, pr_number);
	`

	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// RecordReview stores a published review in PostgreSQL.
func (p *PostgreSQL) RecordReview(ctx context.Context, review *storage.ReviewRecord) error {
	query := `
		INSERT INTO reviews (installation_id, owner, repo, pr_number, review_id, rating, summary, items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (installation_id, owner, repo, pr_number, review_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			summary = EXCLUDED.summary,
			items = EXCLUDED.items
	`

	_, err := p.db.ExecContext(ctx, query,
		review.InstallationID,
		review.Owner,
		review.Repo,
		review.PRNumber,
		review.ReviewID,
		review.Rating,
		review.Summary,
		itemsToJSON(review.Items),
	)
	if err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}

	return nil
}

// RecordReply stores a published reply in PostgreSQL.
func (p *PostgreSQL) RecordReply(ctx context.Context, reply *storage.ReplyRecord) error {
	query := `
		INSERT INTO replies (installation_id, owner, repo, pr_number, kind, target_id, comment_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err := p.db.ExecContext(ctx, query,
		reply.InstallationID,
		reply.Owner,
		reply.Repo,
		reply.PRNumber,
		reply.Kind,
		reply.TargetID,
		reply.CommentID,
		reply.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to record reply: %w", err)
	}

	return nil
}

// ListReviewsForPR retrieves all recorded reviews for a pull request.
func (p *PostgreSQL) ListReviewsForPR(ctx context.Context, installationID int64, owner, repo string, prNumber int) ([]*storage.ReviewRecord, error) {
	query := `
		SELECT installation_id, owner, repo, pr_number, review_id, rating, summary, items, created_at
		FROM reviews
		WHERE installation_id = $1 AND owner = $2 AND repo = $3 AND pr_number = $4
		ORDER BY created_at ASC
	`

	rows, err := p.db.QueryContext(ctx, query, installationID, owner, repo, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*storage.ReviewRecord
	for rows.Next() {
		var review storage.ReviewRecord
		var itemsJSON sql.NullString
		var summary sql.NullString
		var createdAt time.Time

		if err := rows.Scan(
			&review.InstallationID,
			&review.Owner,
			&review.Repo,
			&review.PRNumber,
			&review.ReviewID,
			&review.Rating,
			&summary,
			&itemsJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}

		review.Summary = summary.String
		review.Items = itemsFromJSON(itemsJSON.String)
		review.CreatedAt = createdAt.Format(time.RFC3339)
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}

// Verify PostgreSQL implements Storage at compile time.
var _ storage.Storage = (*PostgreSQL)(nil)
