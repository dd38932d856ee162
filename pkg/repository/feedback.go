package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soba-ai/soba/pkg/domain"
)

// PostgresFeedbackRepository stores feedback in PostgreSQL, one row per
// (message, user). Saving an existing pair updates the polarity in place.
type PostgresFeedbackRepository struct {
	db *sql.DB
}

// NewPostgresFeedbackRepository creates a repository on the given pool.
func NewPostgresFeedbackRepository(db *sql.DB) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{db: db}
}

// Save upserts the feedback row keyed on (message_id, user_id).
func (r *PostgresFeedbackRepository) Save(ctx context.Context, feedback *domain.Feedback) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedbacks (id, message_id, user_id, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id, user_id) DO UPDATE SET
			feedback = EXCLUDED.feedback,
			updated_at = EXCLUDED.updated_at`,
		feedback.ID, feedback.MessageID, feedback.UserID, string(feedback.Type),
		feedback.CreatedAt, feedback.UpdatedAt,
	)
	if err != nil {
		return &SaveError{Entity: "feedback", Err: err}
	}
	return nil
}

// FindByMessageAndUser returns the user's feedback on the message, or
// (nil, nil) when none exists.
func (r *PostgresFeedbackRepository) FindByMessageAndUser(ctx context.Context, messageID uuid.UUID, userID string) (*domain.Feedback, error) {
	var (
		id                   uuid.UUID
		feedbackType         string
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, feedback, created_at, updated_at
		FROM feedbacks
		WHERE message_id = $1 AND user_id = $2`,
		messageID, userID,
	).Scan(&id, &feedbackType, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &FetchError{Entity: "feedback", Err: err}
	}

	return domain.ReconstructFeedback(
		id, userID, messageID, domain.FeedbackType(feedbackType), createdAt, updatedAt,
	), nil
}
