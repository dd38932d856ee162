// Package repository persists chat sessions and feedback. The PostgreSQL
// implementations save aggregates in one transaction with idempotent upserts,
// so re-saving a session after each turn is safe.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soba-ai/soba/pkg/domain"
)

// ChatSessionRepository stores whole sessions. FindByID returns (nil, nil)
// when the session does not exist.
type ChatSessionRepository interface {
	Save(ctx context.Context, session *domain.ChatSession) error
	FindByID(ctx context.Context, id string) (*domain.ChatSession, error)
}

// FeedbackRepository stores feedback, one row per (message, user).
type FeedbackRepository interface {
	Save(ctx context.Context, feedback *domain.Feedback) error
	FindByMessageAndUser(ctx context.Context, messageID uuid.UUID, userID string) (*domain.Feedback, error)
}

// SaveError reports a failed write together with the entity it targeted.
type SaveError struct {
	Entity string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Entity, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed read together with the entity it targeted.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
