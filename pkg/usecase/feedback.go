package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/repository"
)

// FeedbackInput is one user reaction to an assistant message.
type FeedbackInput struct {
	MessageID    string
	FeedbackType string // "good" or "bad"
	UserID       string
}

// FeedbackUseCase records feedback, keeping one row per (message, user).
// Repeating the same reaction is a no-op; a different reaction flips the row.
type FeedbackUseCase struct {
	feedbacks repository.FeedbackRepository
	logger    *slog.Logger
}

// NewFeedbackUseCase wires the use case.
func NewFeedbackUseCase(feedbacks repository.FeedbackRepository, logger *slog.Logger) *FeedbackUseCase {
	return &FeedbackUseCase{
		feedbacks: feedbacks,
		logger:    logger.With("component", "feedback_usecase"),
	}
}

// Execute records one reaction.
func (u *FeedbackUseCase) Execute(ctx context.Context, input FeedbackInput) error {
	feedbackType := domain.FeedbackType(input.FeedbackType)
	if feedbackType != domain.FeedbackGood && feedbackType != domain.FeedbackBad {
		return &InvalidInputError{Field: "feedback_type"}
	}
	messageID, err := uuid.Parse(input.MessageID)
	if err != nil {
		return &InvalidInputError{Field: "message_id"}
	}
	if strings.TrimSpace(input.UserID) == "" {
		return &InvalidInputError{Field: "user_id"}
	}

	existing, err := u.feedbacks.FindByMessageAndUser(ctx, messageID, input.UserID)
	if err != nil {
		return fmt.Errorf("load feedback: %w", err)
	}

	feedback := existing
	if feedback == nil {
		if feedbackType == domain.FeedbackGood {
			feedback = domain.NewPositiveFeedback(input.UserID, messageID)
		} else {
			feedback = domain.NewNegativeFeedback(input.UserID, messageID)
		}
	} else {
		if feedbackType == domain.FeedbackGood {
			feedback.MakePositive()
		} else {
			feedback.MakeNegative()
		}
	}

	if err := u.feedbacks.Save(ctx, feedback); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	u.logger.Debug("feedback recorded",
		"message_id", messageID, "user_id", input.UserID, "type", feedbackType)
	return nil
}
