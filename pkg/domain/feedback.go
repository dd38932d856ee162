package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackType is the polarity of a user's reaction to an assistant message.
type FeedbackType string

const (
	FeedbackGood FeedbackType = "good"
	FeedbackBad  FeedbackType = "bad"
)

// Feedback is one user's verdict on one assistant message. A user has at most
// one feedback row per message; changing polarity mutates the row in place.
type Feedback struct {
	ID        uuid.UUID
	UserID    string
	MessageID uuid.UUID
	Type      FeedbackType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPositiveFeedback records a good reaction.
func NewPositiveFeedback(userID string, messageID uuid.UUID) *Feedback {
	return newFeedback(userID, messageID, FeedbackGood)
}

// NewNegativeFeedback records a bad reaction.
func NewNegativeFeedback(userID string, messageID uuid.UUID) *Feedback {
	return newFeedback(userID, messageID, FeedbackBad)
}

func newFeedback(userID string, messageID uuid.UUID, t FeedbackType) *Feedback {
	now := time.Now()
	return &Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		MessageID: messageID,
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReconstructFeedback rebuilds feedback from persisted state.
func ReconstructFeedback(id uuid.UUID, userID string, messageID uuid.UUID, t FeedbackType, createdAt, updatedAt time.Time) *Feedback {
	return &Feedback{
		ID:        id,
		UserID:    userID,
		MessageID: messageID,
		Type:      t,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// MakePositive flips the feedback to good. UpdatedAt moves only when the
// polarity actually changes, so re-reacting is idempotent.
func (f *Feedback) MakePositive() {
	if f.Type == FeedbackGood {
		return
	}
	f.Type = FeedbackGood
	f.UpdatedAt = time.Now()
}

// MakeNegative flips the feedback to bad.
func (f *Feedback) MakeNegative() {
	if f.Type == FeedbackBad {
		return
	}
	f.Type = FeedbackBad
	f.UpdatedAt = time.Now()
}
