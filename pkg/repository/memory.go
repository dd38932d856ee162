package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/soba-ai/soba/pkg/domain"
)

// InMemoryChatSessionRepository keeps sessions in a map. Used for local runs
// without a database and in tests.
type InMemoryChatSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewInMemoryChatSessionRepository creates an empty in-memory store.
func NewInMemoryChatSessionRepository() *InMemoryChatSessionRepository {
	return &InMemoryChatSessionRepository{sessions: make(map[string]*domain.ChatSession)}
}

// Save implements ChatSessionRepository.
func (r *InMemoryChatSessionRepository) Save(_ context.Context, session *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

// FindByID implements ChatSessionRepository.
func (r *InMemoryChatSessionRepository) FindByID(_ context.Context, id string) (*domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id], nil
}

type feedbackKey struct {
	messageID uuid.UUID
	userID    string
}

// InMemoryFeedbackRepository keeps feedback in a map keyed like the unique
// constraint of the feedbacks table.
type InMemoryFeedbackRepository struct {
	mu       sync.RWMutex
	feedback map[feedbackKey]*domain.Feedback
}

// NewInMemoryFeedbackRepository creates an empty in-memory store.
func NewInMemoryFeedbackRepository() *InMemoryFeedbackRepository {
	return &InMemoryFeedbackRepository{feedback: make(map[feedbackKey]*domain.Feedback)}
}

// Save implements FeedbackRepository.
func (r *InMemoryFeedbackRepository) Save(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback[feedbackKey{messageID: feedback.MessageID, userID: feedback.UserID}] = feedback
	return nil
}

// FindByMessageAndUser implements FeedbackRepository.
func (r *InMemoryFeedbackRepository) FindByMessageAndUser(_ context.Context, messageID uuid.UUID, userID string) (*domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feedback[feedbackKey{messageID: messageID, userID: userID}], nil
}
