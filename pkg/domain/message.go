// Package domain holds the chat assistant's domain model: sessions, messages,
// task plans, tasks with their typed work logs, evaluations, and feedback.
// Entities enforce their own state transitions; persistence and orchestration
// layers build on top of these invariants.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single immutable conversation turn.
type Message struct {
	ID        uuid.UUID
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewMessage creates a message with a fresh ID. Content must be non-empty
// after trimming.
func NewMessage(role Role, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessageContent
	}
	return &Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// NewUserMessage creates a USER message.
func NewUserMessage(content string) (*Message, error) {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an ASSISTANT message.
func NewAssistantMessage(content string) (*Message, error) {
	return NewMessage(RoleAssistant, content)
}

// NewSystemMessage creates a SYSTEM message. System messages are used for
// prompt assembly only and are never persisted.
func NewSystemMessage(content string) (*Message, error) {
	return NewMessage(RoleSystem, content)
}

// ReconstructMessage rebuilds a message from persisted state. It applies the
// same content invariant as NewMessage so a loaded entity is indistinguishable
// from a freshly built one.
func ReconstructMessage(id uuid.UUID, role Role, content string, createdAt time.Time) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessageContent
	}
	return &Message{ID: id, Role: role, Content: content, CreatedAt: createdAt}, nil
}
