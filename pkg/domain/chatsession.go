package domain

import "time"

// ChatSession is the full history of one conversation: ordered messages plus
// every task plan produced for them. The session id is supplied by the
// adapter (channel + thread), so sessions survive process restarts.
type ChatSession struct {
	ID        string
	ThreadID  string // empty for top-level conversations
	UserID    string
	ChannelID string
	Messages  []*Message
	TaskPlans []*TaskPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewChatSession creates an empty session for a new conversation id.
func NewChatSession(id, threadID, userID, channelID string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        id,
		ThreadID:  threadID,
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReconstructChatSession rebuilds a session from persisted state.
func ReconstructChatSession(
	id, threadID, userID, channelID string,
	messages []*Message,
	taskPlans []*TaskPlan,
	createdAt, updatedAt time.Time,
) *ChatSession {
	return &ChatSession{
		ID:        id,
		ThreadID:  threadID,
		UserID:    userID,
		ChannelID: channelID,
		Messages:  messages,
		TaskPlans: taskPlans,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// AddUserMessage creates a USER message from content and appends it.
func (s *ChatSession) AddUserMessage(content string) (*Message, error) {
	msg, err := NewUserMessage(content)
	if err != nil {
		return nil, err
	}
	s.Messages = append(s.Messages, msg)
	return msg, nil
}

// AppendUserMessage appends an existing message, rejecting any non-USER role.
func (s *ChatSession) AppendUserMessage(msg *Message) error {
	if msg.Role != RoleUser {
		return ErrInvalidUserMessageRole
	}
	s.Messages = append(s.Messages, msg)
	return nil
}

// AddAssistantMessage creates an ASSISTANT message from content and appends it.
func (s *ChatSession) AddAssistantMessage(content string) (*Message, error) {
	msg, err := NewAssistantMessage(content)
	if err != nil {
		return nil, err
	}
	s.Messages = append(s.Messages, msg)
	return msg, nil
}

// AppendAssistantMessage appends an existing message, rejecting any non-ASSISTANT role.
func (s *ChatSession) AppendAssistantMessage(msg *Message) error {
	if msg.Role != RoleAssistant {
		return ErrInvalidAssistantMessageRole
	}
	s.Messages = append(s.Messages, msg)
	return nil
}

// AddTaskPlan appends a plan to the session.
func (s *ChatSession) AddTaskPlan(plan *TaskPlan) error {
	if plan == nil {
		return ErrNilTaskPlan
	}
	s.TaskPlans = append(s.TaskPlans, plan)
	return nil
}

// LastUserMessage returns the most recent USER message, if any.
func (s *ChatSession) LastUserMessage() (*Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return nil, false
}

// LastAssistantMessage returns the most recent ASSISTANT message, if any.
func (s *ChatSession) LastAssistantMessage() (*Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return nil, false
}
