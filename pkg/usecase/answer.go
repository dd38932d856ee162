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

// WorkflowExecutor runs the full plan/execute/synthesize pipeline for a
// session's latest user message.
type WorkflowExecutor interface {
	Execute(ctx context.Context, session *domain.ChatSession) (*domain.WorkflowResult, error)
}

// AnswerInput is one user request routed to the assistant.
type AnswerInput struct {
	UserMessage    string
	ConversationID string
	ThreadID       string
	UserID         string
	ChannelID      string
}

// AnswerOutput carries the answer and the id of the persisted assistant
// message, which feedback later refers to.
type AnswerOutput struct {
	Answer    string
	MessageID uuid.UUID
}

// AnswerUseCase loads or creates the conversation's session, runs the
// workflow, and persists the grown session.
type AnswerUseCase struct {
	workflow WorkflowExecutor
	sessions repository.ChatSessionRepository
	logger   *slog.Logger
}

// NewAnswerUseCase wires the use case.
func NewAnswerUseCase(workflow WorkflowExecutor, sessions repository.ChatSessionRepository, logger *slog.Logger) *AnswerUseCase {
	return &AnswerUseCase{
		workflow: workflow,
		sessions: sessions,
		logger:   logger.With("component", "answer_usecase"),
	}
}

// Execute answers one user request. The session is saved only after the whole
// turn succeeded; a failed workflow leaves no partial turn behind.
func (u *AnswerUseCase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.UserMessage) == "" {
		return nil, &InvalidInputError{Field: "user_message"}
	}
	if strings.TrimSpace(input.ConversationID) == "" {
		return nil, &InvalidInputError{Field: "conversation_id"}
	}

	session, err := u.sessions.FindByID(ctx, input.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load chat session: %w", err)
	}
	if session == nil {
		session = domain.NewChatSession(input.ConversationID, input.ThreadID, input.UserID, input.ChannelID)
	}

	if _, err := session.AddUserMessage(input.UserMessage); err != nil {
		return nil, err
	}

	result, err := u.workflow.Execute(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("execute workflow: %w", err)
	}

	answerMsg, err := session.AddAssistantMessage(result.Answer)
	if err != nil {
		return nil, err
	}
	if err := session.AddTaskPlan(result.TaskPlan); err != nil {
		return nil, err
	}

	if err := u.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save chat session: %w", err)
	}

	u.logger.Info("answered user request",
		"session_id", session.ID, "message_id", answerMsg.ID, "tasks", len(result.TaskPlan.Tasks))

	return &AnswerOutput{Answer: result.Answer, MessageID: answerMsg.ID}, nil
}
