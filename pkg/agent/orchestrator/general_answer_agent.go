package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soba-ai/soba/pkg/agent"
	"github.com/soba-ai/soba/pkg/domain"
)

// GeneralAnswerAgent answers a task from model knowledge with the session as
// context. Single pass, no evaluation loop.
type GeneralAnswerAgent struct {
	answerer *agent.GeneralAnswerer
	logger   *slog.Logger
}

// NewGeneralAnswerAgent wraps the general answerer as a task agent.
func NewGeneralAnswerAgent(answerer *agent.GeneralAnswerer, logger *slog.Logger) *GeneralAnswerAgent {
	return &GeneralAnswerAgent{
		answerer: answerer,
		logger:   logger.With("component", "general_answer_agent"),
	}
}

// Name implements TaskAgent.
func (a *GeneralAnswerAgent) Name() domain.AgentName {
	return domain.AgentGeneralAnswer
}

// Execute implements TaskAgent. A model failure marks the task failed and
// still propagates, so the supervisor fails the turn instead of synthesizing
// a partial answer.
func (a *GeneralAnswerAgent) Execute(ctx context.Context, session *domain.ChatSession, task *domain.Task) error {
	if err := a.answerer.Execute(ctx, session, task); err != nil {
		a.logger.Error("general answer failed", "task_id", task.ID, "error", err)
		task.Fail(err.Error())
		return fmt.Errorf("generate general answer: %w", err)
	}
	return nil
}
