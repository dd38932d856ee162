// Package orchestrator runs the full answer workflow: plan the latest user
// request into tasks, fan the tasks out to their agents in parallel, then
// synthesize the completed results into one answer. During fan-out each agent
// mutates only its own task; the session and the plan structure stay untouched
// until synthesis.
package orchestrator

import (
	"context"

	"github.com/soba-ai/soba/pkg/domain"
)

// TaskAgent executes one task to a terminal status. Implementations report
// infrastructure failures as errors; the workflow converts those into task
// failures so sibling tasks keep their results.
type TaskAgent interface {
	Name() domain.AgentName
	Execute(ctx context.Context, session *domain.ChatSession, task *domain.Task) error
}
