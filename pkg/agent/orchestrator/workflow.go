package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/soba-ai/soba/pkg/agent"
	"github.com/soba-ai/soba/pkg/domain"
)

// DefaultMaxConcurrentWorkflows bounds how many answer workflows run at once
// across all conversations.
const DefaultMaxConcurrentWorkflows = 60

// Workflow wires the planner, the task agents, and the synthesizer into one
// executable pipeline. Build it once at startup and share it across requests.
type Workflow struct {
	planner *agent.Planner
	final   *agent.FinalAnswerer
	agents  map[domain.AgentName]TaskAgent
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

// NewWorkflow assembles a workflow from its stages.
func NewWorkflow(planner *agent.Planner, final *agent.FinalAnswerer, agents []TaskAgent, maxConcurrent int64, logger *slog.Logger) *Workflow {
	byName := make(map[domain.AgentName]TaskAgent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentWorkflows
	}
	return &Workflow{
		planner: planner,
		final:   final,
		agents:  byName,
		sem:     semaphore.NewWeighted(maxConcurrent),
		logger:  logger.With("component", "workflow"),
	}
}

// Execute runs one full workflow over the session's latest user message. The
// session itself is not mutated; the caller appends the answer and the plan.
func (w *Workflow) Execute(ctx context.Context, session *domain.ChatSession) (*domain.WorkflowResult, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire workflow slot: %w", err)
	}
	defer w.sem.Release(1)

	plan, err := w.planner.Execute(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("plan tasks: %w", err)
	}
	w.logger.Info("task plan created",
		"session_id", session.ID, "plan_id", plan.ID, "tasks", len(plan.Tasks))

	if err := w.runTasks(ctx, session, plan); err != nil {
		return nil, fmt.Errorf("run tasks: %w", err)
	}

	answer, err := w.final.Execute(ctx, session, plan)
	if err != nil {
		return nil, fmt.Errorf("generate final answer: %w", err)
	}

	return &domain.WorkflowResult{Answer: answer.Content, TaskPlan: plan}, nil
}

// runTasks executes every task of the plan in parallel. Task-level outcomes
// (an agent marking its task failed and returning nil) never abort siblings;
// an error returned by an agent is an infrastructure failure and fails the
// whole turn.
func (w *Workflow) runTasks(ctx context.Context, session *domain.ChatSession, plan *domain.TaskPlan) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range plan.Tasks {
		g.Go(func() error {
			taskAgent, ok := w.agents[task.Agent]
			if !ok {
				task.Fail(fmt.Sprintf("no agent registered for %s", task.Agent))
				return nil
			}
			if err := taskAgent.Execute(ctx, session, task); err != nil {
				w.logger.Error("task agent failed",
					"task_id", task.ID, "agent", task.Agent, "error", err)
				if task.Status == domain.TaskInProgress {
					task.Fail(err.Error())
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
