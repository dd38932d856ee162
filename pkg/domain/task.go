package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AgentName selects which task agent executes a task.
type AgentName string

const (
	AgentWebSearch     AgentName = "web_search"
	AgentGeneralAnswer AgentName = "general_answer"
)

// ParseAgentName validates an agent label coming from the LLM planner.
func ParseAgentName(s string) (AgentName, error) {
	switch AgentName(s) {
	case AgentWebSearch:
		return AgentWebSearch, nil
	case AgentGeneralAnswer:
		return AgentGeneralAnswer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAgent, s)
	}
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one unit of work dispatched to exactly one agent. It owns its
// kind-matched TaskLog and enforces the status transition table:
//
//	Complete(non-empty)  in_progress -> completed
//	Complete(empty)      in_progress -> failed
//	UpdateResult(r)      completed   -> completed (result replaced)
//	Fail(msg)            any         -> failed
type Task struct {
	ID          uuid.UUID
	Description string
	Agent       AgentName
	Status      TaskStatus
	Result      string
	Log         *TaskLog
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewWebSearchTask creates an in-progress task bound to the web-search agent.
func NewWebSearchTask(description string) (*Task, error) {
	return newTask(description, AgentWebSearch, NewWebSearchTaskLog())
}

// NewGeneralAnswerTask creates an in-progress task bound to the
// general-answer agent.
func NewGeneralAnswerTask(description string) (*Task, error) {
	return newTask(description, AgentGeneralAnswer, NewGeneralAnswerTaskLog())
}

func newTask(description string, agent AgentName, log *TaskLog) (*Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyTaskDescription
	}
	return &Task{
		ID:          uuid.New(),
		Description: description,
		Agent:       agent,
		Status:      TaskInProgress,
		Log:         log,
		CreatedAt:   time.Now(),
	}, nil
}

// ReconstructTask rebuilds a task from persisted state. The log kind must
// match the agent.
func ReconstructTask(
	id uuid.UUID,
	description string,
	agent AgentName,
	status TaskStatus,
	result string,
	log *TaskLog,
	createdAt time.Time,
	completedAt *time.Time,
) (*Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyTaskDescription
	}
	if log == nil {
		return nil, ErrMissingTaskLog
	}
	if log.Kind != agent {
		return nil, ErrTaskLogKindMismatch
	}
	return &Task{
		ID:          id,
		Description: description,
		Agent:       agent,
		Status:      status,
		Result:      result,
		Log:         log,
		CreatedAt:   createdAt,
		CompletedAt: completedAt,
	}, nil
}

// Complete transitions the task to completed with the given result. An empty
// result is not a usable outcome, so the task transitions to failed instead.
func (t *Task) Complete(result string) error {
	if t.Status != TaskInProgress {
		return fmt.Errorf("%w: status=%s", ErrTaskNotInProgress, t.Status)
	}
	if strings.TrimSpace(result) == "" {
		t.fail("empty result")
		return nil
	}
	t.Status = TaskCompleted
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// UpdateResult replaces the result of an already-completed task. Used when a
// retry regenerates the result over the same evidence.
func (t *Task) UpdateResult(result string) error {
	if t.Status != TaskCompleted {
		return fmt.Errorf("%w: status=%s", ErrTaskNotCompleted, t.Status)
	}
	if strings.TrimSpace(result) == "" {
		return ErrEmptyResponse
	}
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// Fail marks the task failed from any state and records the cause.
func (t *Task) Fail(msg string) {
	t.fail(msg)
}

func (t *Task) fail(msg string) {
	t.Status = TaskFailed
	t.Result = "Error: " + msg
	now := time.Now()
	t.CompletedAt = &now
}

// AddSearchAttempt records a search attempt on the task's log. Fails when the
// task is not a web-search task.
func (t *Task) AddSearchAttempt(query string, results []SearchResult) error {
	if t.Log == nil {
		return ErrMissingTaskLog
	}
	if t.Agent != AgentWebSearch {
		return ErrTaskLogKindMismatch
	}
	return t.Log.AddSearchAttempt(query, results)
}

// AddGenerationAttempt records a generation attempt on the task's log. Fails
// when the task is not a general-answer task.
func (t *Task) AddGenerationAttempt(response string) error {
	if t.Log == nil {
		return ErrMissingTaskLog
	}
	if t.Agent != AgentGeneralAnswer {
		return ErrTaskLogKindMismatch
	}
	return t.Log.AddGenerationAttempt(response)
}
