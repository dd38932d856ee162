package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPlan is the set of tasks the planner produced for one user message.
type TaskPlan struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	Tasks     []*Task
	CreatedAt time.Time
}

// NewTaskPlan creates a plan for the given user message. The task list must
// be non-empty.
func NewTaskPlan(messageID uuid.UUID, tasks []*Task) (*TaskPlan, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTaskList
	}
	return &TaskPlan{
		ID:        uuid.New(),
		MessageID: messageID,
		Tasks:     tasks,
		CreatedAt: time.Now(),
	}, nil
}

// ReconstructTaskPlan rebuilds a plan from persisted state.
func ReconstructTaskPlan(id, messageID uuid.UUID, tasks []*Task, createdAt time.Time) (*TaskPlan, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTaskList
	}
	return &TaskPlan{ID: id, MessageID: messageID, Tasks: tasks, CreatedAt: createdAt}, nil
}

// TaskByID returns the task with the given id, or nil.
func (p *TaskPlan) TaskByID(id uuid.UUID) *Task {
	for _, task := range p.Tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}

// FormatTaskResults renders the completed task results for the final-answer
// prompt. Non-completed tasks are omitted; tasks are numbered by their
// position in the plan for stable display. Fails with ErrAllTasksFailed when
// no task completed.
func (p *TaskPlan) FormatTaskResults() (string, error) {
	var parts []string
	completed := 0
	for i, task := range p.Tasks {
		if task.Status != TaskCompleted {
			continue
		}
		completed++
		parts = append(parts, fmt.Sprintf(
			"## タスク %d: %s\n\n### エージェント\n%s\n\n### ステータス\n%s\n\n### 結果\n%s",
			i+1, task.Description, task.Agent, task.Status, task.Result,
		))
	}
	if completed == 0 {
		return "", ErrAllTasksFailed
	}
	return fmt.Sprintf(
		"# タスク実行結果サマリー\n\n実行済みタスク数: %d/%d\n\n---\n\n%s",
		completed, len(p.Tasks), strings.Join(parts, "\n\n---\n\n"),
	), nil
}
