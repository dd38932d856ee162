package domain

import "errors"

// Sentinel errors for domain-state violations. Orchestration code matches on
// these with errors.Is; user-facing layers translate them to generic replies.
var (
	ErrEmptyMessageContent = errors.New("message content is empty")

	ErrEmptyTaskDescription = errors.New("task description is empty")
	ErrTaskNotInProgress    = errors.New("task is not in progress")
	ErrTaskNotCompleted     = errors.New("task is not completed")
	ErrMissingTaskLog       = errors.New("task has no task log")
	ErrTaskLogKindMismatch  = errors.New("task log kind does not match agent")
	ErrEmptyResponse        = errors.New("generation response is empty")
	ErrEmptySearchQuery     = errors.New("search query is empty")
	ErrInvalidSearchResults = errors.New("search results must not be nil")
	ErrTaskResultNotFound   = errors.New("task has no result to evaluate")
	ErrUnknownAgent         = errors.New("unknown agent name")

	ErrEmptyTaskList  = errors.New("task plan has no tasks")
	ErrNilTaskPlan    = errors.New("task plan must not be nil")
	ErrAllTasksFailed = errors.New("no task completed successfully")

	ErrUserMessageNotFound         = errors.New("no user message in session")
	ErrInvalidUserMessageRole      = errors.New("only user messages can be appended here")
	ErrInvalidAssistantMessageRole = errors.New("only assistant messages can be appended here")
)
