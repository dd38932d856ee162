package domain

import "strings"

// SearchResult is one fetched document from the web search port.
type SearchResult struct {
	URL     string
	Title   string
	Content string
}

// SearchAttempt records one query issued against the search port together
// with everything it returned. An empty result list is a valid attempt.
type SearchAttempt struct {
	Query   string
	Results []SearchResult
}

// GenerationAttempt records one LLM generation pass of a general-answer task.
type GenerationAttempt struct {
	Response string
}

// TaskLog is the kind-tagged work trace of a task. Exactly one of the attempt
// slices is populated, matching Kind. Operations on the wrong kind fail with
// ErrTaskLogKindMismatch, which is part of the Task contract.
type TaskLog struct {
	Kind               AgentName
	SearchAttempts     []SearchAttempt
	GenerationAttempts []GenerationAttempt
}

// NewWebSearchTaskLog creates an empty web-search work log.
func NewWebSearchTaskLog() *TaskLog {
	return &TaskLog{Kind: AgentWebSearch}
}

// NewGeneralAnswerTaskLog creates an empty general-answer work log.
func NewGeneralAnswerTaskLog() *TaskLog {
	return &TaskLog{Kind: AgentGeneralAnswer}
}

// AddSearchAttempt appends a search attempt. The query must be non-blank and
// results must be non-nil; an empty (but non-nil) result slice is accepted.
func (l *TaskLog) AddSearchAttempt(query string, results []SearchResult) error {
	if l.Kind != AgentWebSearch {
		return ErrTaskLogKindMismatch
	}
	if strings.TrimSpace(query) == "" {
		return ErrEmptySearchQuery
	}
	if results == nil {
		return ErrInvalidSearchResults
	}
	l.SearchAttempts = append(l.SearchAttempts, SearchAttempt{Query: query, Results: results})
	return nil
}

// AddGenerationAttempt appends a generation attempt with a non-blank response.
func (l *TaskLog) AddGenerationAttempt(response string) error {
	if l.Kind != AgentGeneralAnswer {
		return ErrTaskLogKindMismatch
	}
	if strings.TrimSpace(response) == "" {
		return ErrEmptyResponse
	}
	l.GenerationAttempts = append(l.GenerationAttempts, GenerationAttempt{Response: response})
	return nil
}

// AllQueries returns every query issued so far, in order. Used by the
// query-generation prompt to steer retries away from exhausted queries.
func (l *TaskLog) AllQueries() []string {
	queries := make([]string, 0, len(l.SearchAttempts))
	for _, attempt := range l.SearchAttempts {
		queries = append(queries, attempt.Query)
	}
	return queries
}

// AllSearchResults flattens the results of every search attempt, in order.
func (l *TaskLog) AllSearchResults() []SearchResult {
	var results []SearchResult
	for _, attempt := range l.SearchAttempts {
		results = append(results, attempt.Results...)
	}
	return results
}
