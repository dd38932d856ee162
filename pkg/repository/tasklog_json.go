package repository

import (
	"encoding/json"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
)

// Task logs are stored as JSONB keyed by the task's agent_name column: the
// web_search shape carries search attempts, the general_answer shape carries
// generation attempts.

type searchResultJSON struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searchAttemptJSON struct {
	Query   string             `json:"query"`
	Results []searchResultJSON `json:"results"`
}

type generationAttemptJSON struct {
	Response string `json:"response"`
}

type webSearchLogJSON struct {
	Attempts []searchAttemptJSON `json:"attempts"`
}

type generalAnswerLogJSON struct {
	Attempts []generationAttemptJSON `json:"attempts"`
}

func encodeTaskLog(log *domain.TaskLog) ([]byte, error) {
	switch log.Kind {
	case domain.AgentWebSearch:
		attempts := make([]searchAttemptJSON, 0, len(log.SearchAttempts))
		for _, attempt := range log.SearchAttempts {
			results := make([]searchResultJSON, 0, len(attempt.Results))
			for _, r := range attempt.Results {
				results = append(results, searchResultJSON{URL: r.URL, Title: r.Title, Content: r.Content})
			}
			attempts = append(attempts, searchAttemptJSON{Query: attempt.Query, Results: results})
		}
		return json.Marshal(webSearchLogJSON{Attempts: attempts})
	case domain.AgentGeneralAnswer:
		attempts := make([]generationAttemptJSON, 0, len(log.GenerationAttempts))
		for _, attempt := range log.GenerationAttempts {
			attempts = append(attempts, generationAttemptJSON{Response: attempt.Response})
		}
		return json.Marshal(generalAnswerLogJSON{Attempts: attempts})
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgent, log.Kind)
	}
}

func decodeTaskLog(agent domain.AgentName, raw []byte) (*domain.TaskLog, error) {
	switch agent {
	case domain.AgentWebSearch:
		var decoded webSearchLogJSON
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode web search log: %w", err)
		}
		log := domain.NewWebSearchTaskLog()
		for _, attempt := range decoded.Attempts {
			results := make([]domain.SearchResult, 0, len(attempt.Results))
			for _, r := range attempt.Results {
				results = append(results, domain.SearchResult{URL: r.URL, Title: r.Title, Content: r.Content})
			}
			if err := log.AddSearchAttempt(attempt.Query, results); err != nil {
				return nil, fmt.Errorf("rebuild web search log: %w", err)
			}
		}
		return log, nil
	case domain.AgentGeneralAnswer:
		var decoded generalAnswerLogJSON
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode general answer log: %w", err)
		}
		log := domain.NewGeneralAnswerTaskLog()
		for _, attempt := range decoded.Attempts {
			if err := log.AddGenerationAttempt(attempt.Response); err != nil {
				return nil, fmt.Errorf("rebuild general answer log: %w", err)
			}
		}
		return log, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgent, agent)
	}
}
