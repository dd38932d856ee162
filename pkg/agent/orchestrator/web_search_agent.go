package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soba-ai/soba/pkg/agent"
	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/search"
)

const (
	// MaxTaskAttempts caps the generate/evaluate loop per task.
	MaxTaskAttempts = 2

	searchResultsPerQuery = 3
)

// WebSearchAgent answers a task from live web evidence. It generates queries,
// searches, summarizes, then lets the evaluator decide whether to redo the
// search or just the summary, up to MaxTaskAttempts passes.
type WebSearchAgent struct {
	queries   *agent.QueryGenerator
	results   *agent.TaskResultGenerator
	evaluator *agent.Evaluator
	search    search.Client
	logger    *slog.Logger
}

// NewWebSearchAgent assembles the web-search loop.
func NewWebSearchAgent(
	queries *agent.QueryGenerator,
	results *agent.TaskResultGenerator,
	evaluator *agent.Evaluator,
	searchClient search.Client,
	logger *slog.Logger,
) *WebSearchAgent {
	return &WebSearchAgent{
		queries:   queries,
		results:   results,
		evaluator: evaluator,
		search:    searchClient,
		logger:    logger.With("component", "web_search_agent"),
	}
}

// Name implements TaskAgent.
func (a *WebSearchAgent) Name() domain.AgentName {
	return domain.AgentWebSearch
}

// Execute runs the search/summarize/evaluate loop for one task. Domain
// outcomes (unusable queries, empty results) fail only the task; model
// transport failures in query or result generation mark the task failed and
// propagate so the turn fails. Evaluation failures keep the current result
// rather than discarding completed work.
func (a *WebSearchAgent) Execute(ctx context.Context, _ *domain.ChatSession, task *domain.Task) error {
	feedback := ""
	skipSearch := false

	for attempt := 1; ; attempt++ {
		if !skipSearch {
			done, err := a.searchPhase(ctx, task, feedback)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}

		previousResult := task.Result
		if err := a.results.Execute(ctx, task, feedback, previousResult); err != nil {
			a.logger.Error("task result generation failed", "task_id", task.ID, "error", err)
			task.Fail(err.Error())
			return err
		}

		evaluation, err := a.evaluator.Execute(ctx, task)
		if err != nil {
			// The result exists; a broken evaluator must not throw it away.
			a.logger.Warn("evaluation failed, keeping current result",
				"task_id", task.ID, "error", err)
			return nil
		}

		if evaluation.IsSatisfactory || attempt >= MaxTaskAttempts {
			return nil
		}

		switch evaluation.Need {
		case domain.NeedSearch:
			feedback = evaluation.Feedback
			skipSearch = false
		case domain.NeedGenerate:
			feedback = evaluation.Feedback
			skipSearch = true
		default:
			return nil
		}

		a.logger.Info("retrying task",
			"task_id", task.ID, "attempt", attempt+1, "need", evaluation.Need)
	}
}

// searchPhase generates queries and records one search attempt per query.
// done reports that the task reached a terminal status and the loop must stop.
func (a *WebSearchAgent) searchPhase(ctx context.Context, task *domain.Task, feedback string) (done bool, err error) {
	queries, err := a.queries.Execute(ctx, task, feedback)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySearchQuery) {
			a.logger.Warn("no usable search queries", "task_id", task.ID)
			task.Fail("適切な検索クエリを生成できませんでした。")
			return true, nil
		}
		a.logger.Error("query generation failed", "task_id", task.ID, "error", err)
		task.Fail(err.Error())
		return true, err
	}

	for _, query := range queries {
		results, err := a.search.Search(ctx, query, searchResultsPerQuery)
		if err != nil {
			// Record the exhausted query so a retry steers away from it.
			a.logger.Warn("search failed", "task_id", task.ID, "query", query, "error", err)
			results = []domain.SearchResult{}
		}
		if err := task.AddSearchAttempt(query, results); err != nil {
			a.logger.Error("recording search attempt failed", "task_id", task.ID, "error", err)
		}
	}
	return false, nil
}
