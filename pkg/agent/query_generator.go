package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const maxSearchQueries = 3

const queryGeneratorSystemPrompt = `あなたは検索クエリ生成の専門家です。割り当てられたタスクに答えるために最適な検索クエリを生成してください。

## クエリ生成のルール:

1. **複数の視点から検索**:
    - 異なる角度から情報を集めるため、2-3個のクエリを生成
    - 重複する内容のクエリは避ける

2. **具体的で明確なクエリ**:
    - 曖昧な表現を避け、固有名詞を使う

3. **時間的文脈の考慮**:
    - 「今日」「本日」を含む場合 → 必ず日付を含める
    - 最新情報が必要な場合 → "最新"や年月を含める

4. **タスク内容の活用**:
    - 代名詞は具体的な名詞に変換
    - 文脈から暗黙の情報を補完

## 重要な注意事項:
- 必ず2個以上のクエリを生成してください
- 前回のクエリと異なる角度からの検索を心がけてください`

var searchQueriesSchema = llm.Schema{
	Name:        "search_queries",
	Description: "タスクに答えるための検索クエリ",
	Raw: json.RawMessage(`{
		"type": "object",
		"properties": {
			"queries": {
				"type": "array",
				"items": {"type": "string"},
				"description": "生成された検索クエリのリスト（最大3個）"
			},
			"reason": {
				"type": "string",
				"description": "これらのクエリを選んだ理由"
			}
		},
		"required": ["queries", "reason"],
		"additionalProperties": false
	}`),
}

// QueryGenerator produces search queries for a web-search task. Earlier
// queries recorded on the task steer retries toward new angles.
type QueryGenerator struct {
	llm llm.Client
}

// NewQueryGenerator creates a query generator on top of the given model client.
func NewQueryGenerator(client llm.Client) *QueryGenerator {
	return &QueryGenerator{llm: client}
}

// Execute generates up to three queries for the task. feedback, when
// non-empty, carries the evaluator's improvement hints from a prior attempt.
func (g *QueryGenerator) Execute(ctx context.Context, task *domain.Task, feedback string) ([]string, error) {
	var previousQueries []string
	if task.Log != nil && task.Log.Kind == domain.AgentWebSearch {
		previousQueries = task.Log.AllQueries()
	}

	system, err := domain.NewSystemMessage(queryGeneratorSystemPrompt)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUserMessage(buildQueryPrompt(task.Description, previousQueries, feedback))
	if err != nil {
		return nil, err
	}

	raw, err := g.llm.GenerateStructured(ctx, []*domain.Message{system, user}, searchQueriesSchema)
	if err != nil {
		return nil, fmt.Errorf("generate search queries: %w", err)
	}

	var decoded struct {
		Queries []string `json:"queries"`
		Reason  string   `json:"reason"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode search queries: %w", err)
	}

	queries := make([]string, 0, maxSearchQueries)
	for _, q := range decoded.Queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxSearchQueries {
			break
		}
	}
	if len(queries) == 0 {
		return nil, domain.ErrEmptySearchQuery
	}
	return queries, nil
}

func buildQueryPrompt(taskDescription string, previousQueries []string, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 現在の日付:\n%s\n\n## 割り当てられたタスク:\n%s", currentDate(), taskDescription)

	if len(previousQueries) > 0 {
		b.WriteString("\n\n## すでに利用した検索クエリ:\n")
		for _, q := range previousQueries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
		b.WriteString("\n**重要**: 前回の検索で十分な結果が得られなかったため、異なる角度からの新しいクエリを生成してください。")
	}

	if feedback != "" {
		fmt.Fprintf(&b, "\n\n## 改善フィードバック:\n%s\n\n上記のフィードバックを参考にしてください。", feedback)
	}

	return b.String()
}
