package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const evaluatorSystemPrompt = `あなたはタスク結果品質を評価する専門家です。

## 評価の流れ:

### 1. 検索結果の確認
**need = "search" (検索改善が必要):**
- 検索結果にタスクに答える情報が含まれていない
- 検索クエリが不適切

### 2. タスク結果の確認
**need = "generate" (タスク結果改善が必要):**
- 検索結果の重要情報が活用されていない
- 構成や表現が分かりにくい

### 3. 全体的な満足度
**need = null (改善不要):**
- 重要情報が適切に反映されている
- 自然な文章で構成されている

## 重要:
- is_satisfactory は need が null の場合のみ true
- feedback は具体的で実行可能な内容に`

var taskEvaluationSchema = llm.Schema{
	Name:        "task_evaluation",
	Description: "タスク結果の品質評価",
	Raw: json.RawMessage(`{
		"type": "object",
		"properties": {
			"is_satisfactory": {
				"type": "boolean",
				"description": "タスク結果が十分か"
			},
			"need": {
				"anyOf": [
					{"type": "string", "enum": ["search", "generate"]},
					{"type": "null"}
				],
				"description": "改善が必要な場合の種類"
			},
			"reason": {
				"type": "string",
				"description": "判断理由"
			},
			"feedback": {
				"anyOf": [{"type": "string"}, {"type": "null"}],
				"description": "改善のためのフィードバック"
			}
		},
		"required": ["is_satisfactory", "need", "reason", "feedback"],
		"additionalProperties": false
	}`),
}

// Evaluator judges whether a task result answers its task, and when it does
// not, which phase the agent should redo.
type Evaluator struct {
	llm llm.Client
}

// NewEvaluator creates an evaluator on top of the given model client.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{llm: client}
}

// Execute evaluates the task's current result.
func (e *Evaluator) Execute(ctx context.Context, task *domain.Task) (*domain.TaskEvaluation, error) {
	if task.Result == "" {
		return nil, domain.ErrTaskResultNotFound
	}

	system, err := domain.NewSystemMessage(evaluatorSystemPrompt)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUserMessage(buildEvaluationPrompt(task))
	if err != nil {
		return nil, err
	}

	raw, err := e.llm.GenerateStructured(ctx, []*domain.Message{system, user}, taskEvaluationSchema)
	if err != nil {
		return nil, fmt.Errorf("evaluate task result: %w", err)
	}

	var decoded struct {
		IsSatisfactory bool    `json:"is_satisfactory"`
		Need           *string `json:"need"`
		Reason         string  `json:"reason"`
		Feedback       *string `json:"feedback"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode task evaluation: %w", err)
	}

	need := domain.NeedNone
	if decoded.Need != nil {
		switch domain.Need(*decoded.Need) {
		case domain.NeedSearch:
			need = domain.NeedSearch
		case domain.NeedGenerate:
			need = domain.NeedGenerate
		default:
			return nil, fmt.Errorf("unexpected need value %q", *decoded.Need)
		}
	}

	feedback := ""
	if decoded.Feedback != nil {
		feedback = *decoded.Feedback
	}

	// The two fields must agree; a satisfactory verdict needs nothing.
	satisfactory := decoded.IsSatisfactory && need == domain.NeedNone

	return &domain.TaskEvaluation{
		IsSatisfactory: satisfactory,
		Need:           need,
		Reason:         decoded.Reason,
		Feedback:       feedback,
	}, nil
}

func buildEvaluationPrompt(task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 現在の日付:\n%s\n\n## 割り当てられたタスク:\n%s\n\n## 生成されたタスク結果:\n%s",
		currentDate(), task.Description, task.Result)

	if task.Log != nil && task.Log.Kind == domain.AgentWebSearch {
		results := task.Log.AllSearchResults()
		if len(results) > 0 {
			b.WriteString("\n## 取得した検索結果:")
			for i, r := range results {
				fmt.Fprintf(&b, "\n### 検索結果 %d\n**URL**: %s\n**タイトル**: %s", i+1, r.URL, r.Title)
			}
		}
	}

	return b.String()
}
