package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const taskResultSystemPrompt = `あなたはタスク実行エージェントです。以下の検索結果を元に、割り当てられたタスクの結果をまとめてください。

## システムアーキテクチャの理解:
1. **タスク計画**: ユーザーの質問を複数のタスクに分割
2. **タスク実行(あなたの役割)**: 各タスクについて検索を実行し、結果をまとめる
3. **回答生成**: すべてのタスク結果を統合してユーザーに最終回答を提示

**重要**: 回答生成エージェントは検索結果を直接見ることができません。

## タスク結果作成のルール:

1. **検索結果のみを使用**:
    - 検索結果に含まれる情報のみを使用
    - 推測しない

2. **次のエージェントが理解できる内容**:
    - 数字、日付、固有名詞など具体的な情報を含める
    - 専門用語は簡潔に補足

3. **情報源の記載(必須)**:
    - 引用番号: [0], [1] のように角括弧で囲む
    - Slackリンク形式: ` + "`<URL|表示名>`" + `
    - **URLは一字一句完全にコピー(変更・創作厳禁)**

4. **フォーマット**:
    ` + "```" + `
    (タスク結果の本文)[0][1]

    【参考情報】(2件)
    [0] <URL|表示名>
    [1] <URL|表示名>
    ` + "```"

// TaskResultGenerator summarizes a web-search task's collected evidence into
// the task result, completing the task on first pass and replacing the result
// on retries.
type TaskResultGenerator struct {
	llm llm.Client
}

// NewTaskResultGenerator creates a generator on top of the given model client.
func NewTaskResultGenerator(client llm.Client) *TaskResultGenerator {
	return &TaskResultGenerator{llm: client}
}

// Execute generates the task result from the task's search log. feedback and
// previousResult carry the evaluator's hints when regenerating.
func (g *TaskResultGenerator) Execute(ctx context.Context, task *domain.Task, feedback, previousResult string) error {
	results := task.Log.AllSearchResults()

	system, err := domain.NewSystemMessage(taskResultSystemPrompt)
	if err != nil {
		return err
	}
	user, err := domain.NewUserMessage(buildTaskResultPrompt(task.Description, results, feedback, previousResult))
	if err != nil {
		return err
	}

	result, err := g.llm.Generate(ctx, []*domain.Message{system, user})
	if err != nil {
		return fmt.Errorf("generate task result: %w", err)
	}

	switch task.Status {
	case domain.TaskInProgress:
		return task.Complete(result)
	case domain.TaskCompleted:
		return task.UpdateResult(result)
	default:
		return fmt.Errorf("%w: status=%s", domain.ErrTaskNotInProgress, task.Status)
	}
}

func buildTaskResultPrompt(taskDescription string, results []domain.SearchResult, feedback, previousResult string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 現在の日付:\n%s\n\n## 割り当てられたタスク:\n%s", currentDate(), taskDescription)

	if len(results) > 0 {
		b.WriteString("\n## 取得した検索結果:")
		for i, r := range results {
			fmt.Fprintf(&b, "\n### 検索結果 %d\n**タイトル**: %s\n**URL**: %s\n**内容**:\n%s\n", i+1, r.Title, r.URL, r.Content)
		}
		b.WriteString("\n**【重要】URLを【参考情報】に含める場合は、一字一句完全にコピーしてください。**")
	}

	if feedback != "" {
		fmt.Fprintf(&b, "\n## 改善フィードバック:\n%s", feedback)
		if previousResult != "" {
			fmt.Fprintf(&b, "\n## 以前のタスク結果:\n%s", previousResult)
		}
		b.WriteString("\n**重要**: フィードバックを参考にして、より良いタスク結果を作成してください。")
	}

	return b.String()
}
