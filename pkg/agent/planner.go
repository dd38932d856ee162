package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const plannerSystemPrompt = `ユーザーの最新のリクエストを実行可能な独立したサブタスクに分割してください。

# システムアーキテクチャ:
1. **タスク計画(あなたの役割)**: 最新のリクエストを複数のタスクに分割し、適切なエージェントに割り当てる
2. **タスク実行**: 各エージェントが並列実行し、結果を返す
3. **回答生成**: すべての結果を統合して最終回答を生成

**重要**:
- 各タスクは並列実行されます
- 会話履歴は文脈理解のために提供されますが、タスクは最新のリクエストのみに基づいて生成してください

# 利用可能なエージェント

- **general_answer**: 一般回答エージェント
    - 一般的な質問に回答
    - 内部知識ベースや事前学習済みモデルを使用

- **web_search**: Web検索エージェント
    - Google検索を実行し、ページ内容を取得・分析
    - 最新ニュース、天気、技術情報など、Web上の公開情報の取得に最適

# サブタスク作成ルール

1. **必ず1つ以上のサブタスクを作成**
2. **最新のリクエストに対してのみタスクを生成** - 過去の会話内容に対するタスクは作成しない
3. **各タスクは完全に独立** - 依存関係を持たせない
4. **タスク内容は具体的で明確に** - エージェントへの指示として機能するように記述`

var taskPlanSchema = llm.Schema{
	Name:        "task_plan",
	Description: "最新のリクエストを分割したタスクのリスト",
	Raw: json.RawMessage(`{
		"type": "object",
		"properties": {
			"tasks": {
				"type": "array",
				"description": "実行するタスクのリスト(最低1つ以上)",
				"items": {
					"type": "object",
					"properties": {
						"task_description": {
							"type": "string",
							"description": "タスクの内容を簡潔に記述してください。"
						},
						"next_agent": {
							"type": "string",
							"enum": ["general_answer", "web_search"],
							"description": "処理するエージェント"
						}
					},
					"required": ["task_description", "next_agent"],
					"additionalProperties": false
				}
			},
			"reason": {
				"type": "string",
				"description": "タスク分割の戦略と根拠を説明してください。"
			}
		},
		"required": ["tasks", "reason"],
		"additionalProperties": false
	}`),
}

// Planner splits the latest user request into independent tasks, each bound
// to one executing agent.
type Planner struct {
	llm llm.Client
}

// NewPlanner creates a planner on top of the given model client.
func NewPlanner(client llm.Client) *Planner {
	return &Planner{llm: client}
}

// Execute plans tasks for the session's latest user message.
func (p *Planner) Execute(ctx context.Context, session *domain.ChatSession) (*domain.TaskPlan, error) {
	latest, ok := session.LastUserMessage()
	if !ok {
		return nil, domain.ErrUserMessageNotFound
	}

	system, err := domain.NewSystemMessage(plannerSystemPrompt)
	if err != nil {
		return nil, err
	}
	focus, err := domain.NewSystemMessage(fmt.Sprintf(
		"上記は会話履歴です。以下の最新のリクエストに対してのみタスクを生成してください:\n\n【最新のリクエスト】\n%s",
		latest.Content,
	))
	if err != nil {
		return nil, err
	}

	messages := make([]*domain.Message, 0, len(session.Messages)+2)
	messages = append(messages, system)
	messages = append(messages, session.Messages...)
	messages = append(messages, focus)

	raw, err := p.llm.GenerateStructured(ctx, messages, taskPlanSchema)
	if err != nil {
		return nil, fmt.Errorf("plan tasks: %w", err)
	}

	var decoded struct {
		Tasks []struct {
			TaskDescription string `json:"task_description"`
			NextAgent       string `json:"next_agent"`
		} `json:"tasks"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode task plan: %w", err)
	}
	if len(decoded.Tasks) == 0 {
		return nil, domain.ErrEmptyTaskList
	}

	tasks := make([]*domain.Task, 0, len(decoded.Tasks))
	for _, t := range decoded.Tasks {
		agent, err := domain.ParseAgentName(t.NextAgent)
		if err != nil {
			return nil, err
		}
		var task *domain.Task
		switch agent {
		case domain.AgentWebSearch:
			task, err = domain.NewWebSearchTask(t.TaskDescription)
		case domain.AgentGeneralAnswer:
			task, err = domain.NewGeneralAnswerTask(t.TaskDescription)
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return domain.NewTaskPlan(latest.ID, tasks)
}
