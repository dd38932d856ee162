package agent

import (
	"context"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const generalAnswerSystemPrompt = `## あなたの役割:
あなたは社内アシスタントAIとして、社員からの質問や依頼に回答します。
親切で正確な対応を心がけてください。

## 回答のスタイル:

- **自然な会話**: 堅苦しくならず、親しみやすい言葉遣いで回答してください
- **簡潔さ**: 質問に直接答え、必要な情報を過不足なく提供してください
- **わかりやすさ**: 専門用語を使う場合は簡単に説明を加えてください

## Slack mrkdwn形式:
- 太字: ` + "`*テキスト*`" + ` の形式で囲む
- 箇条書き: 各行の先頭に ` + "`• `" + ` を使用
- 見出し記号(` + "`#`, `##`, `###`" + `)は使用しない

## 制約:
- 学習済み知識の範囲内で回答してください
- 最新情報が必要な場合や不確実な情報は推測せず、素直にその旨を伝えてください
- 「社内アシスタントAIです」のような自己紹介は回答に含めないでください`

// GeneralAnswerer answers a task from model knowledge alone, with the full
// conversation as context.
type GeneralAnswerer struct {
	llm llm.Client
}

// NewGeneralAnswerer creates an answerer on top of the given model client.
func NewGeneralAnswerer(client llm.Client) *GeneralAnswerer {
	return &GeneralAnswerer{llm: client}
}

// Execute answers the task and completes it.
func (g *GeneralAnswerer) Execute(ctx context.Context, session *domain.ChatSession, task *domain.Task) error {
	system, err := domain.NewSystemMessage(generalAnswerSystemPrompt)
	if err != nil {
		return err
	}
	user, err := domain.NewUserMessage(fmt.Sprintf(
		"## 現在の日付:\n%s\n\n## タスク:\n%s\n\n上記のタスクについて回答してください。",
		currentDate(), task.Description,
	))
	if err != nil {
		return err
	}

	messages := make([]*domain.Message, 0, len(session.Messages)+2)
	messages = append(messages, system)
	messages = append(messages, session.Messages...)
	messages = append(messages, user)

	answer, err := g.llm.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("generate general answer: %w", err)
	}

	if err := task.AddGenerationAttempt(answer); err != nil {
		return err
	}
	return task.Complete(answer)
}
