package agent

import (
	"context"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

const finalAnswerSystemPrompt = `複数のタスクの実行結果を統合し、ユーザーの質問に対する包括的で分かりやすい回答を生成してください。

# 回答のルール:

1. **統合と一貫性**:
    - タスク結果を自然な文章として統合
    - 矛盾がある場合は両方の情報を提示

2. **簡潔さと適切な情報量**:
    - 質問の範囲内で重要な情報を過不足なく提供
    - 見出しは最小限(サブセクション「###」は使用しない)

3. **わかりやすさ**:
    - 簡潔で分かりやすい日本語
    - 箇条書きは3〜5項目程度に抑える

4. **Slack mrkdwn形式(厳守)**:
    - 太字: ` + "`*テキスト*`" + `
    - 箇条書き: ` + "`• `" + `(ネストは ` + "`    • `" + `)
    - 見出し記号(#)は使用しない

5. **情報源の記載(必須)**:
    - **URLやファイル名の創作・推測は絶対禁止**
    - タスク結果のURLをそのまま正確に使用
    - 引用番号: [0], [1] のように角括弧で囲む
    - 同じURLは1つにまとめる
    - Slackリンク形式: ` + "`<URL|表示名>`"

// FinalAnswerer synthesizes the completed task results into the assistant's
// reply to the user.
type FinalAnswerer struct {
	llm llm.Client
}

// NewFinalAnswerer creates a synthesizer on top of the given model client.
func NewFinalAnswerer(client llm.Client) *FinalAnswerer {
	return &FinalAnswerer{llm: client}
}

// Execute generates the final answer message from the plan's task results.
// The session's latest user message is replaced in the prompt by a rendering
// that pairs the question with the task results.
func (f *FinalAnswerer) Execute(ctx context.Context, session *domain.ChatSession, plan *domain.TaskPlan) (*domain.Message, error) {
	latest, ok := session.LastUserMessage()
	if !ok {
		return nil, domain.ErrUserMessageNotFound
	}

	taskResults, err := plan.FormatTaskResults()
	if err != nil {
		return nil, err
	}

	system, err := domain.NewSystemMessage(finalAnswerSystemPrompt)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUserMessage(fmt.Sprintf(
		`## ユーザーの質問:
%s

## タスクの実行結果:
%s

上記のタスク結果を統合して、ユーザーの質問に対する包括的な回答を生成してください。

**【重要】タスク結果に含まれる【参考情報】セクションのURLは、一字一句完全にコピーしてください。URLの文字を変更・間違えることは絶対禁止です。**`,
		latest.Content, taskResults,
	))
	if err != nil {
		return nil, err
	}

	history := session.Messages
	if len(history) > 0 && history[len(history)-1] == latest {
		history = history[:len(history)-1]
	}

	messages := make([]*domain.Message, 0, len(history)+2)
	messages = append(messages, system)
	messages = append(messages, history...)
	messages = append(messages, user)

	answer, err := f.llm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate final answer: %w", err)
	}

	return domain.NewAssistantMessage(answer)
}
