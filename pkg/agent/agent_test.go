package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

// fakeLLM replays scripted responses and records the prompts it was given.
type fakeLLM struct {
	textResponses       []string
	structuredResponses []string
	err                 error

	generateCalls   [][]*domain.Message
	structuredCalls [][]*domain.Message
	schemas         []llm.Schema
}

func (f *fakeLLM) Generate(_ context.Context, messages []*domain.Message) (string, error) {
	f.generateCalls = append(f.generateCalls, messages)
	if f.err != nil {
		return "", f.err
	}
	response := f.textResponses[0]
	f.textResponses = f.textResponses[1:]
	return response, nil
}

func (f *fakeLLM) GenerateStructured(_ context.Context, messages []*domain.Message, schema llm.Schema) (json.RawMessage, error) {
	f.structuredCalls = append(f.structuredCalls, messages)
	f.schemas = append(f.schemas, schema)
	if f.err != nil {
		return nil, f.err
	}
	response := f.structuredResponses[0]
	f.structuredResponses = f.structuredResponses[1:]
	return json.RawMessage(response), nil
}

func sessionWithQuestion(t *testing.T, question string) *domain.ChatSession {
	t.Helper()
	session := domain.NewChatSession("C1_100.200", "", "U1", "C1")
	_, err := session.AddUserMessage(question)
	require.NoError(t, err)
	return session
}

func TestPlanner_Execute(t *testing.T) {
	t.Run("builds tasks bound to the named agents", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"tasks":[
				{"task_description":"今日の東京の天気を調べる","next_agent":"web_search"},
				{"task_description":"傘の選び方を説明する","next_agent":"general_answer"}
			],"reason":"検索と一般知識に分割"}`,
		}}
		planner := NewPlanner(fake)
		session := sessionWithQuestion(t, "今日の東京の天気は?あと傘の選び方も教えて")

		plan, err := planner.Execute(context.Background(), session)
		require.NoError(t, err)

		require.Len(t, plan.Tasks, 2)
		assert.Equal(t, domain.AgentWebSearch, plan.Tasks[0].Agent)
		assert.Equal(t, domain.AgentGeneralAnswer, plan.Tasks[1].Agent)
		assert.Equal(t, domain.TaskInProgress, plan.Tasks[0].Status)

		latest, _ := session.LastUserMessage()
		assert.Equal(t, latest.ID, plan.MessageID)

		// System prompt first, focus message last.
		prompt := fake.structuredCalls[0]
		assert.Equal(t, domain.RoleSystem, prompt[0].Role)
		assert.Equal(t, domain.RoleSystem, prompt[len(prompt)-1].Role)
		assert.Contains(t, prompt[len(prompt)-1].Content, "【最新のリクエスト】")
	})

	t.Run("unknown agent rejected", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"tasks":[{"task_description":"何かする","next_agent":"calculator"}],"reason":"r"}`,
		}}
		planner := NewPlanner(fake)

		_, err := planner.Execute(context.Background(), sessionWithQuestion(t, "計算して"))
		assert.ErrorIs(t, err, domain.ErrUnknownAgent)
	})

	t.Run("empty task list rejected", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{`{"tasks":[],"reason":"r"}`}}
		planner := NewPlanner(fake)

		_, err := planner.Execute(context.Background(), sessionWithQuestion(t, "質問"))
		assert.ErrorIs(t, err, domain.ErrEmptyTaskList)
	})

	t.Run("session without user message rejected", func(t *testing.T) {
		planner := NewPlanner(&fakeLLM{})
		session := domain.NewChatSession("C1_100.200", "", "U1", "C1")

		_, err := planner.Execute(context.Background(), session)
		assert.ErrorIs(t, err, domain.ErrUserMessageNotFound)
	})
}

func TestQueryGenerator_Execute(t *testing.T) {
	t.Run("caps queries and drops blanks", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"queries":["q1","  ","q2","q3","q4"],"reason":"r"}`,
		}}
		generator := NewQueryGenerator(fake)
		task, err := domain.NewWebSearchTask("東京の天気を調べる")
		require.NoError(t, err)

		queries, err := generator.Execute(context.Background(), task, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"q1", "q2", "q3"}, queries)
	})

	t.Run("prior queries and feedback reach the prompt", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{`{"queries":["new query"],"reason":"r"}`}}
		generator := NewQueryGenerator(fake)
		task, err := domain.NewWebSearchTask("東京の天気を調べる")
		require.NoError(t, err)
		require.NoError(t, task.AddSearchAttempt("東京 天気", []domain.SearchResult{}))

		_, err = generator.Execute(context.Background(), task, "日付を含めてください")
		require.NoError(t, err)

		prompt := fake.structuredCalls[0][1].Content
		assert.Contains(t, prompt, "- 東京 天気")
		assert.Contains(t, prompt, "日付を含めてください")
	})

	t.Run("all-blank query list rejected", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{`{"queries":["  "],"reason":"r"}`}}
		generator := NewQueryGenerator(fake)
		task, err := domain.NewWebSearchTask("何か調べる")
		require.NoError(t, err)

		_, err = generator.Execute(context.Background(), task, "")
		assert.ErrorIs(t, err, domain.ErrEmptySearchQuery)
	})
}

func TestTaskResultGenerator_Execute(t *testing.T) {
	t.Run("completes an in-progress task", func(t *testing.T) {
		fake := &fakeLLM{textResponses: []string{"まとめた結果[0]"}}
		generator := NewTaskResultGenerator(fake)
		task, err := domain.NewWebSearchTask("調べる")
		require.NoError(t, err)
		require.NoError(t, task.AddSearchAttempt("query", []domain.SearchResult{
			{URL: "https://example.com", Title: "Example", Content: "content"},
		}))

		require.NoError(t, generator.Execute(context.Background(), task, "", ""))
		assert.Equal(t, domain.TaskCompleted, task.Status)
		assert.Equal(t, "まとめた結果[0]", task.Result)

		prompt := fake.generateCalls[0][1].Content
		assert.Contains(t, prompt, "https://example.com")
	})

	t.Run("replaces the result of a completed task on retry", func(t *testing.T) {
		fake := &fakeLLM{textResponses: []string{"改善された結果"}}
		generator := NewTaskResultGenerator(fake)
		task, err := domain.NewWebSearchTask("調べる")
		require.NoError(t, err)
		require.NoError(t, task.AddSearchAttempt("query", []domain.SearchResult{}))
		require.NoError(t, task.Complete("前の結果"))

		require.NoError(t, generator.Execute(context.Background(), task, "情報が足りない", "前の結果"))
		assert.Equal(t, "改善された結果", task.Result)

		prompt := fake.generateCalls[0][1].Content
		assert.Contains(t, prompt, "情報が足りない")
		assert.Contains(t, prompt, "前の結果")
	})
}

func TestEvaluator_Execute(t *testing.T) {
	completedTask := func(t *testing.T) *domain.Task {
		t.Helper()
		task, err := domain.NewWebSearchTask("調べる")
		require.NoError(t, err)
		require.NoError(t, task.Complete("結果"))
		return task
	}

	t.Run("satisfactory verdict", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"is_satisfactory":true,"need":null,"reason":"十分","feedback":null}`,
		}}
		evaluation, err := NewEvaluator(fake).Execute(context.Background(), completedTask(t))
		require.NoError(t, err)

		assert.True(t, evaluation.IsSatisfactory)
		assert.Equal(t, domain.NeedNone, evaluation.Need)
	})

	t.Run("needs search", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"is_satisfactory":false,"need":"search","reason":"情報不足","feedback":"別のクエリで"}`,
		}}
		evaluation, err := NewEvaluator(fake).Execute(context.Background(), completedTask(t))
		require.NoError(t, err)

		assert.False(t, evaluation.IsSatisfactory)
		assert.Equal(t, domain.NeedSearch, evaluation.Need)
		assert.Equal(t, "別のクエリで", evaluation.Feedback)
	})

	t.Run("contradictory verdict coerced to unsatisfactory", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"is_satisfactory":true,"need":"generate","reason":"r","feedback":"f"}`,
		}}
		evaluation, err := NewEvaluator(fake).Execute(context.Background(), completedTask(t))
		require.NoError(t, err)

		assert.False(t, evaluation.IsSatisfactory)
		assert.Equal(t, domain.NeedGenerate, evaluation.Need)
	})

	t.Run("unexpected need value rejected", func(t *testing.T) {
		fake := &fakeLLM{structuredResponses: []string{
			`{"is_satisfactory":false,"need":"retry","reason":"r","feedback":null}`,
		}}
		_, err := NewEvaluator(fake).Execute(context.Background(), completedTask(t))
		assert.Error(t, err)
	})

	t.Run("task without result rejected", func(t *testing.T) {
		task, err := domain.NewWebSearchTask("調べる")
		require.NoError(t, err)

		_, err = NewEvaluator(&fakeLLM{}).Execute(context.Background(), task)
		assert.ErrorIs(t, err, domain.ErrTaskResultNotFound)
	})
}

func TestGeneralAnswerer_Execute(t *testing.T) {
	fake := &fakeLLM{textResponses: []string{"こんにちは!お手伝いします。"}}
	answerer := NewGeneralAnswerer(fake)
	session := sessionWithQuestion(t, "こんにちは")
	task, err := domain.NewGeneralAnswerTask("挨拶に応答する")
	require.NoError(t, err)

	require.NoError(t, answerer.Execute(context.Background(), session, task))

	assert.Equal(t, domain.TaskCompleted, task.Status)
	assert.Equal(t, "こんにちは!お手伝いします。", task.Result)
	require.Len(t, task.Log.GenerationAttempts, 1)

	// Conversation history sits between the system prompt and the task prompt.
	prompt := fake.generateCalls[0]
	assert.Equal(t, domain.RoleSystem, prompt[0].Role)
	assert.Equal(t, "こんにちは", prompt[1].Content)
	assert.Contains(t, prompt[len(prompt)-1].Content, "挨拶に応答する")
}

func TestFinalAnswerer_Execute(t *testing.T) {
	t.Run("synthesizes from completed task results", func(t *testing.T) {
		fake := &fakeLLM{textResponses: []string{"*最終回答* です[0]"}}
		answerer := NewFinalAnswerer(fake)
		session := sessionWithQuestion(t, "今日の天気は?")

		task, err := domain.NewWebSearchTask("天気を調べる")
		require.NoError(t, err)
		require.NoError(t, task.Complete("晴れ、最高気温30度[0]"))
		plan, err := domain.NewTaskPlan(uuid.New(), []*domain.Task{task})
		require.NoError(t, err)

		answer, err := answerer.Execute(context.Background(), session, plan)
		require.NoError(t, err)

		assert.Equal(t, domain.RoleAssistant, answer.Role)
		assert.Equal(t, "*最終回答* です[0]", answer.Content)

		// Latest user message is folded into the synthesis prompt, not repeated.
		prompt := fake.generateCalls[0]
		last := prompt[len(prompt)-1].Content
		assert.Contains(t, last, "今日の天気は?")
		assert.Contains(t, last, "晴れ、最高気温30度")
		for _, m := range prompt[1 : len(prompt)-1] {
			assert.NotEqual(t, "今日の天気は?", m.Content)
		}
	})

	t.Run("all tasks failed bubbles up", func(t *testing.T) {
		answerer := NewFinalAnswerer(&fakeLLM{})
		session := sessionWithQuestion(t, "質問")

		task, err := domain.NewWebSearchTask("調べる")
		require.NoError(t, err)
		task.Fail("quota")
		plan, err := domain.NewTaskPlan(uuid.New(), []*domain.Task{task})
		require.NoError(t, err)

		_, err = answerer.Execute(context.Background(), session, plan)
		assert.ErrorIs(t, err, domain.ErrAllTasksFailed)
	})
}
