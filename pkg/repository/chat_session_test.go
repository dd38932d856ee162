package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/repository"
	"github.com/soba-ai/soba/test/util"
)

func buildSession(t *testing.T) *domain.ChatSession {
	t.Helper()
	session := domain.NewChatSession("C123_1700000000.000100", "1700000000.000100", "U456", "C123")

	userMsg, err := session.AddUserMessage("今日の東京の天気は?")
	require.NoError(t, err)

	webTask, err := domain.NewWebSearchTask("東京の天気を調べる")
	require.NoError(t, err)
	require.NoError(t, webTask.AddSearchAttempt("東京 天気 今日", []domain.SearchResult{
		{URL: "https://weather.example/tokyo", Title: "東京の天気", Content: "晴れ時々曇り"},
	}))
	require.NoError(t, webTask.Complete("晴れ時々曇り、最高気温30度[0]"))

	generalTask, err := domain.NewGeneralAnswerTask("傘の必要性を判断する")
	require.NoError(t, err)
	require.NoError(t, generalTask.AddGenerationAttempt("傘は不要でしょう"))
	require.NoError(t, generalTask.Complete("傘は不要でしょう"))

	plan, err := domain.NewTaskPlan(userMsg.ID, []*domain.Task{webTask, generalTask})
	require.NoError(t, err)
	require.NoError(t, session.AddTaskPlan(plan))

	_, err = session.AddAssistantMessage("*晴れ時々曇り*です。傘は不要でしょう[0]")
	require.NoError(t, err)

	return session
}

func TestPostgresChatSessionRepository_SaveAndFind(t *testing.T) {
	db := util.SetupTestDatabase(t)
	repo := repository.NewPostgresChatSessionRepository(db)
	ctx := context.Background()

	session := buildSession(t)
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, session.ThreadID, loaded.ThreadID)
	assert.Equal(t, session.UserID, loaded.UserID)
	assert.Equal(t, session.ChannelID, loaded.ChannelID)

	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, session.Messages[0].ID, loaded.Messages[0].ID)
	assert.Equal(t, domain.RoleUser, loaded.Messages[0].Role)
	assert.Equal(t, session.Messages[0].Content, loaded.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, loaded.Messages[1].Role)
	assert.WithinDuration(t, session.Messages[0].CreatedAt, loaded.Messages[0].CreatedAt, time.Millisecond)

	require.Len(t, loaded.TaskPlans, 1)
	plan := loaded.TaskPlans[0]
	assert.Equal(t, session.TaskPlans[0].ID, plan.ID)
	assert.Equal(t, session.Messages[0].ID, plan.MessageID)

	require.Len(t, plan.Tasks, 2)
	webTask := plan.TaskByID(session.TaskPlans[0].Tasks[0].ID)
	require.NotNil(t, webTask)
	assert.Equal(t, domain.AgentWebSearch, webTask.Agent)
	assert.Equal(t, domain.TaskCompleted, webTask.Status)
	assert.Equal(t, "晴れ時々曇り、最高気温30度[0]", webTask.Result)
	require.NotNil(t, webTask.CompletedAt)
	require.Len(t, webTask.Log.SearchAttempts, 1)
	assert.Equal(t, "東京 天気 今日", webTask.Log.SearchAttempts[0].Query)
	require.Len(t, webTask.Log.SearchAttempts[0].Results, 1)
	assert.Equal(t, "https://weather.example/tokyo", webTask.Log.SearchAttempts[0].Results[0].URL)

	generalTask := plan.TaskByID(session.TaskPlans[0].Tasks[1].ID)
	require.NotNil(t, generalTask)
	assert.Equal(t, domain.AgentGeneralAnswer, generalTask.Agent)
	require.Len(t, generalTask.Log.GenerationAttempts, 1)
	assert.Equal(t, "傘は不要でしょう", generalTask.Log.GenerationAttempts[0].Response)
}

func TestPostgresChatSessionRepository_FindMissing(t *testing.T) {
	db := util.SetupTestDatabase(t)
	repo := repository.NewPostgresChatSessionRepository(db)

	loaded, err := repo.FindByID(context.Background(), "C999_does_not_exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestPostgresChatSessionRepository_ResaveIsIdempotent(t *testing.T) {
	db := util.SetupTestDatabase(t)
	repo := repository.NewPostgresChatSessionRepository(db)
	ctx := context.Background()

	session := buildSession(t)
	require.NoError(t, repo.Save(ctx, session))

	// Another turn: new user message, then save the whole aggregate again.
	_, err := session.AddUserMessage("明日はどう?")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Len(t, loaded.Messages, 3)
	assert.Len(t, loaded.TaskPlans, 1)
	assert.Len(t, loaded.TaskPlans[0].Tasks, 2)
}

func TestPostgresChatSessionRepository_MessageOrdering(t *testing.T) {
	db := util.SetupTestDatabase(t)
	repo := repository.NewPostgresChatSessionRepository(db)
	ctx := context.Background()

	session := domain.NewChatSession("C1_1.2", "", "U1", "C1")
	contents := []string{"最初", "2番目", "3番目"}
	for _, content := range contents {
		_, err := session.AddUserMessage(content)
		require.NoError(t, err)
		// created_at must strictly increase for deterministic ordering.
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 3)
	for i, content := range contents {
		assert.Equal(t, content, loaded.Messages[i].Content)
	}
}

func TestPostgresFeedbackRepository(t *testing.T) {
	db := util.SetupTestDatabase(t)
	sessions := repository.NewPostgresChatSessionRepository(db)
	feedbacks := repository.NewPostgresFeedbackRepository(db)
	ctx := context.Background()

	session := buildSession(t)
	require.NoError(t, sessions.Save(ctx, session))
	assistantMsg, ok := session.LastAssistantMessage()
	require.True(t, ok)

	t.Run("missing feedback is nil", func(t *testing.T) {
		found, err := feedbacks.FindByMessageAndUser(ctx, assistantMsg.ID, "U456")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("save and reload", func(t *testing.T) {
		fb := domain.NewPositiveFeedback("U456", assistantMsg.ID)
		require.NoError(t, feedbacks.Save(ctx, fb))

		found, err := feedbacks.FindByMessageAndUser(ctx, assistantMsg.ID, "U456")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, fb.ID, found.ID)
		assert.Equal(t, domain.FeedbackGood, found.Type)
	})

	t.Run("polarity change updates the same row", func(t *testing.T) {
		found, err := feedbacks.FindByMessageAndUser(ctx, assistantMsg.ID, "U456")
		require.NoError(t, err)
		require.NotNil(t, found)

		found.MakeNegative()
		require.NoError(t, feedbacks.Save(ctx, found))

		reloaded, err := feedbacks.FindByMessageAndUser(ctx, assistantMsg.ID, "U456")
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.Equal(t, found.ID, reloaded.ID)
		assert.Equal(t, domain.FeedbackBad, reloaded.Type)
	})
}
