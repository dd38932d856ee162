package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/repository"
)

func TestFeedbackUseCase_Execute(t *testing.T) {
	messageID := uuid.New()

	t.Run("creates feedback on first reaction", func(t *testing.T) {
		feedbacks := repository.NewInMemoryFeedbackRepository()
		uc := NewFeedbackUseCase(feedbacks, testLogger())

		err := uc.Execute(context.Background(), FeedbackInput{
			MessageID:    messageID.String(),
			FeedbackType: "good",
			UserID:       "U456",
		})
		require.NoError(t, err)

		saved, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U456")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, domain.FeedbackGood, saved.Type)
	})

	t.Run("repeating the same reaction is idempotent", func(t *testing.T) {
		feedbacks := repository.NewInMemoryFeedbackRepository()
		uc := NewFeedbackUseCase(feedbacks, testLogger())
		input := FeedbackInput{MessageID: messageID.String(), FeedbackType: "good", UserID: "U456"}

		require.NoError(t, uc.Execute(context.Background(), input))
		first, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U456")
		require.NoError(t, err)

		require.NoError(t, uc.Execute(context.Background(), input))
		second, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U456")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	})

	t.Run("opposite reaction flips the existing row", func(t *testing.T) {
		feedbacks := repository.NewInMemoryFeedbackRepository()
		uc := NewFeedbackUseCase(feedbacks, testLogger())

		require.NoError(t, uc.Execute(context.Background(), FeedbackInput{
			MessageID: messageID.String(), FeedbackType: "good", UserID: "U456",
		}))
		require.NoError(t, uc.Execute(context.Background(), FeedbackInput{
			MessageID: messageID.String(), FeedbackType: "bad", UserID: "U456",
		}))

		saved, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U456")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, domain.FeedbackBad, saved.Type)
	})

	t.Run("users do not share feedback rows", func(t *testing.T) {
		feedbacks := repository.NewInMemoryFeedbackRepository()
		uc := NewFeedbackUseCase(feedbacks, testLogger())

		require.NoError(t, uc.Execute(context.Background(), FeedbackInput{
			MessageID: messageID.String(), FeedbackType: "good", UserID: "U1",
		}))
		require.NoError(t, uc.Execute(context.Background(), FeedbackInput{
			MessageID: messageID.String(), FeedbackType: "bad", UserID: "U2",
		}))

		first, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U1")
		require.NoError(t, err)
		assert.Equal(t, domain.FeedbackGood, first.Type)

		second, err := feedbacks.FindByMessageAndUser(context.Background(), messageID, "U2")
		require.NoError(t, err)
		assert.Equal(t, domain.FeedbackBad, second.Type)
	})

	t.Run("invalid inputs rejected", func(t *testing.T) {
		uc := NewFeedbackUseCase(repository.NewInMemoryFeedbackRepository(), testLogger())

		tests := []struct {
			name  string
			input FeedbackInput
			field string
		}{
			{
				name:  "bad feedback type",
				input: FeedbackInput{MessageID: messageID.String(), FeedbackType: "meh", UserID: "U1"},
				field: "feedback_type",
			},
			{
				name:  "malformed message id",
				input: FeedbackInput{MessageID: "not-a-uuid", FeedbackType: "good", UserID: "U1"},
				field: "message_id",
			},
			{
				name:  "blank user id",
				input: FeedbackInput{MessageID: messageID.String(), FeedbackType: "good", UserID: " "},
				field: "user_id",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := uc.Execute(context.Background(), tt.input)
				var invalid *InvalidInputError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.field, invalid.Field)
			})
		}
	})
}
