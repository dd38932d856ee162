package slackbot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	goslack "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/soba-ai/soba/pkg/usecase"
)

const (
	processingReaction = "eyes"

	systemErrorReply = "システムエラーが発生しました。新しいスレッドで再度お試しください。"

	// Slack retries deliveries for a few minutes; remembering event ids for
	// an hour is more than enough.
	dedupTTL = time.Hour

	// Reactions on replies older than a day are not attributed.
	trackerTTL = 24 * time.Hour
)

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

// AnswerExecutor answers one user request.
type AnswerExecutor interface {
	Execute(ctx context.Context, input usecase.AnswerInput) (*usecase.AnswerOutput, error)
}

// FeedbackExecutor records one feedback reaction.
type FeedbackExecutor interface {
	Execute(ctx context.Context, input usecase.FeedbackInput) error
}

// Handler terminates the Slack Events API endpoint.
type Handler struct {
	answer        AnswerExecutor
	feedback      FeedbackExecutor
	client        MessageClient
	signingSecret string
	botUserID     string
	dedup         *Deduper
	replies       *replyTracker
	logger        *slog.Logger
}

// NewHandler wires the Slack endpoint.
func NewHandler(
	answer AnswerExecutor,
	feedback FeedbackExecutor,
	client MessageClient,
	signingSecret string,
	botUserID string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		answer:        answer,
		feedback:      feedback,
		client:        client,
		signingSecret: signingSecret,
		botUserID:     botUserID,
		dedup:         NewDeduper(dedupTTL),
		replies:       newReplyTracker(trackerTTL),
		logger:        logger.With("component", "slack_handler"),
	}
}

// RegisterRoutes mounts the events endpoint on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/slack/events", h.handleEvents)
}

// handleEvents verifies the request signature, answers URL verification
// inline, and dispatches callback events to a background goroutine so Slack
// gets its acknowledgement within the deadline.
func (h *Handler) handleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	verifier, err := goslack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if err := verifier.Ensure(); err != nil {
		h.logger.Warn("signature verification failed", "error", err)
		c.Status(http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(body, slackevents.OptionNoVerifyToken())
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, challenge.Challenge)
	case slackevents.CallbackEvent:
		go h.dispatch(context.WithoutCancel(c.Request.Context()), event)
		c.Status(http.StatusOK)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) dispatch(ctx context.Context, event slackevents.EventsAPIEvent) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		h.handleUserMessage(ctx, ev.User, ev.BotID, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.Text, ev.EventTimeStamp)
	case *slackevents.MessageEvent:
		// Threaded replies and DMs arrive as plain messages. Bot echoes and
		// edits are filtered below and by SubType.
		if ev.SubType != "" {
			return
		}
		h.handleUserMessage(ctx, ev.User, ev.BotID, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.Text, ev.EventTimeStamp)
	case *slackevents.ReactionAddedEvent:
		h.handleReaction(ctx, ev)
	}
}

// handleUserMessage runs one answer turn for an incoming message.
func (h *Handler) handleUserMessage(ctx context.Context, userID, botID, channel, ts, threadTS, text, eventID string) {
	if botID != "" || userID == "" || userID == h.botUserID {
		return
	}
	if h.dedup.Seen(eventID) {
		h.logger.Debug("duplicate event skipped", "event_id", eventID)
		return
	}

	cleaned := strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		return
	}

	if threadTS == "" {
		threadTS = ts
	}

	if err := h.client.AddReaction(ctx, channel, ts, processingReaction); err != nil {
		h.logger.Warn("adding reaction failed", "error", err)
	}

	output, err := h.answer.Execute(ctx, usecase.AnswerInput{
		UserMessage:    cleaned,
		ConversationID: channel + "_" + threadTS,
		ThreadID:       threadTS,
		UserID:         userID,
		ChannelID:      channel,
	})

	if removeErr := h.client.RemoveReaction(ctx, channel, ts, processingReaction); removeErr != nil {
		h.logger.Warn("removing reaction failed", "error", removeErr)
	}

	if err != nil {
		h.logger.Error("answering failed", "channel", channel, "thread_ts", threadTS, "error", err)
		if _, replyErr := h.client.PostReply(ctx, channel, threadTS, systemErrorReply); replyErr != nil {
			h.logger.Error("posting error reply failed", "error", replyErr)
		}
		return
	}

	replyTS, err := h.client.PostReply(ctx, channel, threadTS, output.Answer)
	if err != nil {
		h.logger.Error("posting reply failed", "error", err)
		return
	}
	h.replies.record(replyTS, output.MessageID)
}

// handleReaction maps +1/-1 reactions on the bot's replies to feedback.
func (h *Handler) handleReaction(ctx context.Context, ev *slackevents.ReactionAddedEvent) {
	var feedbackType string
	switch ev.Reaction {
	case "+1", "thumbsup":
		feedbackType = "good"
	case "-1", "thumbsdown":
		feedbackType = "bad"
	default:
		return
	}

	messageID, ok := h.replies.lookup(ev.Item.Timestamp)
	if !ok {
		return
	}

	err := h.feedback.Execute(ctx, usecase.FeedbackInput{
		MessageID:    messageID.String(),
		FeedbackType: feedbackType,
		UserID:       ev.User,
	})
	if err != nil {
		h.logger.Error("recording feedback failed", "message_id", messageID, "error", err)
	}
}
