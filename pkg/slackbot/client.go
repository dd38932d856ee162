// Package slackbot adapts Slack Events API traffic to the application use
// cases: mentions and direct messages become answer requests, reactions on
// the bot's replies become feedback.
package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// MessageClient is the subset of Slack Web API calls the handler needs.
type MessageClient interface {
	PostReply(ctx context.Context, channel, threadTS, text string) (string, error)
	AddReaction(ctx context.Context, channel, timestamp, name string) error
	RemoveReaction(ctx context.Context, channel, timestamp, name string) error
}

// Client is a thin wrapper around the slack-go SDK.
type Client struct {
	api    *goslack.Client
	logger *slog.Logger
}

// NewClient creates a Slack API client.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		api:    goslack.New(token),
		logger: logger.With("component", "slack_client"),
	}
}

// NewClientWithAPIURL creates a client that targets a custom API URL.
// Useful for testing with a mock server.
func NewClientWithAPIURL(token, apiURL string, logger *slog.Logger) *Client {
	return &Client{
		api:    goslack.New(token, goslack.OptionAPIURL(apiURL)),
		logger: logger.With("component", "slack_client"),
	}
}

// PostReply posts a threaded reply and returns its timestamp.
func (c *Client) PostReply(ctx context.Context, channel, threadTS, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := []goslack.MsgOption{
		goslack.MsgOptionText(text, false),
	}
	if threadTS != "" {
		opts = append(opts, goslack.MsgOptionTS(threadTS))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return "", fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return ts, nil
}

// AddReaction adds an emoji reaction to the message.
func (c *Client) AddReaction(ctx context.Context, channel, timestamp, name string) error {
	if err := c.api.AddReactionContext(ctx, name, goslack.ItemRef{Channel: channel, Timestamp: timestamp}); err != nil {
		return fmt.Errorf("reactions.add failed: %w", err)
	}
	return nil
}

// RemoveReaction removes an emoji reaction from the message.
func (c *Client) RemoveReaction(ctx context.Context, channel, timestamp, name string) error {
	if err := c.api.RemoveReactionContext(ctx, name, goslack.ItemRef{Channel: channel, Timestamp: timestamp}); err != nil {
		return fmt.Errorf("reactions.remove failed: %w", err)
	}
	return nil
}
