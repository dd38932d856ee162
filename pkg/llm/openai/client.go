// Package openai provides an llm.Client backed by the OpenAI Chat Completions
// API via github.com/sashabaranov/go-openai. Structured generations use the
// strict json_schema response format so the model cannot drift from the
// requested shape.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/llm"
)

// ChatClient captures the subset of the go-openai client the adapter uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (
		openai.ChatCompletionResponse, error)
}

// Options configures the adapter.
type Options struct {
	Client      ChatClient
	Model       string
	Temperature float32
}

// Client implements llm.Client against the Chat Completions API.
type Client struct {
	chat        ChatClient
	model       string
	temperature float32
}

// New builds an adapter from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	return &Client{chat: opts.Client, model: opts.Model, temperature: opts.Temperature}, nil
}

// NewFromAPIKey constructs a client using the default go-openai HTTP client.
func NewFromAPIKey(apiKey, model string, temperature float32) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	return New(Options{Client: openai.NewClient(apiKey), Model: model, Temperature: temperature})
}

// Generate renders a free-text completion.
func (c *Client) Generate(ctx context.Context, messages []*domain.Message) (string, error) {
	request, err := c.buildRequest(messages)
	if err != nil {
		return "", err
	}
	content, err := c.complete(ctx, "generate", request)
	if err != nil {
		return "", err
	}
	return content, nil
}

// GenerateStructured renders a completion constrained to the given JSON
// schema and returns the raw JSON document.
func (c *Client) GenerateStructured(ctx context.Context, messages []*domain.Message, schema llm.Schema) (json.RawMessage, error) {
	request, err := c.buildRequest(messages)
	if err != nil {
		return nil, err
	}
	request.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      schema.Raw,
			Strict:      true,
		},
	}
	content, err := c.complete(ctx, "generate_structured", request)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(content)) {
		return nil, &llm.Error{Op: "generate_structured", Err: fmt.Errorf("invalid JSON in completion: %q", content)}
	}
	return json.RawMessage(content), nil
}

func (c *Client) buildRequest(messages []*domain.Message) (openai.ChatCompletionRequest, error) {
	if len(messages) == 0 {
		return openai.ChatCompletionRequest{}, llm.ErrNoMessages
	}
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role, err := convertRole(m.Role)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		converted = append(converted, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: c.temperature,
	}, nil
}

func (c *Client) complete(ctx context.Context, op string, request openai.ChatCompletionRequest) (string, error) {
	response, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", &llm.Error{Op: op, Err: err}
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", &llm.Error{Op: op, Err: llm.ErrEmptyCompletion}
	}
	return response.Choices[0].Message.Content, nil
}

func convertRole(role domain.Role) (string, error) {
	switch role {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem, nil
	case domain.RoleUser:
		return openai.ChatMessageRoleUser, nil
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: %q", llm.ErrUnsupportedRole, role)
	}
}
