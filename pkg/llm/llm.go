// Package llm defines the model-client port the agent services talk to.
// Implementations live in subpackages; callers depend only on this interface
// so prompted services can be tested against fakes.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
)

var (
	// ErrNoMessages is returned when a request carries no messages.
	ErrNoMessages = errors.New("llm: messages are required")
	// ErrEmptyCompletion is returned when the provider answers with no content.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrUnsupportedRole is returned for message roles the provider cannot map.
	ErrUnsupportedRole = errors.New("llm: unsupported message role")
)

// Schema describes the JSON shape a structured generation must produce. Raw is
// a complete JSON-schema document, kept as raw bytes so each service owns its
// own schema text.
type Schema struct {
	Name        string
	Description string
	Raw         json.RawMessage
}

// Client is the model port. Generate returns free text; GenerateStructured
// constrains the model to the given schema and returns the raw JSON for the
// caller to decode and validate.
type Client interface {
	Generate(ctx context.Context, messages []*domain.Message) (string, error)
	GenerateStructured(ctx context.Context, messages []*domain.Message, schema Schema) (json.RawMessage, error)
}

// Error wraps a provider failure with the operation that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
