// Package search defines the web search port used by the web-search agent.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/soba-ai/soba/pkg/domain"
)

// ErrEmptyQuery is returned when a search is attempted with a blank query.
var ErrEmptyQuery = errors.New("search: empty query")

// Client executes one query and returns fetched documents. An empty result
// slice is a valid outcome for obscure queries.
type Client interface {
	Search(ctx context.Context, query string, numResults int) ([]domain.SearchResult, error)
}

// Error wraps a provider failure with the query that caused it.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
