// Package usecase holds the application services the adapters call: answering
// a user request end to end, and recording feedback on an answer.
package usecase

import "fmt"

// InvalidInputError reports a request field that failed validation.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Field)
}
