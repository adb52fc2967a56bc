package research

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory lets callers tell external call failures apart.
type ErrorCategory string

const (
	CategoryRateLimited     ErrorCategory = "rate_limited"
	CategoryMalformedOutput ErrorCategory = "malformed_output"
	CategoryUpstream        ErrorCategory = "upstream"
	CategoryInternal        ErrorCategory = "internal"
)

// Sentinels wrapped by collaborators so Classify can categorize their
// failures.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrUpstream        = errors.New("upstream service error")
)

// ErrUnknownOutcome is returned when a clarifier yields a value that is
// neither FollowUpQuestions nor RefinedPrompt.
var ErrUnknownOutcome = errors.New("unknown clarify outcome")

// ExternalCallError is a failed call to an outliner, planner, executor,
// reporter or clarifier.
type ExternalCallError struct {
	Stage    string
	Category ErrorCategory
	Query    string // set for execute failures
	Err      error
}

func (e *ExternalCallError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("%s (%s) %q: %v", e.Stage, e.Category, e.Query, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Category, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// Classify maps err onto one of the four failure categories.
func Classify(err error) ErrorCategory {
	var ext *ExternalCallError
	switch {
	case errors.As(err, &ext):
		return ext.Category
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimited
	case errors.Is(err, ErrMalformedOutput):
		return CategoryMalformedOutput
	case errors.Is(err, ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		return CategoryUpstream
	default:
		return CategoryInternal
	}
}

func externalError(stage string, err error) *ExternalCallError {
	return &ExternalCallError{Stage: stage, Category: Classify(err), Err: err}
}
