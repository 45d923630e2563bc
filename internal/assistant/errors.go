package assistant

import (
	"errors"
	"fmt"
)

// Common assistant errors
var (
	// ErrNotInitialized is returned when no API key has been configured for the
	// text generation service.
	ErrNotInitialized = errors.New("text generation service not initialized")

	// ErrNotAuthenticated is returned when the service rejects the API key.
	ErrNotAuthenticated = errors.New("text generation service rejected the credentials")

	// ErrEmptyResponse is returned when the service answers without content.
	ErrEmptyResponse = errors.New("empty response from text generation service")

	// ErrEmptyHistory is returned when a chat request carries no user question.
	ErrEmptyHistory = errors.New("chat history has no user question")
)

// Displayable replies used instead of raw errors.
const (
	FailureMessage        = "Sorry, I encountered an error while processing your request."
	NotInitializedMessage = "The AI assistant is not configured. Please provide an API key first."
	NotAuthorizedMessage  = "The AI service rejected the API key. Please check the key and try again."
	NoOverdueMessage      = "Great news! There are no overdue invoices to focus on this week."
	ChatGreeting          = "Hello! How can I help you with your debtor data today?"
)

// ServiceError wraps errors with context about text generation failures.
type ServiceError struct {
	// Op is the operation that failed (e.g., "CreditSuggestion", "Generate").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("assistant: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("assistant: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewServiceError creates a new ServiceError.
func NewServiceError(op string, err error, details string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapServiceError wraps an error as a ServiceError if it isn't already one.
func WrapServiceError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}

	return NewServiceError(op, err, details)
}

// DisplayMessage converts a generation failure into text fit for the user.
func DisplayMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return NotInitializedMessage
	case errors.Is(err, ErrNotAuthenticated):
		return NotAuthorizedMessage
	}
	return FailureMessage
}
