package errors

import (
	"errors"
)

// WrappedError pairs an internal failure with a message that is safe to show
// in the web client. Error() keeps the cause for logs; the HTTP layer shows
// only UserMessage.
type WrappedError struct {
	Op          string // "<module>.<operation>", e.g. "roster.upload_roster"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return e.Op + ": " + e.Cause.Error()
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// Wrapper stamps failures of one operation with a fixed op name.
type Wrapper struct {
	op string
}

// NewWrapper creates a Wrapper for module.operation.
func NewWrapper(module, operation string) Wrapper {
	return Wrapper{op: module + "." + operation}
}

// Wrap attaches userMessage to err. A nil err stays nil.
func (w Wrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{Op: w.op, Cause: err, UserMessage: userMessage}
}

// GetUserMessage returns the user message of the outermost WrappedError in
// err's chain, or err.Error() when there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	return err.Error()
}
