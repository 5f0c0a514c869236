// Package exception provides the custom error type used throughout the
// CallScope bulk engine. It standardizes errors raised during bulk runs so
// that they can be labeled, recorded on a BatchJob, and surfaced to the
// dashboard as data rather than propagated exceptions.
package exception

import (
	"fmt"
	"runtime"
)

// BulkError is a custom error type raised by the bulk engine.
// It carries the module where the error occurred, a concise message, the
// wrapped original error, and the stack trace captured at construction.
type BulkError struct {
	// Module indicates the component where the error occurred
	// (e.g., "executor", "coordinator", "export", "remote").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBulkError creates a new BulkError instance.
//
// module: The component where the error occurred.
// message: The error message.
// originalErr: The original error to wrap, may be nil.
func NewBulkError(module, message string, originalErr error) *BulkError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &BulkError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewBulkErrorf creates a new BulkError using a format string.
// If the last variadic argument is an error it is extracted and wrapped as
// the original error; the remaining arguments feed fmt.Sprintf.
func NewBulkErrorf(module, format string, a ...interface{}) *BulkError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return NewBulkError(module, fmt.Sprintf(format, args...), originalErr)
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of
// the original error.
func (e *BulkError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BulkError) Unwrap() error {
	return e.OriginalErr
}

// IsBulkError determines if the given error is of type BulkError.
func IsBulkError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*BulkError)
	return ok
}

// ExtractErrorMessage extracts the error message string from an error.
// For BulkError it returns the cleaner Message field; otherwise the standard
// Error() string. A nil error yields an empty string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BulkError); ok {
		return be.Message
	}
	return err.Error()
}
