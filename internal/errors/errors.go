package errors

import (
	"fmt"
)

// Error is the structured error type for fileseek.
// It provides context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_403_QUERY_SYNTAX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CodeOf returns the code of err if it is a structured Error, else "".
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Sentinel errors callers branch on with errors.Is.
// The three search-time conditions are kept distinct so callers can
// present different remediation messages (reindex vs fix the query vs
// report a bug).
var (
	// ErrDuplicateName is returned when an index name is already taken.
	ErrDuplicateName = New(ErrCodeDuplicateName, "index name already exists", nil)

	// ErrIndexNotFound is returned when a catalog lookup misses.
	ErrIndexNotFound = New(ErrCodeIndexNotFound, "index not found", nil)

	// ErrRunInProgress is returned when an index already has an
	// in-flight indexing run.
	ErrRunInProgress = New(ErrCodeRunInProgress, "an indexing run is already in progress for this index", nil)

	// ErrNeedsReindex is returned when the full-text structures are
	// missing or unusable at query time.
	ErrNeedsReindex = New(ErrCodeNeedsReindex, "index database is missing or damaged, re-index required", nil)

	// ErrQuerySyntax is returned when the translated query is rejected
	// by the full-text engine.
	ErrQuerySyntax = New(ErrCodeQuerySyntax, "search query syntax error", nil)

	// ErrEmptyQuery is returned when translation yields no tokens.
	ErrEmptyQuery = New(ErrCodeQueryEmpty, "search query is empty", nil)
)
