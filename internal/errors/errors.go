package errors

import (
	"errors"
	"fmt"
)

// CorpusError is the structured error type for corpusexplorer.
// It provides context for error handling, logging, and the error payloads
// returned to search clients.
type CorpusError struct {
	// Code is the unique error code (e.g., "ERR_401_PARSE").
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

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CorpusError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CorpusError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *CorpusError) Is(target error) bool {
	if t, ok := target.(*CorpusError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *CorpusError) WithDetail(key, value string) *CorpusError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CorpusError) WithSuggestion(suggestion string) *CorpusError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CorpusError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *CorpusError {
	return &CorpusError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a CorpusError from an existing error.
// The error's message becomes the CorpusError message.
func Wrap(code string, err error) *CorpusError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error. Configuration errors are fatal.
func ConfigError(message string, cause error) *CorpusError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ParseError creates an error for a malformed request parameter.
func ParseError(parameter, value string, cause error) *CorpusError {
	msg := fmt.Sprintf("Malformed URL parameter %s: %q", parameter, value)
	return New(ErrCodeParse, msg, cause).WithDetail("parameter", parameter)
}

// MissingParameter creates an error for a required request parameter that is absent.
func MissingParameter(parameter string) *CorpusError {
	return New(ErrCodeMissingParameter, "Missing URL parameter: "+parameter, nil).
		WithDetail("parameter", parameter)
}

// NotFound creates an error for a document lookup that matched nothing.
func NotFound(message string) *CorpusError {
	return New(ErrCodeNotFound, message, nil)
}

// IndexAccess creates an error for a failure opening or querying the index.
// The cause's text is part of the message returned to clients.
func IndexAccess(message string, cause error) *CorpusError {
	if cause != nil {
		message += ": " + cause.Error()
	}
	return New(ErrCodeIndexAccess, message, cause)
}

// DocumentRead creates an error for a failure materializing one stored document.
func DocumentRead(id string, cause error) *CorpusError {
	return New(ErrCodeDocumentRead, "failed to read stored document "+id, cause).
		WithDetail("id", id)
}

// IngestFile creates an error for a failure reading or parsing one corpus file.
func IngestFile(path string, cause error) *CorpusError {
	msg := "failed to ingest " + path
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return New(ErrCodeIngestFile, msg, cause).WithDetail("file", path)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CorpusError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current run.
func IsFatal(err error) bool {
	var ce *CorpusError
	if errors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// IsUserError reports whether the error was caused by request input rather
// than by the index or the process.
func IsUserError(err error) bool {
	return GetCategory(err) == CategoryValidation
}

// GetCode extracts the error code from a CorpusError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ce *CorpusError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CorpusError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var ce *CorpusError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
