package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Keys of the error payload returned to search clients.
const (
	PayloadParseError = "parseError"
	PayloadException  = "exception"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var ce *CorpusError
	if !errors.As(err, &ce) {
		ce = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ce.Message))
	if ce.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ce.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ce.Code))

	return sb.String()
}

// Payload renders the structured error payload for a search response:
// {"parseError": msg} for request problems and {"exception": msg} for
// everything else. The message is the error text without the code prefix.
func Payload(err error) []byte {
	if err == nil {
		return []byte("{}")
	}

	key := PayloadException
	msg := err.Error()
	var ce *CorpusError
	if errors.As(err, &ce) {
		msg = ce.Message
		if ce.Category == CategoryValidation && ce.Code != ErrCodeNotFound {
			key = PayloadParseError
		}
	}

	// A map of strings always marshals.
	data, _ := json.Marshal(map[string]string{key: msg})
	return data
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var ce *CorpusError
	if !errors.As(err, &ce) {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": ce.Code,
		"message":    ce.Message,
		"category":   string(ce.Category),
		"severity":   string(ce.Severity),
	}

	if ce.Cause != nil {
		result["cause"] = ce.Cause.Error()
	}

	for k, v := range ce.Details {
		result["detail_"+k] = v
	}

	return result
}
