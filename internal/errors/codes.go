// Package errors provides structured error handling for corpusexplorer.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index and corpus I/O errors
//   - 4XX: Request validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index and corpus file I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates malformed or incomplete request input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a contained failure of one unit of work.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigNotFound = "ERR_102_CONFIG_NOT_FOUND"

	// IO errors (200-299)
	ErrCodeIndexAccess  = "ERR_201_INDEX_ACCESS"
	ErrCodeDocumentRead = "ERR_202_DOCUMENT_READ"
	ErrCodeIngestFile   = "ERR_203_INGEST_FILE"
	ErrCodeIndexLocked  = "ERR_204_INDEX_LOCKED"

	// Validation errors (400-499)
	ErrCodeParse            = "ERR_401_PARSE"
	ErrCodeMissingParameter = "ERR_402_MISSING_PARAMETER"
	ErrCodeNotFound         = "ERR_403_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_INVALID")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeConfigNotFound, ErrCodeIndexLocked:
		return SeverityFatal
	case ErrCodeDocumentRead, ErrCodeIngestFile:
		// Contained to one document or one file; the batch continues.
		return SeverityWarning
	default:
		return SeverityError
	}
}
