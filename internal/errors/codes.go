// Package errors provides structured error handling for fileseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and storage errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk, and storage errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
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
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	// IO and storage errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeStoreInit    = "ERR_203_STORE_INIT"
	ErrCodeStoreWrite   = "ERR_204_STORE_WRITE"
	ErrCodeCorruptIndex = "ERR_205_CORRUPT_INDEX"
	ErrCodeNeedsReindex = "ERR_206_NEEDS_REINDEX"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeQuerySyntax    = "ERR_403_QUERY_SYNTAX"
	ErrCodeQueryEmpty     = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath    = "ERR_406_INVALID_PATH"
	ErrCodeDuplicateName  = "ERR_407_DUPLICATE_NAME"
	ErrCodeIndexNotFound  = "ERR_408_INDEX_NOT_FOUND"
	ErrCodeRunInProgress  = "ERR_409_RUN_IN_PROGRESS"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "403" from "ERR_403_QUERY_SYNTAX"
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
	case ErrCodeCorruptIndex:
		return SeverityFatal
	case ErrCodeNeedsReindex, ErrCodeQueryEmpty:
		return SeverityWarning
	}
	return SeverityError
}
