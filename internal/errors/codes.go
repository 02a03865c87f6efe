// Package errors provides structured error handling for searchd.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index errors
//   - 3XX: Upstream/network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIndex indicates search index errors.
	CategoryIndex Category = "INDEX"
	// CategoryUpstream indicates upstream catalog API errors.
	CategoryUpstream Category = "UPSTREAM"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Index errors (200-299)
	ErrCodeIndexCorrupt = "ERR_201_INDEX_CORRUPT"
	ErrCodeIndexEmpty   = "ERR_202_INDEX_EMPTY"
	ErrCodeIndexClosed  = "ERR_203_INDEX_CLOSED"
	ErrCodeIndexWrite   = "ERR_204_INDEX_WRITE"
	ErrCodeIndexLocked  = "ERR_205_INDEX_LOCKED"

	// Upstream errors (300-399)
	ErrCodeUpstreamTimeout     = "ERR_301_UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable = "ERR_302_UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamStatus      = "ERR_303_UPSTREAM_STATUS"
	ErrCodeSessionExpired      = "ERR_304_SESSION_EXPIRED"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeTermTooShort   = "ERR_402_TERM_TOO_SHORT"
	ErrCodeTermTooLong    = "ERR_403_TERM_TOO_LONG"
	ErrCodeInvalidQuery   = "ERR_404_INVALID_QUERY"
	ErrCodeUnknownDocType = "ERR_405_UNKNOWN_DOC_TYPE"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeDocDecode    = "ERR_503_DOC_DECODE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIndex
	case '3':
		return CategoryUpstream
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Stored documents no longer matching the schema that wrote them is a
	// bug, never a transient condition.
	if code == ErrCodeDocDecode {
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable, ErrCodeUpstreamStatus:
		return true
	default:
		return false
	}
}
