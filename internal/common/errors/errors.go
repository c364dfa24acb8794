// Package errors provides the standardized error taxonomy for the grant engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Business errors, never retried automatically.
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeBudgetExceeded         ErrorCode = "BUDGET_EXCEEDED"
	ErrCodeBudgetWarning          ErrorCode = "BUDGET_WARNING"
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeSerializationFailed    ErrorCode = "SERIALIZATION_FAILED"

	// Infrastructure errors.
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeAuditWriteFailed ErrorCode = "AUDIT_WRITE_FAILED"

	// External oracle errors.
	ErrCodeOracleCallFailed  ErrorCode = "ORACLE_CALL_FAILED"
	ErrCodeOracleTimeout     ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleBadResponse ErrorCode = "ORACLE_BAD_RESPONSE"

	// Notification errors.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// FieldError carries field-level validation detail for callers.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable validation error with optional
// field-level detail.
func NewValidationError(details string, fields []FieldError) *StandardError {
	e := &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	if len(fields) > 0 {
		e.Metadata = map[string]interface{}{"fields": fields}
	}
	return e
}

// NewBudgetExceededError creates a non-retryable allocation-invariant error.
func NewBudgetExceededError(totalAllocated, totalBudget float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeBudgetExceeded,
		Message:   "Category allocations exceed the total budget",
		Details:   fmt.Sprintf("totalAllocated: %.2f, totalBudget: %.2f", totalAllocated, totalBudget),
		Retryable: false,
		Metadata: map[string]interface{}{
			"totalAllocated": totalAllocated,
			"totalBudget":    totalBudget,
			"remaining":      totalBudget - totalAllocated,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewBudgetWarningError creates the confirmable approval warning. It travels
// on the error channel but is a warning, not a failure: the caller may retry
// the same transition with an explicit confirmation flag.
func NewBudgetWarningError(message, categoryID string, requested, remaining float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeBudgetWarning,
		Message:   message,
		Details:   fmt.Sprintf("categoryId: %s, requested: %.2f, remaining: %.2f", categoryID, requested, remaining),
		Retryable: false,
		Metadata: map[string]interface{}{
			"categoryId": categoryID,
			"requested":  requested,
			"remaining":  remaining,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable unknown-entity error.
func NewNotFoundError(entity, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", entity),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStateTransitionError creates a non-retryable lifecycle error.
func NewInvalidStateTransitionError(from, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStateTransition,
		Message:   "Action not permitted in current status",
		Details:   fmt.Sprintf("status: %s, action: %s", from, action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// SerializationKind distinguishes the two failure modes of the persisted
// document contract.
type SerializationKind string

const (
	SerializationKindIdentity SerializationKind = "identity"
	SerializationKindCorrupt  SerializationKind = "corrupt"
)

// NewSerializationError creates a non-retryable persisted-document error.
func NewSerializationError(kind SerializationKind, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSerializationFailed,
		Message:   "Persisted document could not be decoded",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"kind": string(kind)},
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreReadError creates a retryable store read error.
func NewStoreReadError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Store read failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteError creates a retryable store write error.
func NewStoreWriteError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Store write failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteError creates a retryable audit trail error.
func NewAuditWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleCallFailedError creates a retryable oracle transport error.
func NewOracleCallFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleCallFailed,
		Message:   "Oracle call failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleTimeoutError creates a retryable oracle timeout error.
func NewOracleTimeoutError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTimeout,
		Message:   "Oracle call exceeded its deadline",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleBadResponseError creates a non-retryable oracle payload error.
func NewOracleBadResponseError(kind, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleBadResponse,
		Message:   "Oracle returned an unusable response",
		Details:   fmt.Sprintf("kind: %s, %s", kind, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code. Only
// infrastructure and oracle errors are ever retried; business errors are not.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeAuditWriteFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeOracleCallFailed:
		return 3

	case ErrCodeOracleTimeout:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BUDGET"):
		return "BUDGET"
	case strings.Contains(codeStr, "ORACLE"):
		return "ORACLE"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "SERIALIZATION"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "AUDIT"):
		return "AUDIT"
	default:
		return "OTHER"
	}
}

// AsStandard extracts a *StandardError from err, or wraps err as an internal
// non-retryable error so callers always see the standard shape.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the standardized code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	return AsStandard(err).Code
}

// IsCode reports whether err carries the given standardized code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

// IsBudgetWarning reports whether err is the confirmable approval warning.
func IsBudgetWarning(err error) bool {
	return IsCode(err, ErrCodeBudgetWarning)
}
