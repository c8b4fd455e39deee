package types

import (
	"errors"
	"fmt"
)

// ErrorType categorizes domain errors per the handling policy: validation
// and transition errors are handled at the attempted operation, storage
// failures propagate to the initiating view, not-found surfaces only when it
// blocks an explicit user action.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeTransition    ErrorType = "transition"
	ErrorTypeAuthorization ErrorType = "authorization"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeInternal      ErrorType = "internal"
)

// ClinicError is the structured error for all rejected operations. Message
// is human-readable and names the rule that blocked the operation.
type ClinicError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *ClinicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ClinicError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error.
func NewValidationError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{Type: ErrorTypeValidation, Code: code, Message: message, Details: details}
}

// NewTransitionError creates the rejection for a status change not permitted
// by the capability table, naming the current and requested status.
func NewTransitionError(from, to AppointmentStatus, role string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeTransition,
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("não é possível alterar de %q para %q", from, to),
		Details: map[string]interface{}{
			"current_status":   string(from),
			"requested_status": string(to),
			"role":             role,
		},
	}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(code, message string) *ClinicError {
	return &ClinicError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewStorageError wraps a rejected write from the persistence medium.
func NewStorageError(message string, cause error) *ClinicError {
	return &ClinicError{Type: ErrorTypeStorage, Code: ErrCodeStorageWrite, Message: message, Cause: cause}
}

// NewAuthorizationError creates a new authorization error.
func NewAuthorizationError(code, message string) *ClinicError {
	return &ClinicError{Type: ErrorTypeAuthorization, Code: code, Message: message}
}

// NewInternalError creates a new internal error.
func NewInternalError(code, message string, cause error) *ClinicError {
	return &ClinicError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// IsErrorType reports whether err is a ClinicError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var ce *ClinicError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// Common error codes
const (
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidDate       = "INVALID_DATE"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeStorageWrite      = "STORAGE_WRITE_FAILED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeOutOfStock        = "OUT_OF_STOCK"
	ErrCodeResultRequired    = "RESULT_REQUIRED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)
