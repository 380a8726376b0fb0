package errors

import (
	"errors"
	"fmt"
)

// Error types for the engine's failure classes
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeOverAllocation    ErrorType = "over_allocation"
	ErrorTypeProtectedDocument ErrorType = "protected_document"
	ErrorTypeIllegalTransition ErrorType = "illegal_transition"
	ErrorTypeAlreadyPosted     ErrorType = "already_posted"
	ErrorTypeNotPosted         ErrorType = "not_posted"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error. Every error the engine
// returns is deterministic and side-effect free: a rejected operation leaves
// the document exactly as it was.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: 400,
	}
}

func NewOverAllocationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeOverAllocation,
		Code:       "OVER_ALLOCATION",
		Message:    message,
		StatusCode: 422,
	}
}

func NewProtectedDocumentError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeProtectedDocument,
		Code:       "PROTECTED_DOCUMENT",
		Message:    message + "; request an approval reset to unlock the document",
		StatusCode: 409,
	}
}

func NewIllegalTransitionError(from, to string) *AppError {
	return &AppError{
		Type:       ErrorTypeIllegalTransition,
		Code:       "ILLEGAL_TRANSITION",
		Message:    fmt.Sprintf("transition from %s to %s is not permitted", from, to),
		StatusCode: 422,
		Details:    map[string]interface{}{"from": from, "to": to},
	}
}

func NewAlreadyPostedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyPosted,
		Code:       "ALREADY_POSTED",
		Message:    message,
		StatusCode: 409,
	}
}

func NewNotPostedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotPosted,
		Code:       "NOT_POSTED",
		Message:    message,
		StatusCode: 409,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: 403,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: 409,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: 500,
	}
}

// Predefined common errors
var (
	ErrDocumentNotFound = NewNotFoundError("document")
	ErrLineItemNotFound = NewNotFoundError("line item")
	ErrPostingNotFound  = NewNotFoundError("posting")
	ErrTaxRateNotFound  = NewNotFoundError("tax rate")
	ErrInvoiceNotFound  = NewNotFoundError("invoice")
	ErrStaleDocument    = NewConflictError("document was modified concurrently; reload and retry")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsProtectedDocument reports whether err is a protected-document rejection
func IsProtectedDocument(err error) bool {
	return IsType(err, ErrorTypeProtectedDocument)
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
