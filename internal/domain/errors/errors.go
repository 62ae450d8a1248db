package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure domains
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeDelivery   ErrorType = "delivery"
	ErrorTypeEscalation ErrorType = "escalation"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
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
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewExternalError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeExternal,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
	}
}

func NewTimeoutError(operation string) *AppError {
	return &AppError{
		Type:      ErrorTypeTimeout,
		Code:      "OPERATION_TIMEOUT",
		Message:   fmt.Sprintf("%s timed out", operation),
		Retryable: true,
	}
}

func NewDeliveryError(channel, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeDelivery,
		Code:      "DELIVERY_FAILED",
		Message:   message,
		Retryable: true,
		Details:   map[string]interface{}{"channel": channel},
	}
}

func NewEscalationError(tracker, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeEscalation,
		Code:      "ESCALATION_FAILED",
		Message:   message,
		Retryable: true,
		Details:   map[string]interface{}{"tracker": tracker},
	}
}

// Type checks

func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
