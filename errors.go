package trafficlight

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions of a traffic light
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Light is already cycling
	ErrCodeAlreadyStarted
	// Light was never started
	ErrCodeNotStarted
	// Light has been stopped
	ErrCodeStopped
	// Configuration is invalid
	ErrCodeInvalidConfiguration
)

// String returns a short name for the code
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeAlreadyStarted:
		return "already_started"
	case ErrCodeNotStarted:
		return "not_started"
	case ErrCodeStopped:
		return "stopped"
	case ErrCodeInvalidConfiguration:
		return "invalid_configuration"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// ControllerError represents misuse of the traffic light lifecycle
type ControllerError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("traffic light error during %s: %s", e.Operation, e.Message)
}

// NewControllerError creates a new controller error
func NewControllerError(code ErrorCode, operation string, message string) *ControllerError {
	return &ControllerError{
		Code:      code,
		Operation: operation,
		Message:   message,
	}
}

// NewAlreadyStartedError creates an error for a second Start or Simulate call
func NewAlreadyStartedError(operation string) *ControllerError {
	return NewControllerError(ErrCodeAlreadyStarted, operation, "traffic light is already cycling")
}

// NewNotStartedError creates an error for operations that need a started light
func NewNotStartedError(operation string) *ControllerError {
	return NewControllerError(ErrCodeNotStarted, operation, "traffic light is not started")
}

// NewStoppedError creates an error for operations on a stopped light
func NewStoppedError(operation string) *ControllerError {
	return NewControllerError(ErrCodeStopped, operation, "traffic light is stopped")
}

// ConfigurationError represents an invalid configuration value
type ConfigurationError struct {
	Field string
	Issue string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Issue)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, issue string) *ConfigurationError {
	return &ConfigurationError{
		Field: field,
		Issue: issue,
	}
}

// IsControllerError checks if err is or wraps a ControllerError
func IsControllerError(err error) bool {
	var target *ControllerError
	return errors.As(err, &target)
}

// IsConfigurationError checks if err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var controllerErr *ControllerError
	if errors.As(err, &controllerErr) {
		return controllerErr.Code
	}
	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return ErrCodeInvalidConfiguration
	}
	return ErrCodeNone
}
