package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP statuses.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. Mapped to 403.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// ServiceError wraps an unexpected failure with the operation it happened in.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{Service: service, Operation: operation, Message: message, Err: err}
}
