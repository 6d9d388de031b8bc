package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes returned in the "error" field of API error bodies.
const (
	CodeValidation = "validation_error"
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeInternal   = "internal_error"
)

// Common application errors
var (
	ErrNotFound = NewNotFoundError("resource", "")
	ErrConflict = NewConflictError("resource", "")
	ErrInternal = NewInternalError("internal server error", nil)
)

// AppError is implemented by every error type in this package.
type AppError interface {
	error
	StatusCode() int
	Code() string
	GRPCStatus() *status.Status
}

// ValidationError represents a payload that violates one or more field constraints.
// Message is the primary human-readable message, Details lists every violation.
type ValidationError struct {
	Message string
	Details []string
}

// NewValidationError creates a new validation error. When message is empty the
// first detail becomes the primary message.
func NewValidationError(message string, details ...string) *ValidationError {
	if message == "" && len(details) > 0 {
		message = details[0]
	}
	if message == "" {
		message = "validation failed"
	}
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ValidationError) Code() string    { return CodeValidation }

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// BadRequestError represents a malformed identifier or query parameter.
type BadRequestError struct {
	Message string
	Details []string
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *BadRequestError {
	return &BadRequestError{
		Message: message,
		Details: details,
	}
}

// Error implements the error interface
func (e *BadRequestError) Error() string {
	return e.Message
}

func (e *BadRequestError) StatusCode() int { return http.StatusBadRequest }
func (e *BadRequestError) Code() string    { return CodeBadRequest }

// GRPCStatus returns the gRPC status for this error
func (e *BadRequestError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }
func (e *NotFoundError) Code() string    { return CodeNotFound }

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// ConflictError represents a write that would break a uniqueness invariant.
type ConflictError struct {
	Resource string
	Message  string
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) StatusCode() int { return http.StatusConflict }
func (e *ConflictError) Code() string    { return CodeConflict }

// GRPCStatus returns the gRPC status for this error
func (e *ConflictError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Error())
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) StatusCode() int { return http.StatusInternalServerError }
func (e *InternalError) Code() string    { return CodeInternal }

// GRPCStatus returns the gRPC status for this error. The wrapped cause is not exposed.
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}
