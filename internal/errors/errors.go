package errors

import "fmt"

// ErrorCode represents a VeloxClip error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrDuplicateID      ErrorCode = "DUPLICATE_ID"      // 409
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503: backing database missing or uninitialized
	ErrDecodeFailed     ErrorCode = "DECODE_FAILED"     // 500: malformed stored row
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// VeloxError represents a structured error with code, status, and details.
type VeloxError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VeloxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VeloxError {
	return &VeloxError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an item cannot be found.
func NewNotFound(id string) *VeloxError {
	return &VeloxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("item not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewDuplicateID creates a 409 error for identifier collisions.
func NewDuplicateID(id string) *VeloxError {
	return &VeloxError{
		Code:    ErrDuplicateID,
		Status:  409,
		Message: fmt.Sprintf("item with id %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewStoreUnavailable creates a 503 error for a missing or uninitialized
// backing database.
func NewStoreUnavailable(msg string) *VeloxError {
	return &VeloxError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewDecodeFailed creates a 500 error for a stored row that cannot be
// decoded back into an item.
func NewDecodeFailed(id string, err error) *VeloxError {
	msg := "malformed stored row"
	if err != nil {
		msg = err.Error()
	}
	return &VeloxError{
		Code:    ErrDecodeFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"id": id},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VeloxError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VeloxError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VeloxError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VeloxError); ok {
		return vErr.Code == code
	}
	return false
}
