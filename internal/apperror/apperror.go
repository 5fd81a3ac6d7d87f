// Package apperror defines the error codes surfaced by the batch and inventory core.
package apperror

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeAllocationMismatch Code = "ALLOCATION_MISMATCH"
	CodeMissingPhLevel     Code = "MISSING_PH_LEVEL"
	CodeSameLocation       Code = "SAME_LOCATION"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"

	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeBatchNotEditable  Code = "BATCH_NOT_EDITABLE"
	CodeBatchNotDeletable Code = "BATCH_NOT_DELETABLE"
	CodeBatchReleased     Code = "BATCH_RELEASED"

	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
)

// Kind groups codes by how a caller is expected to react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindUnauthorized
	KindNotFound
	KindTransient
)

// Error is a structured core error. Two errors match under errors.Is when their codes match.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the category of the error code.
func (e *Error) Kind() Kind {
	return KindOf(e.Code)
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates an error carrying structured details for the caller.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation          = New(CodeValidation, "validation failed")
	ErrAllocationMismatch  = New(CodeAllocationMismatch, "allocations do not match batch total")
	ErrMissingPhLevel      = New(CodeMissingPhLevel, "ph level is required for pH tests")
	ErrSameLocation        = New(CodeSameLocation, "source and destination locations must differ")
	ErrInsufficientStock   = New(CodeInsufficientStock, "insufficient stock at location")
	ErrInvalidTransition   = New(CodeInvalidTransition, "batch status transition is not allowed")
	ErrBatchNotEditable    = New(CodeBatchNotEditable, "batch can no longer be edited")
	ErrBatchNotDeletable   = New(CodeBatchNotDeletable, "batch can no longer be deleted")
	ErrBatchReleased       = New(CodeBatchReleased, "batch is already released")
	ErrUnauthorized        = New(CodeUnauthorized, "permission denied: manager or above required")
	ErrNotFound            = New(CodeNotFound, "not found")
	ErrConcurrencyConflict = New(CodeConcurrencyConflict, "concurrent update detected, please retry")
)

// Validation reports a malformed or missing input field.
func Validation(field, rule string) *Error {
	return WithMetadata(CodeValidation,
		fmt.Sprintf("validation failed: field '%s' %s", field, rule),
		map[string]string{"Field": field, "Rule": rule})
}

// InvalidTransition reports a disallowed status change, naming both states.
func InvalidTransition(current, requested string) *Error {
	return WithMetadata(CodeInvalidTransition,
		fmt.Sprintf("batch status transition not allowed: %s -> %s", current, requested),
		map[string]string{"CurrentStatus": current, "RequestedStatus": requested})
}

// KindOf maps a code to its kind.
func KindOf(code Code) Kind {
	switch code {
	case CodeValidation, CodeAllocationMismatch, CodeMissingPhLevel, CodeSameLocation, CodeInsufficientStock:
		return KindValidation
	case CodeInvalidTransition, CodeBatchNotEditable, CodeBatchNotDeletable, CodeBatchReleased:
		return KindBusinessRule
	case CodeUnauthorized:
		return KindUnauthorized
	case CodeNotFound:
		return KindNotFound
	case CodeConcurrencyConflict:
		return KindTransient
	default:
		return KindInternal
	}
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
