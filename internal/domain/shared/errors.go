package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so errors.Is matches
// a detailed error against its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConflict            = "CONFLICT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvalidOperation    = "INVALID_OPERATION"
	CodeAlreadyVoided       = "ALREADY_VOIDED"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeCannotUndo          = "CANNOT_UNDO"
	CodeNoUndoableAction    = "NO_UNDOABLE_ACTION"

	// Field-level rejections raised by constructors
	CodeInvalidCode     = "INVALID_CODE"
	CodeInvalidName     = "INVALID_NAME"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeInvalidCost     = "INVALID_COST"
	CodeInvalidPrice    = "INVALID_PRICE"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Validation failed")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConflict            = NewDomainError(CodeConflict, "Another operation on this resource is in progress")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidOperation    = NewDomainError(CodeInvalidOperation, "Operation not allowed")
	ErrAlreadyVoided       = NewDomainError(CodeAlreadyVoided, "Record is already voided")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInsufficientBalance = NewDomainError(CodeInsufficientBalance, "Insufficient balance available")
	ErrCannotUndo          = NewDomainError(CodeCannotUndo, "The last action can no longer be undone")
	ErrNoUndoableAction    = NewDomainError(CodeNoUndoableAction, "There is no action to undo")
)

// NewValidationError builds a VALIDATION_ERROR with a formatted message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewCannotUndoError builds a CANNOT_UNDO error carrying the user-facing reason.
func NewCannotUndoError(format string, args ...any) *DomainError {
	return NewDomainError(CodeCannotUndo, fmt.Sprintf(format, args...))
}

// NotFoundError builds a NOT_FOUND error naming the missing resource.
func NotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}
