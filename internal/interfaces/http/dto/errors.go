package dto

import (
	"net/http"

	"github.com/pyme/backend/internal/domain/shared"
)

// Transport error codes. Domain errors keep their own codes.
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,

	// Bad input -> 400
	shared.CodeValidation:      http.StatusBadRequest,
	shared.CodeInvalidInput:    http.StatusBadRequest,
	shared.CodeInvalidCode:     http.StatusBadRequest,
	shared.CodeInvalidName:     http.StatusBadRequest,
	shared.CodeInvalidQuantity: http.StatusBadRequest,
	shared.CodeInvalidCost:     http.StatusBadRequest,
	shared.CodeInvalidPrice:    http.StatusBadRequest,

	shared.CodeUnauthorized: http.StatusForbidden,
	shared.CodeNotFound:     http.StatusNotFound,

	// Someone else got there first -> 409
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConflict:            http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	// Business rules -> 422
	shared.CodeInvalidState:        http.StatusUnprocessableEntity,
	shared.CodeInvalidOperation:    http.StatusUnprocessableEntity,
	shared.CodeAlreadyVoided:       http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeInsufficientBalance: http.StatusUnprocessableEntity,
	shared.CodeCannotUndo:          http.StatusUnprocessableEntity,
	shared.CodeNoUndoableAction:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
