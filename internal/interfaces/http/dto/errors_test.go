package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pyme/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInvalidInput, http.StatusBadRequest},
		{shared.CodeInvalidQuantity, http.StatusBadRequest},
		{shared.CodeInvalidName, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientBalance, http.StatusUnprocessableEntity},
		{shared.CodeInvalidOperation, http.StatusUnprocessableEntity},
		{shared.CodeAlreadyVoided, http.StatusUnprocessableEntity},
		{shared.CodeCannotUndo, http.StatusUnprocessableEntity},
		{shared.CodeNoUndoableAction, http.StatusUnprocessableEntity},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_JSONShape(t *testing.T) {
	body, err := json.Marshal(NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "customer_id", Message: "This field is required"},
	}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "customer_id", "message": "This field is required"}]
		}
	}`, string(body))
}

func TestSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 2, 20)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, &Meta{Count: 2, Limit: 20}, resp.Meta)
}
