package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoidable_Void(t *testing.T) {
	var v Voidable
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	actor := uuid.New()

	require.NoError(t, v.Void(at, "Operation undone by user", actor))
	assert.True(t, v.IsVoided())
	assert.Equal(t, at, *v.VoidedAt)
	assert.Equal(t, actor, *v.VoidedBy)

	err := v.Void(at.Add(time.Minute), "again", actor)
	assert.True(t, errors.Is(err, ErrAlreadyVoided))
	assert.Equal(t, at, *v.VoidedAt)
	assert.Equal(t, "Operation undone by user", v.VoidReason)
}
