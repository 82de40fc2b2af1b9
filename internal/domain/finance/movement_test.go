package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newMovement(t *testing.T, typ MovementType, amount string) *FinancialMovement {
	t.Helper()
	m, err := NewMovement(typ, MovementOriginManual, nil, d(amount), "Compra #1", time.Now(), uuid.New(), time.Now())
	require.NoError(t, err)
	return m
}

func TestFinancialMovement_StateMachine(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		typ      MovementType
		payments []string
		want     MovementState
	}{
		{"expense fully paid", MovementTypeExpense, []string{"100"}, MovementStatePaid},
		{"income fully collected", MovementTypeIncome, []string{"100"}, MovementStateCollected},
		{"partial then settled", MovementTypeExpense, []string{"40", "60"}, MovementStatePaid},
		{"partial only", MovementTypeIncome, []string{"40"}, MovementStatePartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMovement(t, tt.typ, "100")
			for _, p := range tt.payments {
				require.NoError(t, m.RegisterPayment(d(p), "CASH", now))
			}
			assert.Equal(t, tt.want, m.State)
		})
	}
}

func TestFinancialMovement_RegisterPaymentRules(t *testing.T) {
	now := time.Now()

	t.Run("over payment is rejected", func(t *testing.T) {
		m := newMovement(t, MovementTypeExpense, "100")
		err := m.RegisterPayment(d("100.01"), "", now)
		assert.True(t, errors.Is(err, shared.ErrInsufficientBalance))
		assert.Equal(t, MovementStatePending, m.State)
	})

	t.Run("settled movement takes no more payments", func(t *testing.T) {
		m := newMovement(t, MovementTypeIncome, "10")
		require.NoError(t, m.RegisterPayment(d("10"), "", now))
		assert.Error(t, m.RegisterPayment(d("1"), "", now))
	})
}

func TestFinancialMovement_Cancel(t *testing.T) {
	now := time.Now()

	for _, settle := range []bool{false, true} {
		m := newMovement(t, MovementTypeIncome, "50")
		if settle {
			require.NoError(t, m.RegisterPayment(d("50"), "TRANSFER", now))
		}
		require.NoError(t, m.Cancel(now))
		assert.Equal(t, MovementStateCancelled, m.State)
		assert.Equal(t, "Compra #1 [CANCELLED]", m.Description)

		err := m.Cancel(now)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, "Compra #1 [CANCELLED]", m.Description)
		assert.Error(t, m.RegisterPayment(d("1"), "", now))
	}
}
