package sales

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	customer := uuid.New()

	t.Run("prices by weight when given and adds tax", func(t *testing.T) {
		inv, err := NewInvoice(customer, day0, true, d("0.21"), []LineInput{
			{ProductID: uuid.New(), Quantity: d("2"), Weight: d("1.5"), UnitPrice: d("100")},
			{ProductID: uuid.New(), Quantity: d("3"), UnitPrice: d("10")},
		}, uuid.New(), day0)
		require.NoError(t, err)

		assert.True(t, inv.Lines[0].Subtotal.Equal(d("150")))
		assert.True(t, inv.Lines[1].Subtotal.Equal(d("30")))
		assert.True(t, inv.Subtotal.Equal(d("180")))
		assert.True(t, inv.Tax.Equal(d("37.8")))
		assert.True(t, inv.Total.Equal(d("217.8")))
		assert.Equal(t, PaymentStatePending, inv.PaymentState)
		assert.True(t, inv.OutstandingBalance().Equal(inv.Total))
		assert.Equal(t, inv.ID, inv.Lines[0].InvoiceID)
	})

	t.Run("rejects empty and invalid lines", func(t *testing.T) {
		_, err := NewInvoice(customer, day0, false, decimal.Zero, nil, uuid.New(), day0)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewInvoice(customer, day0, false, decimal.Zero, []LineInput{{ProductID: uuid.New(), UnitPrice: d("1")}}, uuid.New(), day0)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestInvoice_Void(t *testing.T) {
	inv := newInvoice(t, uuid.New(), 1, day0, "100")
	_, err := ApplyPayment(inv, d("40"), nil, false)
	require.NoError(t, err)

	require.NoError(t, inv.VoidSale(day0, "Operation undone by user", uuid.New()))
	assert.True(t, inv.OutstandingBalance().IsZero())
	assert.True(t, inv.AmountPaid.Equal(d("40")))

	err = inv.VoidSale(day0, "again", uuid.New())
	assert.True(t, errors.Is(err, shared.ErrAlreadyVoided))
}

func TestCustomerPayment(t *testing.T) {
	customer := uuid.New()

	t.Run("validates amount and method", func(t *testing.T) {
		_, err := NewCustomerPayment(customer, nil, decimal.Zero, PaymentMethodCash, day0, "", uuid.New(), day0)
		assert.Error(t, err)
		_, err = NewCustomerPayment(customer, nil, d("1"), "BARTER", day0, "", uuid.New(), day0)
		assert.Error(t, err)
	})

	t.Run("void twice is rejected", func(t *testing.T) {
		p := newPayment(t, customer, nil, "10")
		require.NoError(t, p.VoidPayment(day0, "x", uuid.New()))
		assert.True(t, errors.Is(p.VoidPayment(day0, "x", uuid.New()), shared.ErrAlreadyVoided))
	})

	t.Run("notes accumulate", func(t *testing.T) {
		p := newPayment(t, customer, nil, "10")
		p.AppendNote("first")
		p.AppendNote("second")
		assert.Equal(t, "first\nsecond", p.Notes)
	})
}
