package purchasing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewPurchase(t *testing.T) {
	now := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	flour := inventory.RawMaterialRef(uuid.New())
	freightTotal := d("1500")

	p, err := NewPurchase(uuid.New(), now, []LineInput{
		{Item: &flour, Quantity: d("25"), UnitPrice: d("120.5")},
		{Item: &flour, Quantity: d("5"), UnitPrice: d("118")},
		{Description: "Flete", Quantity: d("1"), UnitPrice: d("0"), LineTotal: &freightTotal},
	}, uuid.New(), now)
	require.NoError(t, err)

	assert.True(t, p.Lines[0].Subtotal.Equal(d("3012.5")))
	assert.True(t, p.Lines[2].Subtotal.Equal(d("1500")))
	assert.True(t, p.Total.Equal(d("5102.5")))
	assert.Equal(t, []inventory.StockItemRef{flour}, p.StockItems())
}

func TestNewPurchase_Validation(t *testing.T) {
	now := time.Now()
	item := inventory.ProductRef(uuid.New())

	_, err := NewPurchase(uuid.Nil, now, []LineInput{{Item: &item, Quantity: d("1")}}, uuid.New(), now)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = NewPurchase(uuid.New(), now, []LineInput{{Item: &item, Quantity: d("0"), UnitPrice: d("1")}}, uuid.New(), now)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = NewPurchase(uuid.New(), now, []LineInput{{Quantity: d("1"), UnitPrice: d("1")}}, uuid.New(), now)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestPurchase_VoidTwice(t *testing.T) {
	now := time.Now()
	item := inventory.ProductRef(uuid.New())
	p, err := NewPurchase(uuid.New(), now, []LineInput{{Item: &item, Quantity: d("1"), UnitPrice: d("1")}}, uuid.New(), now)
	require.NoError(t, err)

	require.NoError(t, p.VoidPurchase(now, "Operation undone by user", uuid.New()))
	assert.True(t, errors.Is(p.VoidPurchase(now, "again", uuid.New()), shared.ErrAlreadyVoided))
}
