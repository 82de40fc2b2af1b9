package inventory

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

func newMaterial(t *testing.T) *RawMaterial {
	t.Helper()
	m, err := NewRawMaterial("HARINA", "Harina 000", "kg", time.Now())
	require.NoError(t, err)
	return m
}

func newProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("JAMON", "Jamon cocido", d("12.50"), time.Now())
	require.NoError(t, err)
	return p
}

func TestReceiveStock(t *testing.T) {
	t.Run("first receipt takes the unit price", func(t *testing.T) {
		m := newMaterial(t)
		require.NoError(t, ReceiveStock(m, d("10"), d("10")))

		assert.True(t, m.Level().Quantity.Equal(d("10")))
		assert.True(t, m.Level().AverageCost.Equal(d("10")))
		assert.Equal(t, 2, m.Version)
	})

	t.Run("later receipt blends into the weighted average", func(t *testing.T) {
		m := newMaterial(t)
		require.NoError(t, ReceiveStock(m, d("10"), d("10")))
		require.NoError(t, ReceiveStock(m, d("10"), d("20")))

		assert.True(t, m.Level().Quantity.Equal(d("20")))
		assert.True(t, m.Level().AverageCost.Equal(d("15")))
	})

	t.Run("average is rounded to four places", func(t *testing.T) {
		m := newMaterial(t)
		require.NoError(t, ReceiveStock(m, d("3"), d("1")))
		require.NoError(t, ReceiveStock(m, d("3"), d("2")))
		require.NoError(t, ReceiveStock(m, d("3"), d("2")))

		assert.Equal(t, "1.6667", m.Level().AverageCost.String())
	})

	t.Run("receipt after the item ran empty restarts the average", func(t *testing.T) {
		m := newMaterial(t)
		require.NoError(t, ReceiveStock(m, d("5"), d("8")))
		require.NoError(t, ConsumeStock(m, Measure{Quantity: d("5")}))
		require.NoError(t, ReceiveStock(m, d("2"), d("30")))

		assert.True(t, m.Level().AverageCost.Equal(d("30")))
	})

	t.Run("rejects non positive quantity and negative price", func(t *testing.T) {
		m := newMaterial(t)
		assert.Error(t, ReceiveStock(m, decimal.Zero, d("1")))
		assert.Error(t, ReceiveStock(m, d("-1"), d("1")))
		assert.Error(t, ReceiveStock(m, d("1"), d("-1")))
		assert.True(t, m.Level().Quantity.IsZero())
	})

	t.Run("weight only on items that track it", func(t *testing.T) {
		m := newMaterial(t)
		err := ReceiveMeasured(m, Measure{Quantity: d("1"), Weight: d("2")}, d("1"))
		assert.True(t, errors.Is(err, shared.ErrValidation))

		p := newProduct(t)
		require.NoError(t, ReceiveMeasured(p, Measure{Quantity: d("4"), Weight: d("10.5")}, d("3")))
		assert.True(t, p.Level().Weight.Equal(d("10.5")))
	})
}

func TestConsumeStock(t *testing.T) {
	t.Run("leaves the average untouched", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, ReceiveMeasured(p, Measure{Quantity: d("10"), Weight: d("25")}, d("7")))
		require.NoError(t, ConsumeStock(p, Measure{Quantity: d("4"), Weight: d("10")}))

		lvl := p.Level()
		assert.True(t, lvl.Quantity.Equal(d("6")))
		assert.True(t, lvl.Weight.Equal(d("15")))
		assert.True(t, lvl.AverageCost.Equal(d("7")))
	})

	t.Run("fails when quantity exceeds on hand", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, ReceiveStock(p, d("2"), d("7")))

		err := ConsumeStock(p, Measure{Quantity: d("3")})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, p.Level().Quantity.Equal(d("2")))
	})

	t.Run("fails when weight exceeds on hand", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, ReceiveMeasured(p, Measure{Quantity: d("2"), Weight: d("1")}, d("7")))

		err := ConsumeStock(p, Measure{Quantity: d("1"), Weight: d("1.5")})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("return puts stock back", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, ReceiveMeasured(p, Measure{Quantity: d("3"), Weight: d("3")}, d("7")))
		require.NoError(t, ConsumeStock(p, Measure{Quantity: d("1"), Weight: d("1.2")}))
		require.NoError(t, ReturnStock(p, Measure{Quantity: d("1"), Weight: d("1.2")}))

		assert.True(t, p.Level().Quantity.Equal(d("3")))
		assert.True(t, p.Level().Weight.Equal(d("3")))
	})
}

func TestReverseReceipt(t *testing.T) {
	t.Run("restores the snapshot taken before the receipt", func(t *testing.T) {
		m := newMaterial(t)
		require.NoError(t, ReceiveStock(m, d("10"), d("10")))
		before := m.Level()
		require.NoError(t, ReceiveStock(m, d("30"), d("14")))
		require.False(t, m.Level().AverageCost.Equal(before.AverageCost))

		require.NoError(t, ReverseReceipt(m, Measure{Quantity: d("30")}, before))
		assert.True(t, m.Level().Quantity.Equal(before.Quantity))
		assert.True(t, m.Level().AverageCost.Equal(before.AverageCost))
	})

	t.Run("fails when the receipt was already consumed", func(t *testing.T) {
		m := newMaterial(t)
		before := m.Level()
		require.NoError(t, ReceiveStock(m, d("5"), d("10")))
		require.NoError(t, ConsumeStock(m, Measure{Quantity: d("4")}))

		err := ReverseReceipt(m, Measure{Quantity: d("5")}, before)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, m.Level().Quantity.Equal(d("1")))
	})
}

func TestSupplierReceipt(t *testing.T) {
	supplierID := uuid.New()
	item := RawMaterialRef(uuid.New())
	lot := NewSupplierStockLot(item, supplierID, time.Now())
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, RecordSupplierReceipt(lot, d("10"), d("10"), first))

	snap := lot.Snapshot(true)
	second := first.AddDate(0, 0, 7)
	require.NoError(t, RecordSupplierReceipt(lot, d("10"), d("20"), second))
	assert.True(t, lot.Level().AverageCost.Equal(d("15")))
	assert.True(t, lot.TotalPurchased.Equal(d("20")))
	assert.Equal(t, second, *lot.LastPurchaseAt)

	require.NoError(t, ReverseSupplierReceipt(lot, d("10"), snap))
	assert.True(t, lot.Level().AverageCost.Equal(d("10")))
	assert.True(t, lot.Level().Quantity.Equal(d("10")))
	assert.True(t, lot.TotalPurchased.Equal(d("10")))
	assert.Equal(t, first, *lot.LastPurchaseAt)
}

func TestStockItemRef_Validate(t *testing.T) {
	assert.NoError(t, ProductRef(uuid.New()).Validate())
	assert.Error(t, StockItemRef{Kind: "SERVICE", ID: uuid.New()}.Validate())
	assert.Error(t, RawMaterialRef(uuid.Nil).Validate())
}
