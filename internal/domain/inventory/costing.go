package inventory

import (
	"fmt"
	"time"

	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// costScale is the number of decimal places kept on average costs.
const costScale = 4

func insufficientStock(item StockItem, what string, want, have decimal.Decimal) error {
	return shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("Insufficient %s for %s: requested %s, available %s", what, item.DisplayName(), want.String(), have.String()))
}

// ReceiveStock adds quantity units bought at unitPrice and blends the price
// into the moving weighted-average cost. Once a later receipt has been
// blended in, the previous average cannot be derived from the level alone.
func ReceiveStock(item StockItem, quantity, unitPrice decimal.Decimal) error {
	return ReceiveMeasured(item, Measure{Quantity: quantity, Weight: decimal.Zero}, unitPrice)
}

// ReceiveMeasured is ReceiveStock for items that also track weight. The
// average is weighted by quantity.
func ReceiveMeasured(item StockItem, m Measure, unitPrice decimal.Decimal) error {
	if !m.Quantity.IsPositive() || m.Weight.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidCost, "Unit cost cannot be negative")
	}
	if m.Weight.IsPositive() && !item.TracksWeight() {
		return shared.NewValidationError("%s does not track weight", item.DisplayName())
	}

	lvl := item.Level()
	next := lvl
	if !lvl.Quantity.IsPositive() {
		next.AverageCost = unitPrice
	} else {
		total := lvl.Quantity.Mul(lvl.AverageCost).Add(m.Quantity.Mul(unitPrice))
		next.AverageCost = total.Div(lvl.Quantity.Add(m.Quantity)).Round(costScale)
	}
	next.Quantity = lvl.Quantity.Add(m.Quantity)
	next.Weight = lvl.Weight.Add(m.Weight)
	item.setLevel(next, time.Now().UTC())
	return nil
}

// CheckAvailable reports INSUFFICIENT_STOCK when m exceeds what is on hand.
func CheckAvailable(item StockItem, m Measure) error {
	if err := m.validate(); err != nil {
		return err
	}
	if m.Weight.IsPositive() && !item.TracksWeight() {
		return shared.NewValidationError("%s does not track weight", item.DisplayName())
	}
	lvl := item.Level()
	if m.Quantity.GreaterThan(lvl.Quantity) {
		return insufficientStock(item, "stock", m.Quantity, lvl.Quantity)
	}
	if m.Weight.GreaterThan(lvl.Weight) {
		return insufficientStock(item, "weight", m.Weight, lvl.Weight)
	}
	return nil
}

// ConsumeStock removes m from the item. The average cost is unchanged.
func ConsumeStock(item StockItem, m Measure) error {
	if err := CheckAvailable(item, m); err != nil {
		return err
	}
	lvl := item.Level()
	lvl.Quantity = lvl.Quantity.Sub(m.Quantity)
	lvl.Weight = lvl.Weight.Sub(m.Weight)
	item.setLevel(lvl, time.Now().UTC())
	return nil
}

// ReturnStock puts previously consumed stock back. The average cost is unchanged.
func ReturnStock(item StockItem, m Measure) error {
	if err := m.validate(); err != nil {
		return err
	}
	if m.Weight.IsPositive() && !item.TracksWeight() {
		return shared.NewValidationError("%s does not track weight", item.DisplayName())
	}
	lvl := item.Level()
	lvl.Quantity = lvl.Quantity.Add(m.Quantity)
	lvl.Weight = lvl.Weight.Add(m.Weight)
	item.setLevel(lvl, time.Now().UTC())
	return nil
}

// ReverseReceipt takes a receipt back out and resets the average cost to the
// value captured before the receipt. The caller must ensure no later receipt
// has been blended into the average since.
func ReverseReceipt(item StockItem, received Measure, before Level) error {
	if err := received.validate(); err != nil {
		return err
	}
	lvl := item.Level()
	if received.Quantity.GreaterThan(lvl.Quantity) {
		return insufficientStock(item, "stock", received.Quantity, lvl.Quantity)
	}
	if received.Weight.GreaterThan(lvl.Weight) {
		return insufficientStock(item, "weight", received.Weight, lvl.Weight)
	}
	next := Level{
		Quantity:    lvl.Quantity.Sub(received.Quantity),
		Weight:      lvl.Weight.Sub(received.Weight),
		AverageCost: before.AverageCost,
	}
	item.setLevel(next, time.Now().UTC())
	return nil
}

// RecordSupplierReceipt receives stock into the lot and tracks the purchase date
// and running total bought from the supplier.
func RecordSupplierReceipt(lot *SupplierStockLot, quantity, unitPrice decimal.Decimal, purchasedAt time.Time) error {
	if err := ReceiveStock(lot, quantity, unitPrice); err != nil {
		return err
	}
	at := purchasedAt
	lot.LastPurchaseAt = &at
	lot.TotalPurchased = lot.TotalPurchased.Add(quantity)
	return nil
}

// ReverseSupplierReceipt undoes RecordSupplierReceipt from a snapshot taken
// before it ran.
func ReverseSupplierReceipt(lot *SupplierStockLot, quantity decimal.Decimal, before LotSnapshot) error {
	if err := ReverseReceipt(lot, Measure{Quantity: quantity, Weight: decimal.Zero}, before.Level); err != nil {
		return err
	}
	lot.LastPurchaseAt = before.LastPurchaseAt
	lot.TotalPurchased = before.TotalPurchased
	return nil
}
