// Package finance holds the ledger of money in and out of the business.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType is the direction of a ledger row.
type MovementType string

const (
	MovementTypeIncome  MovementType = "INCOME"
	MovementTypeExpense MovementType = "EXPENSE"
)

// IsValid checks if the type is valid
func (t MovementType) IsValid() bool {
	return t == MovementTypeIncome || t == MovementTypeExpense
}

// MovementState is the settlement state of a ledger row.
type MovementState string

const (
	MovementStatePending   MovementState = "PENDING"
	MovementStatePartial   MovementState = "PARTIAL"
	MovementStatePaid      MovementState = "PAID"
	MovementStateCollected MovementState = "COLLECTED"
	MovementStateCancelled MovementState = "CANCELLED"
)

// IsValid checks if the state is valid
func (s MovementState) IsValid() bool {
	switch s {
	case MovementStatePending, MovementStatePartial, MovementStatePaid, MovementStateCollected, MovementStateCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves the state.
func (s MovementState) IsTerminal() bool {
	return s == MovementStateCancelled
}

// IsSettled reports whether the full amount moved.
func (s MovementState) IsSettled() bool {
	return s == MovementStatePaid || s == MovementStateCollected
}

// MovementOrigin names the operation that produced a ledger row.
type MovementOrigin string

const (
	MovementOriginSale     MovementOrigin = "SALE"
	MovementOriginPurchase MovementOrigin = "PURCHASE"
	MovementOriginPayment  MovementOrigin = "PAYMENT"
	MovementOriginManual   MovementOrigin = "MANUAL"
)

// IsValid checks if the origin is valid
func (o MovementOrigin) IsValid() bool {
	switch o {
	case MovementOriginSale, MovementOriginPurchase, MovementOriginPayment, MovementOriginManual:
		return true
	}
	return false
}

// CancelledSuffix is appended to the description of cancelled movements.
const CancelledSuffix = " [CANCELLED]"

// FinancialMovement is a ledger row. Undo cancels rows, it never deletes them.
type FinancialMovement struct {
	shared.BaseAggregateRoot
	Type          MovementType
	Origin        MovementOrigin
	OriginID      *uuid.UUID
	State         MovementState
	Amount        decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentMethod string
	Description   string
	Date          time.Time
	CancelledAt   *time.Time
	CreatedBy     uuid.UUID
}

// NewMovement creates a pending ledger row.
func NewMovement(typ MovementType, origin MovementOrigin, originID *uuid.UUID, amount decimal.Decimal, description string, date time.Time, createdBy uuid.UUID, at time.Time) (*FinancialMovement, error) {
	if !typ.IsValid() {
		return nil, shared.NewValidationError("unknown movement type %q", typ)
	}
	if !origin.IsValid() {
		return nil, shared.NewValidationError("unknown movement origin %q", origin)
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("movement amount must be greater than zero")
	}
	return &FinancialMovement{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		Type:              typ,
		Origin:            origin,
		OriginID:          originID,
		State:             MovementStatePending,
		Amount:            amount,
		AmountPaid:        decimal.Zero,
		Description:       strings.TrimSpace(description),
		Date:              date,
		CreatedBy:         createdBy,
	}, nil
}

// Outstanding is the part of the amount not yet settled.
func (m *FinancialMovement) Outstanding() decimal.Decimal {
	return m.Amount.Sub(m.AmountPaid)
}

// RegisterPayment settles amount of the movement: PENDING → PARTIAL →
// PAID (expense) or COLLECTED (income).
func (m *FinancialMovement) RegisterPayment(amount decimal.Decimal, method string, at time.Time) error {
	if m.State != MovementStatePending && m.State != MovementStatePartial {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot register a payment on a %s movement", m.State))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("payment amount must be greater than zero")
	}
	if amount.GreaterThan(m.Outstanding()) {
		return shared.NewDomainError(shared.CodeInsufficientBalance,
			fmt.Sprintf("Payment %s exceeds outstanding %s", amount.String(), m.Outstanding().String()))
	}

	m.AmountPaid = m.AmountPaid.Add(amount)
	if method != "" {
		m.PaymentMethod = method
	}
	switch {
	case m.AmountPaid.LessThan(m.Amount):
		m.State = MovementStatePartial
	case m.Type == MovementTypeIncome:
		m.State = MovementStateCollected
	default:
		m.State = MovementStatePaid
	}
	m.Touch(at)
	m.IncrementVersion()
	return nil
}

// Cancel moves the row to CANCELLED from any other state and marks the description.
func (m *FinancialMovement) Cancel(at time.Time) error {
	if m.State.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, "Movement is already cancelled")
	}
	m.State = MovementStateCancelled
	m.CancelledAt = &at
	if !strings.HasSuffix(m.Description, CancelledSuffix) {
		m.Description += CancelledSuffix
	}
	m.Touch(at)
	m.IncrementVersion()
	return nil
}

// MovementRepository defines the interface for ledger persistence
type MovementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialMovement, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FinancialMovement, error)
	Save(ctx context.Context, movement *FinancialMovement) error
}
