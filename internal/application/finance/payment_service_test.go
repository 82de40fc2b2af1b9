package finance_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/apptest"
	financeapp "github.com/pyme/backend/internal/application/finance"
	salesapp "github.com/pyme/backend/internal/application/sales"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct {
	f        *apptest.Fixture
	user     uuid.UUID
	customer uuid.UUID
	product  uuid.UUID
}

func newLedger(t *testing.T) *ledger {
	f := apptest.New(t)
	l := &ledger{f: f, user: uuid.New(), customer: f.Customer("C1"), product: f.Product("P1", "10")}
	f.Receive(l.user, f.Supplier("S1"), l.product, "100", "1")
	return l
}

// invoice sells one unit at amount so the invoice total equals amount.
func (l *ledger) invoice(amount string) uuid.UUID {
	return l.f.Sell(l.user, l.customer, l.product, "1", amount).ID
}

func (l *ledger) paid(t *testing.T, id uuid.UUID) string {
	t.Helper()
	return l.f.Invoice(id).AmountPaid.StringFixed(2)
}

func TestRegisterPayment_FIFO(t *testing.T) {
	l := newLedger(t)
	a, b, c := l.invoice("100"), l.invoice("50"), l.invoice("80")

	pay := l.f.Pay(l.user, l.customer, nil, "120")

	assert.Equal(t, "100.00", l.paid(t, a))
	assert.Equal(t, "20.00", l.paid(t, b))
	assert.Equal(t, "0.00", l.paid(t, c))
	assert.Equal(t, "PAID", l.f.Invoice(a).PaymentState)
	assert.Equal(t, "PARTIAL", l.f.Invoice(b).PaymentState)
	assert.Equal(t, "PENDING", l.f.Invoice(c).PaymentState)

	require.Len(t, pay.Allocations, 2)
	assert.Equal(t, a, pay.Allocations[0].InvoiceID)
	assert.Equal(t, b, pay.Allocations[1].InvoiceID)
	assert.True(t, pay.Allocated.Equal(apptest.D("120")))
	assert.True(t, pay.Unapplied.IsZero())
	assert.Contains(t, pay.Notes, "Applied automatically (FIFO)")
}

func TestRegisterPayment_FIFOUsesInvoiceDate(t *testing.T) {
	l := newLedger(t)
	newer := l.invoice("30")

	older := apptest.Start.Add(-48 * time.Hour)
	price := apptest.D("30")
	inv, err := l.f.Sales.CreateSale(l.f.Ctx, l.user, salesCreate(l, older, price))
	require.NoError(t, err)

	l.f.Pay(l.user, l.customer, nil, "30")
	assert.Equal(t, "30.00", l.paid(t, inv.ID))
	assert.Equal(t, "0.00", l.paid(t, newer))
}

func TestRegisterPayment_Overpayment(t *testing.T) {
	l := newLedger(t)
	a := l.invoice("100")

	pay := l.f.Pay(l.user, l.customer, nil, "150")

	assert.Equal(t, "100.00", l.paid(t, a))
	assert.True(t, pay.Amount.Equal(apptest.D("150")))
	assert.True(t, pay.Allocated.Equal(apptest.D("100")))
	assert.True(t, pay.Unapplied.Equal(apptest.D("50")))
}

func TestRegisterPayment_TargetedTakesPrecedence(t *testing.T) {
	l := newLedger(t)
	a, b := l.invoice("100"), l.invoice("80")

	pay := l.f.Pay(l.user, l.customer, &b, "80")

	assert.Equal(t, "0.00", l.paid(t, a))
	assert.Equal(t, "80.00", l.paid(t, b))
	require.Len(t, pay.Allocations, 1)
	assert.Equal(t, b, pay.Allocations[0].InvoiceID)
	require.NotNil(t, pay.InvoiceID)
	assert.Equal(t, b, *pay.InvoiceID)
}

func TestRegisterPayment_TargetedOverflowStaysAsCredit(t *testing.T) {
	l := newLedger(t)
	a, b := l.invoice("100"), l.invoice("40")

	pay := l.f.Pay(l.user, l.customer, &b, "60")

	assert.Equal(t, "40.00", l.paid(t, b))
	assert.Equal(t, "0.00", l.paid(t, a))
	assert.True(t, pay.Unapplied.Equal(apptest.D("20")))
}

func TestRegisterPayment_BooksCollectedIncome(t *testing.T) {
	l := newLedger(t)
	l.invoice("25")

	pay := l.f.Pay(l.user, l.customer, nil, "25")
	require.NotNil(t, pay.MovementID)

	mv, err := persistence.NewGormMovementRepository(l.f.DB).FindByID(l.f.Ctx, *pay.MovementID)
	require.NoError(t, err)
	assert.Equal(t, finance.MovementTypeIncome, mv.Type)
	assert.Equal(t, finance.MovementStateCollected, mv.State)
	assert.True(t, mv.Amount.Equal(apptest.D("25")))
}

func TestRegisterPayment_Errors(t *testing.T) {
	l := newLedger(t)
	other := l.f.Customer("C2")
	foreign := l.f.Sell(l.user, other, l.product, "1", "10").ID

	tests := []struct {
		name string
		in   financeapp.RegisterPaymentInput
		want error
	}{
		{"zero amount", financeapp.RegisterPaymentInput{CustomerID: l.customer, Amount: apptest.D("0"), Method: sales.PaymentMethodCash}, shared.ErrValidation},
		{"unknown method", financeapp.RegisterPaymentInput{CustomerID: l.customer, Amount: apptest.D("5"), Method: "BARTER"}, shared.ErrValidation},
		{"unknown customer", financeapp.RegisterPaymentInput{CustomerID: uuid.New(), Amount: apptest.D("5"), Method: sales.PaymentMethodCash}, shared.ErrNotFound},
		{"invoice of another customer", financeapp.RegisterPaymentInput{CustomerID: l.customer, InvoiceID: &foreign, Amount: apptest.D("5"), Method: sales.PaymentMethodCash}, shared.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.f.Payments.RegisterPayment(l.f.Ctx, l.user, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, "0.00", l.paid(t, foreign))
}

func TestGetPayment_NotFound(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Payments.GetPayment(f.Ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func salesCreate(l *ledger, date time.Time, price decimal.Decimal) salesapp.CreateSaleInput {
	return salesapp.CreateSaleInput{
		CustomerID: l.customer,
		Date:       &date,
		Lines:      []salesapp.SaleLineInput{{ProductID: l.product, Quantity: apptest.D("1"), UnitPrice: &price}},
	}
}
