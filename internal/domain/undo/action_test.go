package undo

import (
	"encoding/json"
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

var created = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newSaleAction(t *testing.T) *Action {
	t.Helper()
	p := &SalePayload{
		InvoiceID:  uuid.New(),
		Number:     7,
		CustomerID: uuid.New(),
		Total:      decimal.RequireFromString("121.00"),
		Lines: []SaleLine{{
			ProductID: uuid.New(),
			Name:      "Queso",
			Quantity:  decimal.NewFromInt(2),
			Weight:    decimal.RequireFromString("1.5"),
		}},
	}
	a, err := NewAction(uuid.New(), p, "Create sale #7 - $121.00", Target{Type: "invoice", ID: p.InvoiceID}, created)
	require.NoError(t, err)
	return a
}

func TestAction_StatusWindow(t *testing.T) {
	a := newSaleAction(t)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    Status
	}{
		{"just created", 0, StatusPending},
		{"one second before expiry", 14*time.Minute + 59*time.Second, StatusPending},
		{"exactly at expiry", DefaultWindow, StatusPending},
		{"one minute after expiry", 16 * time.Minute, StatusExpired},
		{"shortly after expiry", 15*time.Minute + time.Second, StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Status(created.Add(tt.elapsed), DefaultWindow))
		})
	}
}

func TestAction_StatusPrecedence(t *testing.T) {
	now := created.Add(time.Minute)

	applied := newSaleAction(t)
	require.NoError(t, applied.MarkApplied(now, uuid.New(), DefaultWindow))
	assert.Equal(t, StatusApplied, applied.Status(now, DefaultWindow))
	assert.Equal(t, StatusApplied, applied.Status(now.Add(time.Hour), DefaultWindow))

	failed := newSaleAction(t)
	failed.MarkFailed(RollbackStatus{Error: "boom", ErrorType: "*errors.errorString", FailedAt: now})
	assert.Equal(t, StatusFailed, failed.Status(now, DefaultWindow))
	assert.False(t, failed.IsUndoable(now, DefaultWindow))
	require.NotNil(t, failed.RollbackStatus)
	assert.Equal(t, "boom", failed.RollbackStatus.Error)
}

func TestAction_MarkAppliedTwice(t *testing.T) {
	a := newSaleAction(t)
	now := created.Add(time.Minute)
	require.NoError(t, a.MarkApplied(now, uuid.New(), DefaultWindow))

	err := a.MarkApplied(now, uuid.New(), DefaultWindow)
	assert.True(t, errors.Is(err, shared.ErrCannotUndo))
}

func TestAction_MarkAppliedExpired(t *testing.T) {
	a := newSaleAction(t)
	err := a.MarkApplied(created.Add(time.Hour), uuid.New(), DefaultWindow)
	assert.True(t, errors.Is(err, shared.ErrCannotUndo))
	assert.Nil(t, a.UndoneAt)
}

func TestNewAction_RequiresUser(t *testing.T) {
	_, err := NewAction(uuid.Nil, &PaymentPayload{}, "x", Target{}, created)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestPayload_RoundTrip(t *testing.T) {
	movement := uuid.New()
	payloads := []Payload{
		&SalePayload{InvoiceID: uuid.New(), Number: 3, Total: decimal.NewFromInt(10)},
		&PurchasePayload{
			PurchaseID: uuid.New(),
			MovementID: &movement,
			Lines: []PurchaseLineSnapshot{{
				Item:       inventory.RawMaterialRef(uuid.New()),
				Quantity:   decimal.NewFromInt(10),
				ItemBefore: inventory.Level{Quantity: decimal.NewFromInt(5), AverageCost: decimal.RequireFromString("2.5")},
				LotBefore:  inventory.LotSnapshot{Existed: false},
			}},
		},
		&PaymentPayload{
			PaymentID: uuid.New(),
			Amount:    decimal.NewFromInt(120),
			Invoices: []AffectedInvoice{
				{InvoiceID: uuid.New(), Number: 1, Applied: decimal.NewFromInt(100), PaidBefore: decimal.Zero},
			},
		},
	}

	for _, p := range payloads {
		t.Run(string(p.Kind()), func(t *testing.T) {
			raw, err := EncodePayload(p)
			require.NoError(t, err)

			got, err := DecodePayload(raw)
			require.NoError(t, err)
			assert.Equal(t, p.Kind(), got.Kind())

			again, err := EncodePayload(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(again))
		})
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"invoice_id": uuid.New()})

	t.Run("unknown kind", func(t *testing.T) {
		raw, _ := json.Marshal(map[string]any{"kind": "DELETE_CUSTOMER", "version": 1, "data": json.RawMessage(data)})
		_, err := DecodePayload(raw)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("newer version", func(t *testing.T) {
		raw, _ := json.Marshal(map[string]any{"kind": KindCreateSale, "version": 2, "data": json.RawMessage(data)})
		_, err := DecodePayload(raw)
		assert.ErrorIs(t, err, ErrIncompatiblePayload)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodePayload([]byte("{"))
		assert.ErrorIs(t, err, ErrCorruptPayload)
	})
}

func TestAction_DecodeKindMismatch(t *testing.T) {
	a := newSaleAction(t)
	a.Kind = KindRegisterPayment
	_, err := a.Decode()
	assert.ErrorIs(t, err, ErrCorruptPayload)
}

type recordingVisitor struct{ seen []Kind }

func (v *recordingVisitor) VisitSale(*SalePayload) error {
	v.seen = append(v.seen, KindCreateSale)
	return nil
}

func (v *recordingVisitor) VisitPurchase(*PurchasePayload) error {
	v.seen = append(v.seen, KindCreatePurchase)
	return nil
}

func (v *recordingVisitor) VisitPayment(*PaymentPayload) error {
	v.seen = append(v.seen, KindRegisterPayment)
	return nil
}

// Every kind must decode to a payload that dispatches to its own visit method.
func TestAllKinds_Dispatch(t *testing.T) {
	for _, k := range AllKinds() {
		require.True(t, k.IsValid())
		raw, err := json.Marshal(map[string]any{"kind": k, "version": payloadVersions[k], "data": json.RawMessage(`{}`)})
		require.NoError(t, err)

		p, err := DecodePayload(raw)
		require.NoError(t, err, k)

		v := &recordingVisitor{}
		require.NoError(t, p.Accept(v))
		assert.Equal(t, []Kind{k}, v.seen)
	}
	assert.Len(t, payloadVersions, len(AllKinds()))
}

func TestRawPayload_Scan(t *testing.T) {
	var r RawPayload
	require.NoError(t, r.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, string(r))
	require.NoError(t, r.Scan(`{"b":2}`))
	assert.Equal(t, `{"b":2}`, string(r))
	assert.Error(t, r.Scan(42))
}

func TestRollbackStatus_ValueScan(t *testing.T) {
	in := RollbackStatus{Error: "x", StepsCompleted: []string{"a"}, FailedAt: created}
	v, err := in.Value()
	require.NoError(t, err)

	var out RollbackStatus
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in.Error, out.Error)
	assert.Equal(t, in.StepsCompleted, out.StepsCompleted)
	assert.True(t, in.FailedAt.Equal(out.FailedAt))
}
