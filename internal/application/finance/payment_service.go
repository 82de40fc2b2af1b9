// Package finance registers customer payments against invoices and books
// the matching income.
package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService handles customer payments.
type PaymentService struct {
	scope   uow.TransactionScope
	now     uow.Clock
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(scope uow.TransactionScope, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{scope: scope, now: uow.SystemClock, logger: logger}
}

// SetBusinessMetrics sets the business metrics collector
func (s *PaymentService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// SetClock replaces the clock used to stamp records.
func (s *PaymentService) SetClock(clock uow.Clock) {
	s.now = clock
}

func validatePaymentInput(in RegisterPaymentInput) error {
	if in.CustomerID == uuid.Nil {
		return shared.NewValidationError("customer_id is required")
	}
	if !in.Amount.IsPositive() {
		return shared.NewValidationError("payment amount must be greater than zero")
	}
	if !in.Method.IsValid() {
		return shared.NewValidationError("unknown payment method %q", in.Method)
	}
	return nil
}

// apply runs the direct or FIFO allocation and returns every invoice touched.
func apply(ctx context.Context, repos uow.Repositories, payment *sales.CustomerPayment) ([]sales.Application, error) {
	if payment.IsDirect() {
		inv, err := repos.Invoices().FindByIDForUpdate(ctx, *payment.InvoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NotFoundError("Invoice")
			}
			return nil, fmt.Errorf("failed to lock invoice: %w", err)
		}
		if inv.CustomerID != payment.CustomerID {
			return nil, shared.NewValidationError("invoice #%d belongs to another customer", inv.Number)
		}
		app, err := sales.ApplyPayment(inv, payment.Amount, payment, true)
		if err != nil {
			return nil, err
		}
		if !app.Applied.IsPositive() {
			return nil, nil
		}
		return []sales.Application{app}, nil
	}

	candidates, err := repos.Invoices().FindOpenByCustomerForUpdate(ctx, payment.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock open invoices: %w", err)
	}
	result, err := sales.FIFOApply(payment, candidates, payment.Amount)
	if err != nil {
		return nil, err
	}
	payment.AppendNote(sales.FIFONote(result.Applications))
	return result.Applications, nil
}

// RegisterPayment records the payment, applies it to invoices, books a
// collected income and registers the undo action in one transaction. Money
// beyond what the customer owes stays unapplied as credit.
func (s *PaymentService) RegisterPayment(ctx context.Context, userID uuid.UUID, in RegisterPaymentInput) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "register")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, in.CustomerID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
		telemetry.SpanAttrPaymentMethod, string(in.Method),
	)

	if err := validatePaymentInput(in); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.now()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	var resp PaymentResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, in.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Customer")
			}
			return fmt.Errorf("failed to load customer: %w", err)
		}

		payment, err := sales.NewCustomerPayment(in.CustomerID, in.InvoiceID, in.Amount, in.Method, date, in.Notes, userID, now)
		if err != nil {
			return err
		}

		apps, err := apply(ctx, repos, payment)
		if err != nil {
			return err
		}

		mv, err := finance.NewMovement(finance.MovementTypeIncome, finance.MovementOriginPayment, &payment.ID, payment.Amount,
			fmt.Sprintf("Customer payment - $%s", payment.Amount.StringFixed(2)), date, userID, now)
		if err != nil {
			return err
		}
		if err := mv.RegisterPayment(payment.Amount, string(payment.Method), now); err != nil {
			return err
		}
		if err := repos.Movements().Save(ctx, mv); err != nil {
			return fmt.Errorf("failed to save movement: %w", err)
		}
		payment.LinkMovement(mv.ID)

		if err := repos.Payments().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		payload := &undo.PaymentPayload{
			PaymentID:  payment.ID,
			CustomerID: payment.CustomerID,
			Amount:     payment.Amount,
			Direct:     payment.IsDirect(),
			MovementID: &mv.ID,
			Invoices:   make([]undo.AffectedInvoice, 0, len(apps)),
		}
		allocations := make([]sales.PaymentAllocation, 0, len(apps))
		for _, app := range apps {
			if err := repos.Invoices().Save(ctx, app.Invoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
			if app.Allocation != nil {
				if err := repos.Allocations().Save(ctx, app.Allocation); err != nil {
					return fmt.Errorf("failed to save allocation: %w", err)
				}
				allocations = append(allocations, *app.Allocation)
			}
			payload.Invoices = append(payload.Invoices, undo.AffectedInvoice{
				InvoiceID:  app.Invoice.ID,
				Number:     app.Invoice.Number,
				Applied:    app.Applied,
				PaidBefore: app.PaidBefore,
			})
		}

		action, err := undo.NewAction(userID, payload,
			fmt.Sprintf("Register payment - $%s", payment.Amount.StringFixed(2)),
			undo.Target{Type: "payment", ID: payment.ID}, now)
		if err != nil {
			return err
		}
		if err := repos.UndoActions().Save(ctx, action); err != nil {
			return fmt.Errorf("failed to register undo action: %w", err)
		}

		resp = ToPaymentResponse(payment, allocations)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordOperation(ctx, telemetry.OperationPayment, resp.Amount)
	s.logger.Info("Payment registered",
		zap.String("payment_id", resp.ID.String()),
		zap.String("amount", resp.Amount.String()),
		zap.String("allocated", resp.Allocated.String()),
		zap.Int("invoices", len(resp.Allocations)),
	)
	return &resp, nil
}

// GetPayment returns a payment with its allocation trail.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	var resp PaymentResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		p, err := repos.Payments().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Payment")
			}
			return err
		}
		allocations, err := repos.Allocations().FindByPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}
		resp = ToPaymentResponse(p, allocations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
