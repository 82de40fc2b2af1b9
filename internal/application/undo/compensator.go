package undo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
)

// compensator dispatches a decoded payload to its kind's handler. Each
// handler validates first and only then compensates; undoing is set once the
// first write is attempted.
type compensator struct {
	ctx     context.Context
	repos   uow.Repositories
	userID  uuid.UUID
	now     time.Time
	result  *undo.Result
	undoing bool
	step    string
}

var _ undo.Visitor = (*compensator)(nil)

func newCompensator(ctx context.Context, repos uow.Repositories, userID uuid.UUID, now time.Time, a *undo.Action) *compensator {
	return &compensator{
		ctx:    ctx,
		repos:  repos,
		userID: userID,
		now:    now,
		result: &undo.Result{
			ActionID:    a.ID,
			Kind:        a.Kind,
			Description: a.Description,
		},
	}
}

func (c *compensator) begin(step string) {
	c.undoing = true
	c.step = step
}

func (c *compensator) done(format string, args ...any) {
	c.result.Step(format, args...)
	c.step = ""
}

func (c *compensator) VisitSale(p *undo.SalePayload) error {
	if err := c.validateSale(p); err != nil {
		return err
	}
	return c.undoSale(p)
}

func (c *compensator) VisitPurchase(p *undo.PurchasePayload) error {
	if err := c.validatePurchase(p); err != nil {
		return err
	}
	return c.undoPurchase(p)
}

func (c *compensator) VisitPayment(p *undo.PaymentPayload) error {
	if err := c.validatePayment(p); err != nil {
		return err
	}
	return c.undoPayment(p)
}

// validateMovement refuses when the ledger row an operation produced is gone.
func (c *compensator) validateMovement(id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := c.repos.Movements().FindByIDForUpdate(c.ctx, *id); err != nil {
		return notFoundOr(err, shared.NewCannotUndoError("Financial movement %s no longer exists", id))
	}
	return nil
}

// cancelMovement cancels the ledger row an operation produced, if any.
func (c *compensator) cancelMovement(id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	c.begin("cancel financial movement")
	mv, err := c.repos.Movements().FindByIDForUpdate(c.ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to lock movement %s: %w", id, err)
	}
	if mv.State == finance.MovementStateCancelled {
		c.done("Movement %s was already cancelled", mv.ID)
		return nil
	}
	if err := mv.Cancel(c.now); err != nil {
		return err
	}
	if err := c.repos.Movements().Save(c.ctx, mv); err != nil {
		return fmt.Errorf("failed to save movement: %w", err)
	}
	c.done("Cancelled financial movement %q", mv.Description)
	return nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(a, b int) bool { return bytes.Compare(ids[a][:], ids[b][:]) < 0 })
}

func notFoundOr(err error, reject error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return reject
	}
	return err
}
