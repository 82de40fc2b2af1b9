// Package undo reverses the last compensable operation of a user inside the
// undo window.
package undo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// VoidReason is written on every record an undo voids.
const VoidReason = "Operation undone by user"

// UndoService runs undo requests.
type UndoService struct {
	scope   uow.TransactionScope
	window  time.Duration
	locker  undo.Locker
	now     uow.Clock
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewUndoService creates an UndoService. A non-positive window falls back to
// undo.DefaultWindow.
func NewUndoService(scope uow.TransactionScope, window time.Duration, logger *zap.Logger) *UndoService {
	if window <= 0 {
		window = undo.DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UndoService{scope: scope, window: window, now: uow.SystemClock, logger: logger}
}

// SetLocker enables the per-user distributed lock.
func (s *UndoService) SetLocker(l undo.Locker) {
	s.locker = l
}

// SetClock replaces the clock the window is evaluated against.
func (s *UndoService) SetClock(clock uow.Clock) {
	s.now = clock
}

// SetBusinessMetrics sets the business metrics collector
func (s *UndoService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// Window is the configured undo window.
func (s *UndoService) Window() time.Duration {
	return s.window
}

func lockKey(userID uuid.UUID) string {
	return "undo:user:" + userID.String()
}

// isRejection reports whether err is an expected refusal that leaves the
// action untouched.
func isRejection(err error) bool {
	return errors.Is(err, shared.ErrCannotUndo) ||
		errors.Is(err, shared.ErrNoUndoableAction) ||
		errors.Is(err, shared.ErrConflict)
}

// UndoLast reverses the user's most recent pending action. Validation
// failures come back as CANNOT_UNDO and change nothing. An unexpected error
// while compensating rolls everything back and is then recorded on the
// action, which is never offered again.
func (s *UndoService) UndoLast(ctx context.Context, userID uuid.UUID) (*undo.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "undo", "undo_last")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	if s.locker != nil {
		unlock, err := s.locker.Obtain(ctx, lockKey(userID))
		if err != nil {
			telemetry.RecordError(span, err)
			s.metrics.RecordUndo(ctx, "", telemetry.UndoOutcomeRejected)
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release undo lock", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}()
	}

	now := s.now()
	var (
		action *undo.Action
		comp   *compensator
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		a, err := repos.UndoActions().FindLatestPendingForUpdate(ctx, userID, now.Add(-s.window))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrNoUndoableAction
			}
			return fmt.Errorf("failed to load undo action: %w", err)
		}
		if a.HasFailedRollback {
			return shared.NewCannotUndoError("Undoing %q failed and needs review before older actions can be undone", a.Description)
		}
		if !a.IsUndoable(now, s.window) {
			return shared.ErrNoUndoableAction
		}
		action = a
		comp = newCompensator(ctx, repos, userID, now, a)

		payload, err := a.Decode()
		if err != nil {
			comp.undoing = true
			comp.step = "decode payload"
			return err
		}
		if err := payload.Accept(comp); err != nil {
			return err
		}

		if err := a.MarkApplied(now, userID, s.window); err != nil {
			return err
		}
		comp.begin("mark action applied")
		if err := repos.UndoActions().Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save undo action: %w", err)
		}
		comp.done("Marked action as undone")
		return nil
	})

	if err == nil {
		res := comp.result
		res.Success = true
		res.UndoneAt = now
		s.metrics.RecordUndo(ctx, string(res.Kind), telemetry.UndoOutcomeApplied)
		s.logger.Info("Action undone",
			zap.String("action_id", res.ActionID.String()),
			zap.String("kind", string(res.Kind)),
			zap.String("user_id", userID.String()),
			zap.Strings("steps", res.StepsCompleted),
		)
		return res, nil
	}

	telemetry.RecordError(span, err)
	if isRejection(err) || comp == nil || !comp.undoing {
		kind := ""
		if action != nil {
			kind = string(action.Kind)
		}
		if isRejection(err) {
			s.metrics.RecordUndo(ctx, kind, telemetry.UndoOutcomeRejected)
		}
		return nil, err
	}

	s.recordFailure(ctx, action, comp, err, now)
	s.metrics.RecordUndo(ctx, string(action.Kind), telemetry.UndoOutcomeFailed)
	return nil, fmt.Errorf("undo of %s %s failed at %q: %v", action.Kind, action.ID, comp.step, err)
}

// recordFailure writes the diagnostics in a transaction of its own, after the
// compensation was rolled back.
func (s *UndoService) recordFailure(ctx context.Context, action *undo.Action, comp *compensator, cause error, now time.Time) {
	status := undo.RollbackStatus{
		Error:          cause.Error(),
		ErrorType:      fmt.Sprintf("%T", cause),
		StepsCompleted: comp.result.StepsCompleted,
		StepsFailed:    append(comp.result.StepsFailed, comp.step),
		FailedAt:       now,
	}
	s.logger.Error("Undo failed, recording rollback status",
		zap.String("action_id", action.ID.String()),
		zap.String("kind", string(action.Kind)),
		zap.String("step", comp.step),
		zap.Error(cause),
	)

	ctx = context.WithoutCancel(ctx)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		return repos.UndoActions().MarkFailed(ctx, action.ID, status)
	})
	if err != nil {
		s.logger.Error("Failed to record rollback status",
			zap.String("action_id", action.ID.String()),
			zap.Error(err),
		)
	}
}

// Availability describes what the next undo would reverse.
type Availability struct {
	Available   bool       `json:"available"`
	ActionID    *uuid.UUID `json:"action_id,omitempty"`
	Kind        undo.Kind  `json:"kind,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Availability reports whether the user has an action to undo. Read only.
func (s *UndoService) Availability(ctx context.Context, userID uuid.UUID) (*Availability, error) {
	now := s.now()
	var a *undo.Action
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		found, err := repos.UndoActions().FindLatestPending(ctx, userID, now.Add(-s.window))
		if err != nil {
			return err
		}
		a = found
		return nil
	})
	if errors.Is(err, shared.ErrNotFound) || (err == nil && !a.IsUndoable(now, s.window)) {
		return &Availability{Available: false}, nil
	}
	if err != nil {
		return nil, err
	}
	created, expires := a.CreatedAt, a.ExpiresAt(s.window)
	return &Availability{
		Available:   true,
		ActionID:    &a.ID,
		Kind:        a.Kind,
		Description: a.Description,
		CreatedAt:   &created,
		ExpiresAt:   &expires,
	}, nil
}

// HistoryEntry is one recorded action with its derived status.
type HistoryEntry struct {
	ID                uuid.UUID            `json:"id"`
	Kind              undo.Kind            `json:"kind"`
	Description       string               `json:"description"`
	Status            undo.Status          `json:"status"`
	TargetType        string               `json:"target_type,omitempty"`
	TargetID          *uuid.UUID           `json:"target_id,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	ExpiresAt         time.Time            `json:"expires_at"`
	UndoneAt          *time.Time           `json:"undone_at,omitempty"`
	RollbackStatus    *undo.RollbackStatus `json:"rollback_status,omitempty"`
	HasFailedRollback bool                 `json:"has_failed_rollback"`
}

// History page sizes
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// History lists the user's most recent actions, newest first. Read only.
func (s *UndoService) History(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	now := s.now()

	var actions []undo.Action
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		actions, err = repos.UndoActions().ListByUser(ctx, userID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(actions))
	for i := range actions {
		a := &actions[i]
		entries = append(entries, HistoryEntry{
			ID:                a.ID,
			Kind:              a.Kind,
			Description:       a.Description,
			Status:            a.Status(now, s.window),
			TargetType:        a.TargetType,
			TargetID:          a.TargetID,
			CreatedAt:         a.CreatedAt,
			ExpiresAt:         a.ExpiresAt(s.window),
			UndoneAt:          a.UndoneAt,
			RollbackStatus:    a.RollbackStatus,
			HasFailedRollback: a.HasFailedRollback,
		})
	}
	return entries, nil
}
