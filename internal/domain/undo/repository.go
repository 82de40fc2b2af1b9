package undo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActionRepository persists undo actions.
type ActionRepository interface {
	Save(ctx context.Context, a *Action) error
	FindByID(ctx context.Context, id uuid.UUID) (*Action, error)
	// FindLatestPendingForUpdate locks the user's most recent action created
	// at or after since that is not undone. A failed action is returned too,
	// so it keeps blocking older ones. Returns shared.ErrNotFound when there
	// is none.
	FindLatestPendingForUpdate(ctx context.Context, userID uuid.UUID, since time.Time) (*Action, error)
	FindLatestPending(ctx context.Context, userID uuid.UUID, since time.Time) (*Action, error)
	// MarkFailed writes the failure fields only.
	MarkFailed(ctx context.Context, id uuid.UUID, status RollbackStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Action, error)
}

// Unlock releases a lock obtained from a Locker.
type Unlock func(ctx context.Context) error

// Locker serializes undo requests of one user across processes. Obtain
// returns shared.ErrConflict when the lock is held elsewhere.
type Locker interface {
	Obtain(ctx context.Context, key string) (Unlock, error)
}
