package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps. Timestamps come from the
// caller's clock so services stay deterministic under test.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntityAt returns an entity with a fresh id created at at.
func NewBaseEntityAt(at time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// Touch records a modification at at.
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// BaseAggregateRoot adds a version that counts mutations and is stored with
// the row.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// NewBaseAggregateRootAt returns a version 1 aggregate created at at.
func NewBaseAggregateRootAt(at time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntityAt(at), Version: 1}
}

// IncrementVersion marks a mutation.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
