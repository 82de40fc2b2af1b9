package shared

import (
	"time"

	"github.com/google/uuid"
)

// Voidable carries the void flag and its metadata. Voiding is terminal and
// replaces deletion: the record stays, its effects are marked reversed.
type Voidable struct {
	Voided     bool
	VoidedAt   *time.Time
	VoidReason string
	VoidedBy   *uuid.UUID
}

// Void marks the record voided. Voiding twice is rejected.
func (v *Voidable) Void(at time.Time, reason string, actor uuid.UUID) error {
	if v.Voided {
		return ErrAlreadyVoided
	}
	v.Voided = true
	v.VoidedAt = &at
	v.VoidReason = reason
	if actor != uuid.Nil {
		v.VoidedBy = &actor
	}
	return nil
}

// IsVoided reports whether the record was voided
func (v *Voidable) IsVoided() bool {
	return v.Voided
}
