// Package undo records compensable operations and derives whether the last
// one of a user may still be reversed.
package undo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
)

// DefaultWindow is how long an action stays undoable.
const DefaultWindow = 15 * time.Minute

var (
	ErrUnknownKind         = errors.New("unknown undo action kind")
	ErrIncompatiblePayload = errors.New("incompatible undo payload version")
	ErrCorruptPayload      = errors.New("corrupt undo payload")
)

// Status is derived, never stored.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusApplied Status = "APPLIED"
	StatusExpired Status = "EXPIRED"
	StatusFailed  Status = "FAILED"
)

// RawPayload is an encoded payload envelope as persisted.
type RawPayload []byte

// Value implements driver.Valuer
func (r RawPayload) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

// Scan implements sql.Scanner
func (r *RawPayload) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawPayload(v)
	default:
		return fmt.Errorf("cannot scan %T into RawPayload", value)
	}
	return nil
}

// RollbackStatus describes a compensation that errored unexpectedly.
type RollbackStatus struct {
	Error          string    `json:"error"`
	ErrorType      string    `json:"error_type"`
	StepsCompleted []string  `json:"steps_completed"`
	StepsFailed    []string  `json:"steps_failed"`
	FailedAt       time.Time `json:"failed_at"`
}

// Value implements driver.Valuer
func (s RollbackStatus) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *RollbackStatus) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RollbackStatus", value)
	}
	return json.Unmarshal(b, s)
}

// Target names the record an action created.
type Target struct {
	Type string
	ID   uuid.UUID
}

// Action is one recorded compensable operation.
type Action struct {
	shared.BaseEntity
	UserID            uuid.UUID
	Kind              Kind
	Payload           RawPayload
	Description       string
	TargetType        string
	TargetID          *uuid.UUID
	GroupID           *uuid.UUID
	UndoneAt          *time.Time
	UndoneBy          *uuid.UUID
	HasFailedRollback bool
	RollbackStatus    *RollbackStatus
}

// NewAction encodes the payload and stamps the action at the given time.
func NewAction(userID uuid.UUID, p Payload, description string, target Target, at time.Time) (*Action, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("undo action needs a user")
	}
	raw, err := EncodePayload(p)
	if err != nil {
		return nil, err
	}
	a := &Action{
		BaseEntity:  shared.NewBaseEntityAt(at),
		UserID:      userID,
		Kind:        p.Kind(),
		Payload:     raw,
		Description: description,
		TargetType:  target.Type,
	}
	if target.ID != uuid.Nil {
		id := target.ID
		a.TargetID = &id
	}
	return a, nil
}

// InGroup tags the action as part of a multi-step user operation.
func (a *Action) InGroup(groupID uuid.UUID) *Action {
	a.GroupID = &groupID
	return a
}

// Decode returns the typed payload.
func (a *Action) Decode() (Payload, error) {
	p, err := DecodePayload(a.Payload)
	if err != nil {
		return nil, err
	}
	if p.Kind() != a.Kind {
		return nil, fmt.Errorf("%w: row kind %s, payload kind %s", ErrCorruptPayload, a.Kind, p.Kind())
	}
	return p, nil
}

// ExpiresAt is the last instant the action can be undone.
func (a *Action) ExpiresAt(window time.Duration) time.Time {
	return a.CreatedAt.Add(window)
}

// Status derives the lifecycle state at now. An action created exactly
// window ago is still pending.
func (a *Action) Status(now time.Time, window time.Duration) Status {
	switch {
	case a.UndoneAt != nil:
		return StatusApplied
	case a.HasFailedRollback:
		return StatusFailed
	case now.After(a.ExpiresAt(window)):
		return StatusExpired
	default:
		return StatusPending
	}
}

// IsUndoable reports whether the action is pending at now
func (a *Action) IsUndoable(now time.Time, window time.Duration) bool {
	return a.Status(now, window) == StatusPending
}

// MarkApplied records a successful undo.
func (a *Action) MarkApplied(at time.Time, by uuid.UUID, window time.Duration) error {
	if st := a.Status(at, window); st != StatusPending {
		return shared.NewCannotUndoError("action is %s", st)
	}
	a.UndoneAt = &at
	a.UndoneBy = &by
	a.Touch(at)
	return nil
}

// MarkFailed records an unexpected compensation failure. The action is then
// never offered again.
func (a *Action) MarkFailed(status RollbackStatus) {
	a.HasFailedRollback = true
	a.RollbackStatus = &status
	a.Touch(status.FailedAt)
}

// Result is what an undo reports back.
type Result struct {
	ActionID       uuid.UUID `json:"action_id"`
	Kind           Kind      `json:"kind"`
	Success        bool      `json:"success"`
	Description    string    `json:"description"`
	StepsCompleted []string  `json:"steps_completed"`
	StepsFailed    []string  `json:"steps_failed"`
	UndoneAt       time.Time `json:"undone_at"`
}

// Step appends a completed compensation step.
func (r *Result) Step(format string, args ...any) {
	r.StepsCompleted = append(r.StepsCompleted, fmt.Sprintf(format, args...))
}

// Failed appends a step that did not complete.
func (r *Result) Failed(format string, args ...any) {
	r.StepsFailed = append(r.StepsFailed, fmt.Sprintf(format, args...))
}
