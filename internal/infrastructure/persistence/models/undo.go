package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/undo"
)

// UndoActionModel is the persistence model for an undo action.
type UndoActionModel struct {
	BaseModel
	UserID            uuid.UUID            `gorm:"type:uuid;not null;index:idx_undo_action_lookup,priority:1"`
	ActionType        undo.Kind            `gorm:"type:varchar(50);not null"`
	Payload           undo.RawPayload      `gorm:"type:jsonb;not null"`
	Description       string               `gorm:"type:varchar(500)"`
	TargetType        string               `gorm:"type:varchar(50)"`
	TargetID          *uuid.UUID           `gorm:"type:uuid"`
	GroupID           *uuid.UUID           `gorm:"type:uuid;index"`
	UndoneAt          *time.Time           `gorm:"index:idx_undo_action_lookup,priority:2"`
	UndoneBy          *uuid.UUID           `gorm:"type:uuid"`
	HasFailedRollback bool                 `gorm:"not null;default:false"`
	RollbackStatus    *undo.RollbackStatus `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (UndoActionModel) TableName() string {
	return "undo_actions"
}

// ToDomain converts the persistence model to a domain Action.
func (m *UndoActionModel) ToDomain() *undo.Action {
	return &undo.Action{
		BaseEntity:        m.BaseModel.ToDomain(),
		UserID:            m.UserID,
		Kind:              m.ActionType,
		Payload:           m.Payload,
		Description:       m.Description,
		TargetType:        m.TargetType,
		TargetID:          m.TargetID,
		GroupID:           m.GroupID,
		UndoneAt:          m.UndoneAt,
		UndoneBy:          m.UndoneBy,
		HasFailedRollback: m.HasFailedRollback,
		RollbackStatus:    m.RollbackStatus,
	}
}

// UndoActionModelFromDomain creates a persistence model from a domain Action.
func UndoActionModelFromDomain(a *undo.Action) *UndoActionModel {
	m := &UndoActionModel{
		UserID:            a.UserID,
		ActionType:        a.Kind,
		Payload:           a.Payload,
		Description:       a.Description,
		TargetType:        a.TargetType,
		TargetID:          a.TargetID,
		GroupID:           a.GroupID,
		UndoneAt:          a.UndoneAt,
		UndoneBy:          a.UndoneBy,
		HasFailedRollback: a.HasFailedRollback,
		RollbackStatus:    a.RollbackStatus,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
