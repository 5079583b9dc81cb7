package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records every moderation and membership change.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action     string         `gorm:"size:50;not null;index" json:"action"`
	TargetType string         `gorm:"size:20;not null" json:"target_type"`
	TargetID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"target_id"`
	FromState  string         `gorm:"size:20" json:"from_state,omitempty"`
	ToState    string         `gorm:"size:20" json:"to_state,omitempty"`
	Reason     string         `gorm:"size:500" json:"reason,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
