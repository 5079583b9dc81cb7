package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a member's flag against a signal. Its resolution can drive the
// signal through the moderation state machine.
type Report struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SignalID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"signal_id"`
	ReporterID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reason          string       `gorm:"not null;size:100" json:"reason"`
	Details         string       `gorm:"size:1000" json:"details,omitempty"`
	Status          ReportStatus `gorm:"not null;size:20;index" json:"status"`
	ResolvedBy      *uuid.UUID   `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolutionNotes string       `gorm:"size:1000" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
