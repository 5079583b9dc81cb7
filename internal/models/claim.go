package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimVerified ClaimStatus = "verified"
	ClaimRejected ClaimStatus = "rejected"
)

// SubjectClaim is raised by a member who says a signal is about them.
// A verified claim forces the signal to removed.
type SubjectClaim struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SignalID            uuid.UUID   `gorm:"type:uuid;not null;index" json:"signal_id"`
	ClaimantID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"claimant_id"`
	EvidenceDescription string      `gorm:"type:text;not null" json:"evidence_description"`
	Status              ClaimStatus `gorm:"not null;size:20;index" json:"status"`
	ResolvedBy          *uuid.UUID  `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolutionNotes     string      `gorm:"size:1000" json:"resolution_notes,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func (c *SubjectClaim) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
