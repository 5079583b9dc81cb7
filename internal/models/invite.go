package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite is a single-use, expiring admission code. It is redeemable iff
// UsedBy is nil and now < ExpiresAt.
type Invite struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	Code      string     `gorm:"size:16;not null;uniqueIndex" json:"code"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	UsedBy    *uuid.UUID `gorm:"type:uuid;index" json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (i *Invite) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Invite) Redeemable(now time.Time) bool {
	return i.UsedBy == nil && now.Before(i.ExpiresAt)
}
