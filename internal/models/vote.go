package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteType string

const (
	VoteGreen VoteType = "green"
	VoteRed   VoteType = "red"
)

func (v VoteType) Valid() bool {
	return v == VoteGreen || v == VoteRed
}

// Column is the signal counter this vote type maintains.
func (v VoteType) Column() string {
	if v == VoteGreen {
		return "green_votes"
	}
	return "red_votes"
}

// Vote is the single live vote a member holds on a signal.
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SignalID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_signal_user" json:"signal_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_signal_user;index" json:"user_id"`
	VoteType  VoteType  `gorm:"size:10;not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
