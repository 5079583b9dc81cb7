package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountApproved  AccountStatus = "approved"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountPending, AccountApproved, AccountSuspended, AccountBanned:
		return true
	}
	return false
}

// Blocked is true for members who may not act at all.
func (s AccountStatus) Blocked() bool {
	return s == AccountSuspended || s == AccountBanned
}

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Profile is the member record. ID is the identity provider's subject; the
// row is created on invite redemption or by the bootstrap seed.
type Profile struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string        `gorm:"size:255;index" json:"email,omitempty"`
	AccountStatus    AccountStatus `gorm:"size:20;not null;index" json:"account_status"`
	Role             Role          `gorm:"size:20;not null;index" json:"role"`
	InvitedBy        *uuid.UUID    `gorm:"type:uuid" json:"invited_by,omitempty"`
	InviteCode       *string       `gorm:"size:16" json:"invite_code,omitempty"`
	InvitesRemaining int           `gorm:"not null;default:0" json:"invites_remaining"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
