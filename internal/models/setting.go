package models

import (
	"time"

	"github.com/google/uuid"
)

// SettingRequireInviteCode switches admission between invite-only ("true")
// and open signup ("false").
const SettingRequireInviteCode = "require_invite_code"

// AppSetting is one admin-editable runtime switch.
type AppSetting struct {
	Key       string     `gorm:"size:64;primaryKey" json:"key"`
	Value     string     `gorm:"size:255;not null" json:"value"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
