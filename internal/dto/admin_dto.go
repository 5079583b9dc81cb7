package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
)

type SignupSettings struct {
	RequireInviteCode bool `json:"require_invite_code"`
}

type UpdateSettingsRequest struct {
	RequireInviteCode *bool `json:"require_invite_code"`
}

// AdminOverview is the moderation dashboard: headline counts plus the
// newest items waiting for a decision.
type AdminOverview struct {
	TotalSignals   int64                  `json:"total_signals"`
	PendingSignals int64                  `json:"pending_signals"`
	TotalMembers   int64                  `json:"total_members"`
	PendingMembers int64                  `json:"pending_members"`
	PendingReports int64                  `json:"pending_reports"`
	RecentSignals  []ModerationSignalView `json:"recent_signals"`
	RecentMembers  []PendingMember        `json:"recent_members"`
}

type PendingMember struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MeResponse is the caller's profile with the numbers shown on their
// profile page.
type MeResponse struct {
	models.Profile
	SignalsPosted int64           `json:"signals_posted"`
	ActiveInvite  *InviteResponse `json:"active_invite,omitempty"`
}
