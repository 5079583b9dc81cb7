package dto

import "time"

type InviteResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
}

type RedeemInviteRequest struct {
	Code string `json:"code"`
}

type ValidateInviteResponse struct {
	Valid bool `json:"valid"`
}
