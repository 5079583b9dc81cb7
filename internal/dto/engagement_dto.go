package dto

import (
	"time"

	"github.com/google/uuid"
)

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

// VoteResponse reports the caller's live vote after the toggle; Vote is
// "none" when the toggle removed it.
type VoteResponse struct {
	SignalID   uuid.UUID `json:"signal_id"`
	Vote       string    `json:"vote"`
	GreenVotes int       `json:"green_votes"`
	RedVotes   int       `json:"red_votes"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type CommentView struct {
	ID        uuid.UUID `json:"id"`
	SignalID  uuid.UUID `json:"signal_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ViewResponse struct {
	SignalID  uuid.UUID `json:"signal_id"`
	ViewCount int       `json:"view_count"`
}
