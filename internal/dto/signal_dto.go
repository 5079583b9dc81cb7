package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
)

type CreateSignalRequest struct {
	SubjectFirstName   string   `json:"subject_first_name"`
	SubjectLastInitial string   `json:"subject_last_initial"`
	SubjectIdentifier  string   `json:"subject_identifier"`
	SubjectPlatform    string   `json:"subject_platform"`
	Description        string   `json:"description"`
	GreenFlags         []string `json:"green_flags"`
	RedFlags           []string `json:"red_flags"`
	ImageRef           string   `json:"image_ref"`
	OverallSignal      string   `json:"overall_signal"`
}

// TransitionRequest names either the target status or a moderation action.
type TransitionRequest struct {
	To     string `json:"to"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// SignalView is the public projection of a signal. For callers who are not
// approved members it is redacted: the first name is masked and every other
// subject detail, the description and the image are dropped.
type SignalView struct {
	ID                    uuid.UUID `json:"id"`
	SubjectFirstName      string    `json:"subject_first_name"`
	SubjectLastInitial    *string   `json:"subject_last_initial,omitempty"`
	SubjectIdentifierMask *string   `json:"subject_identifier_mask,omitempty"`
	SubjectPlatform       *string   `json:"subject_platform,omitempty"`
	Description           string    `json:"description,omitempty"`
	GreenFlags            []string  `json:"green_flags"`
	RedFlags              []string  `json:"red_flags"`
	ImageRef              *string   `json:"image_ref,omitempty"`
	OverallSignal         string    `json:"overall_signal"`
	GreenVotes            int       `json:"green_votes"`
	RedVotes              int       `json:"red_votes"`
	CommentCount          int       `json:"comment_count"`
	ViewCount             int       `json:"view_count"`
	Score                 *float64  `json:"score,omitempty"`
	Redacted              bool      `json:"redacted"`
	CreatedAt             time.Time `json:"created_at"`
}

// ModerationSignalView is what moderators see in the review queue.
type ModerationSignalView struct {
	SignalView
	AuthorID     uuid.UUID `json:"author_id"`
	Status       string    `json:"status"`
	FlaggedCount int       `json:"flagged_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSignalView(s *models.Signal, full bool) SignalView {
	v := SignalView{
		ID:            s.ID,
		GreenFlags:    nonNil(s.GreenFlags),
		RedFlags:      nonNil(s.RedFlags),
		OverallSignal: string(s.OverallSignal),
		GreenVotes:    s.GreenVotes,
		RedVotes:      s.RedVotes,
		CommentCount:  s.CommentCount,
		ViewCount:     s.ViewCount,
		CreatedAt:     s.CreatedAt,
	}
	if !full {
		v.SubjectFirstName = maskName(s.SubjectFirstName)
		v.Redacted = true
		return v
	}
	v.SubjectFirstName = s.SubjectFirstName
	v.SubjectLastInitial = s.SubjectLastInitial
	v.SubjectIdentifierMask = s.SubjectIdentifierMask
	v.SubjectPlatform = s.SubjectPlatform
	v.Description = s.Description
	v.ImageRef = s.ImageRef
	return v
}

func NewModerationSignalView(s *models.Signal) ModerationSignalView {
	return ModerationSignalView{
		SignalView:   NewSignalView(s, true),
		AuthorID:     s.AuthorID,
		Status:       string(s.Status),
		FlaggedCount: s.FlaggedCount,
		UpdatedAt:    s.UpdatedAt,
	}
}

func maskName(name string) string {
	for _, r := range name {
		return string(r) + "***"
	}
	return "***"
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

type FeedResponse struct {
	Items   []SignalView `json:"items"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
	HasMore bool         `json:"has_more"`
}

// SearchResponse distinguishes a locked search from an empty one.
type SearchResponse struct {
	Locked  bool         `json:"locked"`
	Results []SignalView `json:"results"`
}
