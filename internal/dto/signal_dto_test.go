package dto

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestNewSignalViewRedacts(t *testing.T) {
	s := &models.Signal{
		ID:                    uuid.New(),
		AuthorID:              uuid.New(),
		SubjectFirstName:      "Jordan",
		SubjectLastInitial:    strPtr("K"),
		SubjectIdentifierHash: strPtr("abc"),
		SubjectIdentifierMask: strPtr("***-***-4567"),
		SubjectPlatform:       strPtr("Hinge"),
		Description:           "Showed up late and was rude to the waiter.",
		ImageRef:              strPtr("blob://x"),
		OverallSignal:         models.ColorRed,
		GreenVotes:            2,
	}

	full := NewSignalView(s, true)
	if full.Redacted || full.Description == "" || full.SubjectFirstName != "Jordan" || full.SubjectIdentifierMask == nil {
		t.Errorf("full view = %+v, want unredacted", full)
	}

	red := NewSignalView(s, false)
	if !red.Redacted {
		t.Error("Redacted = false, want true")
	}
	if red.SubjectFirstName != "J***" {
		t.Errorf("SubjectFirstName = %q, want J***", red.SubjectFirstName)
	}
	if red.Description != "" || red.ImageRef != nil || red.SubjectLastInitial != nil || red.SubjectPlatform != nil || red.SubjectIdentifierMask != nil {
		t.Errorf("redacted view leaked details: %+v", red)
	}
	if red.GreenVotes != 2 || red.GreenFlags == nil {
		t.Errorf("redacted view lost counters or flags: %+v", red)
	}
}
