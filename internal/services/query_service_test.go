package services

import (
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
)

func feedIDs(resp *dto.FeedResponse) []uuid.UUID {
	ids := make([]uuid.UUID, len(resp.Items))
	for i, item := range resp.Items {
		ids[i] = item.ID
	}
	return ids
}

func TestFeedOnlyActive(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	reader := f.member(t, models.AccountApproved, models.RoleMember)

	active := f.activeSignal(t, author, mod, validSignalRequest())
	if _, err := f.signals.Create(ctx, author, validSignalRequest()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	hidden := f.activeSignal(t, author, mod, validSignalRequest())
	if _, err := f.signals.Transition(ctx, mod, hidden.ID, &dto.TransitionRequest{Action: "hide"}); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	// moderators get the same public feed as anyone else
	for name, caller := range map[string]principal.Caller{"reader": reader, "moderator": mod} {
		resp, err := f.query.Feed(ctx, caller, FeedQuery{})
		if err != nil {
			t.Fatalf("%s Feed() error = %v", name, err)
		}
		ids := feedIDs(resp)
		if len(ids) != 1 || ids[0] != active.ID {
			t.Errorf("%s Feed() = %v, want only %s", name, ids, active.ID)
		}
	}
}

func TestFeedSortingAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	reader := f.member(t, models.AccountApproved, models.RoleMember)

	older := f.activeSignal(t, author, mod, validSignalRequest())
	newer := f.activeSignal(t, author, mod, validSignalRequest())
	if _, err := f.engagement.AddComment(ctx, reader, older.ID, "agreed, lovely person"); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	resp, err := f.query.Feed(ctx, reader, FeedQuery{})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 2 || ids[0] != newer.ID {
		t.Errorf("recent Feed() = %v, want newest first", ids)
	}

	resp, err = f.query.Feed(ctx, reader, FeedQuery{Sort: SortEngagement})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 2 || ids[0] != older.ID {
		t.Errorf("engagement Feed() = %v, want commented signal first", ids)
	}
	if resp.Items[0].Score == nil || *resp.Items[0].Score != 2 {
		t.Errorf("Score = %v, want 2", resp.Items[0].Score)
	}

	resp, err = f.query.Feed(ctx, reader, FeedQuery{Sort: SortOldest, Limit: 1})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 1 || ids[0] != older.ID || !resp.HasMore {
		t.Errorf("oldest page 1 = %v (more=%v), want %s with more", ids, resp.HasMore, older.ID)
	}
	resp, err = f.query.Feed(ctx, reader, FeedQuery{Sort: SortOldest, Limit: 1, Page: 2})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 1 || ids[0] != newer.ID || resp.HasMore {
		t.Errorf("oldest page 2 = %v (more=%v), want %s and no more", ids, resp.HasMore, newer.ID)
	}
}

func TestFeedFilters(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	reader := f.member(t, models.AccountApproved, models.RoleMember)

	old := f.activeSignal(t, author, mod, validSignalRequest())
	f.clock.Advance(10 * 24 * time.Hour)
	redReq := validSignalRequest()
	redReq.OverallSignal = "red"
	red := f.activeSignal(t, author, mod, redReq)

	resp, err := f.query.Feed(ctx, reader, FeedQuery{Window: "week"})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 1 || ids[0] != red.ID {
		t.Errorf("week Feed() = %v, want only %s", ids, red.ID)
	}

	resp, err = f.query.Feed(ctx, reader, FeedQuery{Color: "GREEN"})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if ids := feedIDs(resp); len(ids) != 1 || ids[0] != old.ID {
		t.Errorf("green Feed() = %v, want only %s", ids, old.ID)
	}

	for _, q := range []FeedQuery{{Color: "purple"}, {Window: "decade"}, {Sort: "random"}} {
		if _, err := f.query.Feed(ctx, reader, q); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Feed(%+v) error = %v, want validation", q, err)
		}
	}
}

func TestFeedRedactsForPendingMembers(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	pending := f.member(t, models.AccountPending, models.RoleMember)
	suspended := f.member(t, models.AccountSuspended, models.RoleMember)
	f.activeSignal(t, author, mod, validSignalRequest())

	resp, err := f.query.Feed(ctx, pending, FeedQuery{})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(resp.Items) != 1 || !resp.Items[0].Redacted || resp.Items[0].Description != "" {
		t.Errorf("pending Feed() items = %+v, want one redacted item", resp.Items)
	}

	if _, err := f.query.Feed(ctx, suspended, FeedQuery{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("suspended Feed() error = %v, want forbidden", err)
	}
}

func TestSearchByIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	reader := f.member(t, models.AccountApproved, models.RoleMember)

	match := f.activeSignal(t, author, mod, validSignalRequest())
	otherReq := validSignalRequest()
	otherReq.SubjectIdentifier = "@someone_else"
	f.activeSignal(t, author, mod, otherReq)
	if _, err := f.signals.Create(ctx, author, validSignalRequest()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, err := f.query.Search(ctx, reader, "15551234567", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Locked {
		t.Fatal("Search() locked for an approved member")
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != match.ID {
		t.Fatalf("Search() = %+v, want only %s", resp.Results, match.ID)
	}
	if resp.Results[0].SubjectIdentifierMask == nil || *resp.Results[0].SubjectIdentifierMask != "***-***-4567" {
		t.Errorf("mask = %v, want ***-***-4567", resp.Results[0].SubjectIdentifierMask)
	}

	resp, err = f.query.Search(ctx, reader, "(555) 123-4567", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Search() without country code = %d results, want 0", len(resp.Results))
	}

	resp, err = f.query.Search(ctx, reader, "+1 555 123 4567", "red")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Search(red) = %d results, want 0", len(resp.Results))
	}

	if _, err := f.query.Search(ctx, reader, "no way!", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Search(invalid) error = %v, want validation", err)
	}
}

func TestSearchLockedForPendingMembers(t *testing.T) {
	f := newFixture(t)
	pending := f.member(t, models.AccountPending, models.RoleMember)

	resp, err := f.query.Search(t.Context(), pending, "15551234567", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !resp.Locked || len(resp.Results) != 0 {
		t.Errorf("Search() = %+v, want locked and empty", resp)
	}
}
