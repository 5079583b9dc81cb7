package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
)

func loadSignal(t *testing.T, f *fixture, id uuid.UUID) models.Signal {
	t.Helper()
	var s models.Signal
	if err := f.db.First(&s, "id = ?", id).Error; err != nil {
		t.Fatalf("First() error = %v", err)
	}
	return s
}

func countVotes(t *testing.T, f *fixture, signalID uuid.UUID, vt models.VoteType) int {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Vote{}).Where("signal_id = ? AND vote_type = ?", signalID, vt).Count(&n).Error; err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	return int(n)
}

func TestCastVoteToggle(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	voter := f.member(t, models.AccountApproved, models.RoleMember)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	steps := []struct {
		vote      models.VoteType
		wantVote  string
		wantGreen int
		wantRed   int
	}{
		{models.VoteGreen, "green", 1, 0},
		{models.VoteGreen, "none", 0, 0},
		{models.VoteRed, "red", 0, 1},
		{models.VoteGreen, "green", 1, 0},
	}
	for i, step := range steps {
		resp, err := f.engagement.CastVote(ctx, voter, s.ID, step.vote)
		if err != nil {
			t.Fatalf("step %d: CastVote() error = %v", i, err)
		}
		if resp.Vote != step.wantVote || resp.GreenVotes != step.wantGreen || resp.RedVotes != step.wantRed {
			t.Fatalf("step %d: got %+v, want vote=%s green=%d red=%d", i, resp, step.wantVote, step.wantGreen, step.wantRed)
		}
		stored := loadSignal(t, f, s.ID)
		if stored.GreenVotes != countVotes(t, f, s.ID, models.VoteGreen) || stored.RedVotes != countVotes(t, f, s.ID, models.VoteRed) {
			t.Fatalf("step %d: counters %d/%d disagree with vote rows", i, stored.GreenVotes, stored.RedVotes)
		}
	}
}

func TestCastVoteRejections(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	pending := f.member(t, models.AccountPending, models.RoleMember)
	voter := f.member(t, models.AccountApproved, models.RoleMember)

	active := f.activeSignal(t, author, mod, validSignalRequest())
	underReview, err := f.signals.Create(ctx, author, validSignalRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.engagement.CastVote(ctx, pending, active.ID, models.VoteGreen); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("pending CastVote() error = %v, want forbidden", err)
	}
	if _, err := f.engagement.CastVote(ctx, voter, active.ID, models.VoteType("blue")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad type CastVote() error = %v, want validation", err)
	}
	if _, err := f.engagement.CastVote(ctx, voter, underReview.ID, models.VoteGreen); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("under_review CastVote() error = %v, want not found", err)
	}
	if _, err := f.engagement.CastVote(ctx, voter, uuid.New(), models.VoteGreen); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing signal CastVote() error = %v, want not found", err)
	}
}

func TestCastVoteConcurrentCountersStayConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	voters := make([]principal.Caller, 8)
	for i := range voters {
		voters[i] = f.member(t, models.AccountApproved, models.RoleMember)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(voters)*3)
	for i, v := range voters {
		wg.Add(1)
		go func(i int, v principal.Caller) {
			defer wg.Done()
			vt := models.VoteGreen
			if i%2 == 1 {
				vt = models.VoteRed
			}
			// vote, switch, switch back: every voter ends on vt
			for _, next := range []models.VoteType{vt, other(vt), vt} {
				if _, err := f.engagement.CastVote(ctx, v, s.ID, next); err != nil {
					errs <- err
				}
			}
		}(i, v)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CastVote() error = %v", err)
	}

	stored := loadSignal(t, f, s.ID)
	if stored.GreenVotes != 4 || stored.RedVotes != 4 {
		t.Errorf("counters = %d/%d, want 4/4", stored.GreenVotes, stored.RedVotes)
	}
	if stored.GreenVotes != countVotes(t, f, s.ID, models.VoteGreen) || stored.RedVotes != countVotes(t, f, s.ID, models.VoteRed) {
		t.Errorf("counters disagree with vote rows")
	}
}

func TestCastVoteSameCallerDoubleClicks(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	voter := f.member(t, models.AccountApproved, models.RoleMember)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	const clicks = 9
	var wg sync.WaitGroup
	errs := make(chan error, clicks)
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engagement.CastVote(ctx, voter, s.ID, models.VoteGreen); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CastVote() error = %v", err)
	}

	var rows int64
	if err := f.db.Model(&models.Vote{}).Where("signal_id = ? AND user_id = ?", s.ID, voter.ID).Count(&rows).Error; err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if rows > 1 {
		t.Fatalf("vote rows for one caller = %d, want at most 1", rows)
	}
	// Every click toggles, so an odd number of clicks leaves one live vote.
	if rows != clicks%2 {
		t.Errorf("vote rows = %d, want %d", rows, clicks%2)
	}

	stored := loadSignal(t, f, s.ID)
	if int64(stored.GreenVotes+stored.RedVotes) != rows {
		t.Errorf("counters = %d/%d, want total %d", stored.GreenVotes, stored.RedVotes, rows)
	}
	if stored.GreenVotes != countVotes(t, f, s.ID, models.VoteGreen) || stored.RedVotes != 0 {
		t.Errorf("counters disagree with vote rows")
	}
}

func other(v models.VoteType) models.VoteType {
	if v == models.VoteGreen {
		return models.VoteRed
	}
	return models.VoteGreen
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	commenter := f.member(t, models.AccountApproved, models.RoleMember)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	c, err := f.engagement.AddComment(ctx, commenter, s.ID, "  same experience here, very polite  ")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if c.Content != "same experience here, very polite" {
		t.Errorf("Content = %q, want trimmed", c.Content)
	}
	if got := loadSignal(t, f, s.ID).CommentCount; got != 1 {
		t.Errorf("CommentCount = %d, want 1", got)
	}

	if _, err := f.engagement.AddComment(ctx, commenter, s.ID, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank AddComment() error = %v, want validation", err)
	}
	if _, err := f.engagement.AddComment(ctx, commenter, s.ID, "check www.example.com for more"); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("url AddComment() error = %v, want policy violation", err)
	}
	if got := loadSignal(t, f, s.ID).CommentCount; got != 1 {
		t.Errorf("CommentCount after rejections = %d, want 1", got)
	}

	views, err := f.engagement.ListComments(ctx, commenter, s.ID, 1, 20)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(views) != 1 || views[0].ID != c.ID {
		t.Errorf("ListComments() = %+v, want the one comment", views)
	}

	pending := f.member(t, models.AccountPending, models.RoleMember)
	if _, err := f.engagement.ListComments(ctx, pending, s.ID, 1, 20); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("pending ListComments() error = %v, want forbidden", err)
	}
}

func TestAddCommentOnHiddenSignal(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	if _, err := f.signals.Transition(ctx, mod, s.ID, &dto.TransitionRequest{Action: "hide"}); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if _, err := f.engagement.AddComment(ctx, author, s.ID, "still here"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("AddComment() on hidden error = %v, want not found", err)
	}
}

func TestRecordView(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	author := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	pending := f.member(t, models.AccountPending, models.RoleMember)
	banned := f.member(t, models.AccountBanned, models.RoleMember)
	s := f.activeSignal(t, author, mod, validSignalRequest())

	for i := 1; i <= 2; i++ {
		resp, err := f.engagement.RecordView(ctx, pending, s.ID)
		if err != nil {
			t.Fatalf("RecordView() error = %v", err)
		}
		if resp.ViewCount != i {
			t.Errorf("ViewCount = %d, want %d", resp.ViewCount, i)
		}
	}

	if _, err := f.engagement.RecordView(ctx, banned, s.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("banned RecordView() error = %v, want forbidden", err)
	}
	if _, err := f.engagement.RecordView(ctx, pending, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing RecordView() error = %v, want not found", err)
	}
}
