package services

import (
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
)

func TestLookup(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	m := f.member(t, models.AccountPending, models.RoleMember)

	p, err := f.profiles.Lookup(ctx, m.ID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if p.ID != m.ID || p.AccountStatus != models.AccountPending {
		t.Errorf("Lookup() = %+v", p)
	}

	if _, err := f.profiles.Lookup(ctx, uuid.New()); !errors.Is(err, ErrNoProfile) {
		t.Errorf("Lookup(unknown) error = %v, want ErrNoProfile", err)
	}
}

func TestSetAccountStatus(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	admin := f.member(t, models.AccountApproved, models.RoleAdmin)
	target := f.member(t, models.AccountPending, models.RoleMember)

	// warm the cache so the update has something to invalidate
	if _, err := f.profiles.Lookup(ctx, target.ID); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	p, err := f.profiles.SetAccountStatus(ctx, admin, target.ID, models.AccountApproved, "vouched for")
	if err != nil {
		t.Fatalf("SetAccountStatus() error = %v", err)
	}
	if p.AccountStatus != models.AccountApproved {
		t.Errorf("AccountStatus = %q, want approved", p.AccountStatus)
	}

	cached, err := f.profiles.Lookup(ctx, target.ID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !principal.FromProfile(cached).Approved() {
		t.Error("Lookup() returned the stale profile after the update")
	}

	var audit models.AuditLog
	if err := f.db.Where("target_id = ? AND action = ?", target.ID, "set_account_status").First(&audit).Error; err != nil {
		t.Fatalf("audit row missing: %v", err)
	}
	if audit.FromState != "pending" || audit.ToState != "approved" || audit.Reason != "vouched for" {
		t.Errorf("audit = %+v", audit)
	}

	if _, err := f.profiles.SetAccountStatus(ctx, admin, admin.ID, models.AccountBanned, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("self SetAccountStatus() error = %v, want conflict", err)
	}
	if _, err := f.profiles.SetAccountStatus(ctx, admin, target.ID, models.AccountStatus("vip"), ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status error = %v, want validation", err)
	}
	if _, err := f.profiles.SetAccountStatus(ctx, admin, uuid.New(), models.AccountBanned, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown member error = %v, want not found", err)
	}

	mod := f.member(t, models.AccountApproved, models.RoleModerator)
	if _, err := f.profiles.SetAccountStatus(ctx, mod, target.ID, models.AccountBanned, ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("moderator SetAccountStatus() error = %v, want forbidden", err)
	}
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	admin := f.member(t, models.AccountApproved, models.RoleAdmin)
	target := f.member(t, models.AccountApproved, models.RoleMember)

	p, err := f.profiles.SetRole(ctx, admin, target.ID, models.RoleModerator)
	if err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if p.Role != models.RoleModerator {
		t.Errorf("Role = %q, want moderator", p.Role)
	}

	if _, err := f.profiles.SetRole(ctx, admin, admin.ID, models.RoleMember); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("self SetRole() error = %v, want conflict", err)
	}

	members, total, err := f.profiles.ListMembers(ctx, admin, "", "moderator", 1, 20)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if total != 1 || len(members) != 1 || members[0].ID != target.ID {
		t.Errorf("ListMembers(moderator) = %d (total %d), want the promoted member", len(members), total)
	}
}

func TestBootstrapAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	id := uuid.New()

	for i := 0; i < 2; i++ {
		n, err := f.profiles.BootstrapAdmins(ctx, []uuid.UUID{id}, "root@example.com")
		if err != nil {
			t.Fatalf("BootstrapAdmins() #%d error = %v", i, err)
		}
		if n != 1 {
			t.Errorf("BootstrapAdmins() = %d, want 1", n)
		}
	}

	var count int64
	f.db.Model(&models.Profile{}).Where("id = ?", id).Count(&count)
	if count != 1 {
		t.Fatalf("profiles = %d, want 1", count)
	}
	p, err := f.profiles.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !principal.FromProfile(p).Admin() {
		t.Errorf("bootstrapped profile = %+v, want approved admin", p)
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	m := f.member(t, models.AccountApproved, models.RoleMember)

	p, err := f.profiles.Me(ctx, m)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if p.ID != m.ID {
		t.Errorf("Me() = %s, want %s", p.ID, m.ID)
	}
	if p.SignalsPosted != 0 || p.ActiveInvite != nil {
		t.Errorf("fresh Me() stats = %d, %+v; want 0, nil", p.SignalsPosted, p.ActiveInvite)
	}
	if _, err := f.profiles.Me(ctx, principal.Anonymous()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("anonymous Me() error = %v, want not found", err)
	}
}

func TestMeStats(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	m := f.member(t, models.AccountApproved, models.RoleMember)
	mod := f.member(t, models.AccountApproved, models.RoleModerator)

	f.activeSignal(t, m, mod, validSignalRequest())
	f.activeSignal(t, m, mod, validSignalRequest())
	if _, err := f.signals.Create(ctx, m, validSignalRequest()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	issued, err := f.invites.Issue(ctx, m)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	p, err := f.profiles.Me(ctx, m)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if p.SignalsPosted != 2 {
		t.Errorf("SignalsPosted = %d, want 2 (under_review not counted)", p.SignalsPosted)
	}
	if p.ActiveInvite == nil || p.ActiveInvite.Code != issued.Code {
		t.Errorf("ActiveInvite = %+v, want %s", p.ActiveInvite, issued.Code)
	}

	f.clock.Advance(8 * 24 * time.Hour)
	p, err = f.profiles.Me(ctx, m)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if p.ActiveInvite != nil {
		t.Errorf("ActiveInvite after expiry = %+v, want nil", p.ActiveInvite)
	}
}
