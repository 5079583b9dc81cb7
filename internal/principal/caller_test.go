package principal

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
)

func TestCallerGates(t *testing.T) {
	tests := []struct {
		name                                 string
		caller                               Caller
		approved, member, moderator, isAdmin bool
	}{
		{"anonymous", Anonymous(), false, false, false, false},
		{"pending member", Caller{ID: uuid.New(), AccountStatus: models.AccountPending, Role: models.RoleMember, Registered: true}, false, true, false, false},
		{"approved member", Caller{ID: uuid.New(), AccountStatus: models.AccountApproved, Role: models.RoleMember, Registered: true}, true, true, false, false},
		{"approved moderator", Caller{ID: uuid.New(), AccountStatus: models.AccountApproved, Role: models.RoleModerator, Registered: true}, true, true, true, false},
		{"suspended admin", Caller{ID: uuid.New(), AccountStatus: models.AccountSuspended, Role: models.RoleAdmin, Registered: true}, false, false, false, false},
		{"approved admin", Caller{ID: uuid.New(), AccountStatus: models.AccountApproved, Role: models.RoleAdmin, Registered: true}, true, true, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.caller.Approved(); got != tc.approved {
				t.Errorf("Approved() = %v, want %v", got, tc.approved)
			}
			if got := tc.caller.Member(); got != tc.member {
				t.Errorf("Member() = %v, want %v", got, tc.member)
			}
			if got := tc.caller.Moderator(); got != tc.moderator {
				t.Errorf("Moderator() = %v, want %v", got, tc.moderator)
			}
			if got := tc.caller.Admin(); got != tc.isAdmin {
				t.Errorf("Admin() = %v, want %v", got, tc.isAdmin)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		page, limit, max   int
		wantPage, wantLimt int
	}{
		{0, 0, 50, 1, 20},
		{3, 100, 50, 3, 50},
		{2, 10, 50, 2, 10},
	}
	for _, tc := range tests {
		p, l := Clamp(tc.page, tc.limit, tc.max)
		if p != tc.wantPage || l != tc.wantLimt {
			t.Errorf("Clamp(%d, %d, %d) = (%d, %d), want (%d, %d)", tc.page, tc.limit, tc.max, p, l, tc.wantPage, tc.wantLimt)
		}
	}
}
