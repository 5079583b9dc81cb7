package models

import "testing"

func TestSignalTransitionTable(t *testing.T) {
	legal := map[[2]SignalStatus]bool{
		{StatusUnderReview, StatusActive}:  true,
		{StatusUnderReview, StatusRemoved}: true,
		{StatusActive, StatusHidden}:       true,
		{StatusActive, StatusRemoved}:      true,
		{StatusHidden, StatusActive}:       true,
		{StatusHidden, StatusRemoved}:      true,
	}
	all := []SignalStatus{StatusUnderReview, StatusActive, StatusHidden, StatusRemoved}
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]SignalStatus{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
	if !StatusRemoved.Terminal() || StatusHidden.Terminal() {
		t.Fatalf("only removed is terminal")
	}
	if SignalStatus("approved").Valid() {
		t.Fatalf("free-text status accepted")
	}
}

func TestModerationActionTarget(t *testing.T) {
	cases := []struct {
		action ModerationAction
		from   SignalStatus
		to     SignalStatus
		ok     bool
	}{
		{ActionApprove, StatusUnderReview, StatusActive, true},
		{ActionApprove, StatusHidden, "", false},
		{ActionReject, StatusUnderReview, StatusRemoved, true},
		{ActionReject, StatusActive, "", false},
		{ActionHide, StatusActive, StatusHidden, true},
		{ActionHide, StatusUnderReview, StatusHidden, false},
		{ActionRestore, StatusHidden, StatusActive, true},
		{ActionRestore, StatusRemoved, "", false},
		{ActionRemove, StatusHidden, StatusRemoved, true},
		{ActionRemove, StatusRemoved, StatusRemoved, false},
	}
	for _, tc := range cases {
		to, ok := tc.action.Target(tc.from)
		if ok != tc.ok || (ok && to != tc.to) {
			t.Errorf("%s from %s = (%q, %v), want (%q, %v)", tc.action, tc.from, to, ok, tc.to, tc.ok)
		}
	}
}

func TestActionFor(t *testing.T) {
	if a := ActionFor(StatusUnderReview, StatusActive); a != ActionApprove {
		t.Fatalf("ActionFor() = %q", a)
	}
	if a := ActionFor(StatusHidden, StatusActive); a != ActionRestore {
		t.Fatalf("ActionFor() = %q", a)
	}
	if a := ActionFor(StatusActive, StatusRemoved); a != ActionRemove {
		t.Fatalf("ActionFor() = %q", a)
	}
}
