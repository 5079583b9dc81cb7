package models

// SignalStatus is the moderation state of a signal. Only the transitions in
// signalTransitions are legal; removed is terminal.
type SignalStatus string

const (
	StatusUnderReview SignalStatus = "under_review"
	StatusActive      SignalStatus = "active"
	StatusHidden      SignalStatus = "hidden"
	StatusRemoved     SignalStatus = "removed"
)

var signalTransitions = map[SignalStatus][]SignalStatus{
	StatusUnderReview: {StatusActive, StatusRemoved},
	StatusActive:      {StatusHidden, StatusRemoved},
	StatusHidden:      {StatusActive, StatusRemoved},
	StatusRemoved:     nil,
}

func (s SignalStatus) Valid() bool {
	_, ok := signalTransitions[s]
	return ok
}

func (s SignalStatus) Terminal() bool {
	return s.Valid() && len(signalTransitions[s]) == 0
}

func (s SignalStatus) CanTransitionTo(to SignalStatus) bool {
	for _, next := range signalTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ModerationAction names a transition from the moderator's point of view.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionHide    ModerationAction = "hide"
	ActionRestore ModerationAction = "restore"
	ActionRemove  ModerationAction = "remove"
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionHide, ActionRestore, ActionRemove:
		return true
	}
	return false
}

// Target resolves the status an action leads to when applied from the given
// status. ok is false when the action does not apply there.
func (a ModerationAction) Target(from SignalStatus) (SignalStatus, bool) {
	var to SignalStatus
	switch a {
	case ActionApprove:
		if from != StatusUnderReview {
			return "", false
		}
		to = StatusActive
	case ActionReject:
		if from != StatusUnderReview {
			return "", false
		}
		to = StatusRemoved
	case ActionHide:
		to = StatusHidden
	case ActionRestore:
		if from != StatusHidden {
			return "", false
		}
		to = StatusActive
	case ActionRemove:
		to = StatusRemoved
	default:
		return "", false
	}
	return to, from.CanTransitionTo(to)
}

// ActionFor names the transition from -> to for the audit trail.
func ActionFor(from, to SignalStatus) ModerationAction {
	switch {
	case from == StatusUnderReview && to == StatusActive:
		return ActionApprove
	case from == StatusUnderReview && to == StatusRemoved:
		return ActionReject
	case to == StatusHidden:
		return ActionHide
	case from == StatusHidden && to == StatusActive:
		return ActionRestore
	default:
		return ActionRemove
	}
}
