// Package events fans moderation transitions out to observers once the
// transition has committed.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransitionEvent describes one committed status change of a signal.
type TransitionEvent struct {
	SignalID uuid.UUID `json:"signal_id"`
	ActorID  uuid.UUID `json:"actor_id"`
	Action   string    `json:"action"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// TransitionHook is notified synchronously after a transition commits.
// A hook error never undoes the transition.
type TransitionHook interface {
	OnTransition(ctx context.Context, ev TransitionEvent) error
}

// HookFunc adapts a function to TransitionHook.
type HookFunc func(ctx context.Context, ev TransitionEvent) error

func (f HookFunc) OnTransition(ctx context.Context, ev TransitionEvent) error {
	return f(ctx, ev)
}
