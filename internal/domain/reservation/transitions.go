package reservation

import (
	"errors"
	"fmt"
)

// StateTransitionError names both the current and the requested state so a
// caller can tell "already done" apart from a programming error.
type StateTransitionError struct {
	From      Status
	Requested Status
	Event     Event
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s: %s -> %s", e.Event, e.From, e.Requested)
}

func IsStateTransitionError(err error) bool {
	var e *StateTransitionError
	return errors.As(err, &e)
}

// transitions is the lifecycle table. resolve_dispute is absent because its
// target depends on the mediator's outcome; Resolve handles it directly.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove: StatusConfirmed,
		EventReject:  StatusCancelled,
		EventCancel:  StatusCancelled,
		EventExpire:  StatusExpired,
	},
	StatusConfirmed: {
		EventStart:   StatusActive,
		EventCancel:  StatusCancelled,
		EventDispute: StatusDisputed,
	},
	StatusActive: {
		EventComplete: StatusCompleted,
		EventCancel:   StatusCancelled,
		EventDispute:  StatusDisputed,
	},
}

func nextState(from Status, ev Event) (Status, bool) {
	targets, ok := transitions[from]
	if !ok {
		return "", false
	}
	to, ok := targets[ev]
	return to, ok
}

// guard enforces the table with idempotent re-entry: if the reservation is
// already in the state ev would produce, it reports a no-op; any other
// mismatch is a StateTransitionError.
func guard(current Status, ev Event) (to Status, noop bool, err error) {
	to, ok := nextState(current, ev)
	if ok {
		return to, false, nil
	}

	// Repeating an event whose target we already reached is a duplicate
	// request, not a fault.
	if requestedState(ev) == current {
		return current, true, nil
	}

	return "", false, &StateTransitionError{From: current, Requested: requestedState(ev), Event: ev}
}

// DryRun checks whether ev is applicable from current without mutating
// anything, so callers can front-load side effects (payment capture) that
// must precede the actual transition.
func DryRun(current Status, ev Event) (Status, error) {
	to, noop, err := guard(current, ev)
	if err != nil {
		return "", err
	}
	if noop {
		return current, nil
	}
	return to, nil
}

func requestedState(ev Event) Status {
	switch ev {
	case EventApprove:
		return StatusConfirmed
	case EventReject, EventCancel:
		return StatusCancelled
	case EventExpire:
		return StatusExpired
	case EventStart:
		return StatusActive
	case EventComplete:
		return StatusCompleted
	case EventDispute:
		return StatusDisputed
	default:
		return ""
	}
}
