package lifecycle

import (
	"fmt"

	"solicitudes/internal/model"
)

// Transition is the closed set of lifecycle transitions. Adding a value here
// without extending Next, CanPerform and HistoryAction is a compile-time
// mistake the exhaustive switches below are meant to surface in review.
type Transition int

const (
	Submit Transition = iota
	Approve
	Reject
	Pause
	Activate
	Close
)

func (t Transition) String() string {
	switch t {
	case Submit:
		return "submit"
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	case Pause:
		return "pause"
	case Activate:
		return "activate"
	case Close:
		return "close"
	}
	return fmt.Sprintf("transition(%d)", int(t))
}

// HistoryAction maps a transition to the action recorded in the history ledger.
func (t Transition) HistoryAction() string {
	switch t {
	case Submit:
		return model.ActionSubmitted
	case Approve:
		return model.ActionApproved
	case Reject:
		return model.ActionRejected
	case Pause:
		return model.ActionPaused
	case Activate:
		return model.ActionActivated
	case Close:
		return model.ActionClosed
	}
	return ""
}

// State is the composite lifecycle state of a request. Activity is meaningful
// only while Approval is APPROVED.
type State struct {
	Approval string
	Activity string
}

func (s State) String() string {
	if s.Approval == model.StateApproved && s.Activity != "" {
		return s.Approval + "/" + s.Activity
	}
	return s.Approval
}

// StateOf extracts the lifecycle state from a persisted request.
func StateOf(r *model.Request) State {
	return State{Approval: r.ApprovalState, Activity: r.ActivityState}
}

// Next computes the state reached by applying t to s. A transition attempted
// from a state lacking the edge fails with InvalidTransitionError. A closed
// request accepts no further transitions.
func Next(s State, t Transition) (State, error) {
	invalid := func() (State, error) {
		return State{}, &InvalidTransitionError{From: s, Attempted: t}
	}

	switch t {
	case Submit:
		if s.Approval != model.StateDraft {
			return invalid()
		}
		return State{Approval: model.StatePending}, nil
	case Approve:
		if s.Approval != model.StatePending {
			return invalid()
		}
		return State{Approval: model.StateApproved, Activity: model.ActivityActive}, nil
	case Reject:
		if s.Approval != model.StatePending {
			return invalid()
		}
		return State{Approval: model.StateRejected}, nil
	case Pause:
		if s.Approval != model.StateApproved || s.Activity != model.ActivityActive {
			return invalid()
		}
		return State{Approval: model.StateApproved, Activity: model.ActivityPaused}, nil
	case Activate:
		if s.Approval != model.StateApproved || s.Activity != model.ActivityPaused {
			return invalid()
		}
		return State{Approval: model.StateApproved, Activity: model.ActivityActive}, nil
	case Close:
		if s.Approval != model.StateApproved || s.Activity == model.ActivityClosed || s.Activity == "" {
			return invalid()
		}
		return State{Approval: model.StateApproved, Activity: model.ActivityClosed}, nil
	}
	return invalid()
}

// CanPerform is the single role predicate consulted for every transition, so
// role rules stay enumerable and testable away from any HTTP wiring. Ownership
// of a draft is checked by the caller; admin passes everything.
func CanPerform(role string, t Transition, s State) bool {
	if role == model.UserRoleAdmin {
		return true
	}
	switch t {
	case Submit:
		// Any authenticated requester may submit their own draft.
		return true
	case Approve, Reject:
		return role == model.UserRoleApprover
	case Pause, Activate, Close:
		return role == model.UserRoleManager
	}
	return false
}
