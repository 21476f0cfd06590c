package lifecycle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Guard argument errors — distinguishable so handlers can surface a precise message
var (
	ErrMissingReason       = errors.New("missing rejection reason")
	ErrInvalidApprovalType = errors.New("approval type is not a recognized value")
)

// InvalidTransitionError reports a transition attempted from a state that has
// no edge for it in the lifecycle graph.
type InvalidTransitionError struct {
	From      State
	Attempted Transition
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a request in state %s", e.Attempted, e.From)
}

// UnauthorizedTransitionError reports a transition attempted by a role that is
// not allowed to perform it.
type UnauthorizedTransitionError struct {
	Role      string
	Attempted Transition
}

func (e *UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("role %q is not allowed to %s a request", e.Role, e.Attempted)
}

// IncompleteRequestError reports a submission attempted while the completeness
// gate is not satisfied. Missing carries the specific failing flags.
type IncompleteRequestError struct {
	Missing []Flag
}

func (e *IncompleteRequestError) Error() string {
	msg := "request is incomplete:"
	for i, f := range e.Missing {
		if i > 0 {
			msg += ","
		}
		msg += " " + string(f)
	}
	return msg
}

// RequestBusyError reports a transition attempted while a previous transition
// on the same request is still awaiting confirmation. Callers should disable
// the triggering control rather than queue or retry.
type RequestBusyError struct {
	RequestID uuid.UUID
}

func (e *RequestBusyError) Error() string {
	return fmt.Sprintf("request %s has a transition in flight", e.RequestID)
}

// TransportError wraps a failure from an external collaborator (database,
// notification channel). It is passed through verbatim; the local state of the
// request is left unchanged by a failed confirmation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
