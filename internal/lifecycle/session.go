package lifecycle

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"solicitudes/internal/model"
)

var (
	ErrNoPendingTransition = errors.New("no transition is pending on this session")
	ErrUnknownToken        = errors.New("token does not match the pending transition")
)

// Actor identifies who is attempting a transition.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Args carries transition-specific arguments.
type Args struct {
	ApprovalType string // Approve: member of the approval-type enumeration
	Reason       string // Reject: non-blank rejection reason
}

// PendingToken identifies one proposed-but-unconfirmed transition.
type PendingToken uint64

// Session applies lifecycle transitions to a single request in two phases:
// Propose validates every guard and mutates the request optimistically,
// Confirm finalizes after the authoritative write succeeds, and Rollback
// restores the prior state when it does not. While a proposal is outstanding
// the request is locked and further proposals fail with RequestBusyError
// instead of queueing.
type Session struct {
	req     *model.Request
	gate    *Gate
	lastTok PendingToken
	pending *pendingTransition
}

type pendingTransition struct {
	token PendingToken
	prev  snapshot
}

type snapshot struct {
	approvalState   string
	activityState   string
	approvalType    string
	rejectionReason string
	approvedBy      *uuid.UUID
	approvedAt      *time.Time
}

// NewSession opens a session over req. The gate is consulted only for Submit
// and may be nil for sessions that never submit.
func NewSession(req *model.Request, gate *Gate) *Session {
	return &Session{req: req, gate: gate}
}

// Request returns the request the session operates on.
func (s *Session) Request() *model.Request { return s.req }

// Busy reports whether a proposed transition is awaiting confirmation.
func (s *Session) Busy() bool { return s.pending != nil || s.req.Locked }

// Propose validates the guards for t and, on success, applies it to the
// request optimistically and returns a token for Confirm or Rollback.
func (s *Session) Propose(t Transition, actor Actor, args Args) (PendingToken, error) {
	if s.Busy() {
		return 0, &RequestBusyError{RequestID: s.req.ID}
	}

	state := StateOf(s.req)
	next, err := Next(state, t)
	if err != nil {
		return 0, err
	}
	if !CanPerform(actor.Role, t, state) {
		return 0, &UnauthorizedTransitionError{Role: actor.Role, Attempted: t}
	}

	switch t {
	case Submit:
		if s.gate == nil || !s.gate.IsComplete() {
			var missing []Flag
			if s.gate != nil {
				missing = s.gate.Missing()
			} else {
				missing = []Flag{FlagForm, FlagParticipants, FlagAttachments}
			}
			return 0, &IncompleteRequestError{Missing: missing}
		}
	case Approve:
		if !model.ValidApprovalType(args.ApprovalType) {
			return 0, ErrInvalidApprovalType
		}
	case Reject:
		if strings.TrimSpace(args.Reason) == "" {
			return 0, ErrMissingReason
		}
	}

	prev := snapshot{
		approvalState:   s.req.ApprovalState,
		activityState:   s.req.ActivityState,
		approvalType:    s.req.ApprovalType,
		rejectionReason: s.req.RejectionReason,
		approvedBy:      s.req.ApprovedBy,
		approvedAt:      s.req.ApprovedAt,
	}

	s.req.ApprovalState = next.Approval
	s.req.ActivityState = next.Activity
	switch t {
	case Approve:
		now := time.Now()
		actorID := actor.UserID
		s.req.ApprovalType = args.ApprovalType
		s.req.ApprovedBy = &actorID
		s.req.ApprovedAt = &now
	case Reject:
		now := time.Now()
		actorID := actor.UserID
		s.req.RejectionReason = strings.TrimSpace(args.Reason)
		s.req.ApprovedBy = &actorID
		s.req.ApprovedAt = &now
	}
	s.req.Locked = true

	s.lastTok++
	s.pending = &pendingTransition{token: s.lastTok, prev: prev}
	return s.lastTok, nil
}

// Confirm finalizes the proposed transition after the server-side write has
// been acknowledged.
func (s *Session) Confirm(token PendingToken) error {
	if err := s.take(token); err != nil {
		return err
	}
	s.pending = nil
	s.req.Locked = false
	return nil
}

// Rollback restores the request to its state before Propose. No trace of the
// optimistic transition survives a failed confirmation.
func (s *Session) Rollback(token PendingToken) error {
	if err := s.take(token); err != nil {
		return err
	}
	prev := s.pending.prev
	s.req.ApprovalState = prev.approvalState
	s.req.ActivityState = prev.activityState
	s.req.ApprovalType = prev.approvalType
	s.req.RejectionReason = prev.rejectionReason
	s.req.ApprovedBy = prev.approvedBy
	s.req.ApprovedAt = prev.approvedAt
	s.pending = nil
	s.req.Locked = false
	return nil
}

func (s *Session) take(token PendingToken) error {
	if s.pending == nil {
		return ErrNoPendingTransition
	}
	if s.pending.token != token {
		return ErrUnknownToken
	}
	return nil
}
