package lifecycle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/model"
)

func draftRequest() *model.Request {
	return &model.Request{
		ID:            uuid.New(),
		Kind:          model.RequestKindProject,
		Year:          2026,
		Description:   "replace cold-room compressors",
		Amount:        decimal.NewFromInt(120000),
		Category:      model.CategoryInfrastructure,
		OwnerUserID:   uuid.New(),
		ApprovalState: model.StateDraft,
	}
}

func pendingRequest() *model.Request {
	r := draftRequest()
	r.ApprovalState = model.StatePending
	r.Code = "REQ-2026-00001"
	return r
}

func completeGate(r *model.Request) *Gate {
	g := NewGate(r.Kind, r.Amount, decimal.Zero)
	g.SetFormComplete(true)
	g.SetParticipantsComplete(true)
	g.SetAttachmentsComplete(true)
	return g
}

func approverActor() Actor {
	return Actor{UserID: uuid.New(), Role: model.UserRoleApprover}
}

func TestProposeConfirmSubmit(t *testing.T) {
	req := draftRequest()
	s := NewSession(req, completeGate(req))

	tok, err := s.Propose(Submit, Actor{UserID: req.OwnerUserID, Role: model.UserRoleStaff}, Args{})
	require.NoError(t, err)

	// Optimistically applied and locked until confirmation.
	assert.Equal(t, model.StatePending, req.ApprovalState)
	assert.True(t, req.Locked)
	assert.True(t, s.Busy())

	require.NoError(t, s.Confirm(tok))
	assert.Equal(t, model.StatePending, req.ApprovalState)
	assert.False(t, req.Locked)
	assert.False(t, s.Busy())
}

func TestProposeRollbackRestoresEverything(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)
	actor := approverActor()

	tok, err := s.Propose(Approve, actor, Args{ApprovalType: model.ApprovalTypeInvestment})
	require.NoError(t, err)
	assert.Equal(t, model.StateApproved, req.ApprovalState)
	assert.Equal(t, model.ActivityActive, req.ActivityState)
	assert.Equal(t, model.ApprovalTypeInvestment, req.ApprovalType)
	require.NotNil(t, req.ApprovedBy)

	require.NoError(t, s.Rollback(tok))

	assert.Equal(t, model.StatePending, req.ApprovalState)
	assert.Empty(t, req.ActivityState)
	assert.Empty(t, req.ApprovalType)
	assert.Nil(t, req.ApprovedBy)
	assert.Nil(t, req.ApprovedAt)
	assert.False(t, req.Locked)
	assert.False(t, s.Busy())
}

func TestSecondProposalWhileBusyFails(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)

	_, err := s.Propose(Approve, approverActor(), Args{ApprovalType: model.ApprovalTypeExpense})
	require.NoError(t, err)

	_, err = s.Propose(Reject, approverActor(), Args{Reason: "duplicate"})
	var busy *RequestBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, req.ID, busy.RequestID)
}

func TestConfirmRejectsWrongToken(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)

	tok, err := s.Propose(Approve, approverActor(), Args{ApprovalType: model.ApprovalTypeExpense})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Confirm(tok+1), ErrUnknownToken)
	require.NoError(t, s.Confirm(tok))
	assert.ErrorIs(t, s.Confirm(tok), ErrNoPendingTransition)
}

func TestSubmitBlockedByIncompleteGate(t *testing.T) {
	req := draftRequest()
	g := NewGate(req.Kind, req.Amount, decimal.Zero)
	g.SetFormComplete(true)
	s := NewSession(req, g)

	_, err := s.Propose(Submit, Actor{UserID: req.OwnerUserID, Role: model.UserRoleStaff}, Args{})

	var incomplete *IncompleteRequestError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []Flag{FlagParticipants, FlagAttachments}, incomplete.Missing)

	// Nothing was applied.
	assert.Equal(t, model.StateDraft, req.ApprovalState)
	assert.False(t, req.Locked)
}

func TestRejectRequiresNonBlankReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		req := pendingRequest()
		s := NewSession(req, nil)

		_, err := s.Propose(Reject, approverActor(), Args{Reason: reason})
		assert.ErrorIs(t, err, ErrMissingReason)
		assert.Equal(t, model.StatePending, req.ApprovalState)
	}
}

func TestRejectTrimsStoredReason(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)

	tok, err := s.Propose(Reject, approverActor(), Args{Reason: "  over budget  "})
	require.NoError(t, err)
	require.NoError(t, s.Confirm(tok))

	assert.Equal(t, model.StateRejected, req.ApprovalState)
	assert.Equal(t, "over budget", req.RejectionReason)
}

func TestApproveValidatesApprovalType(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)

	_, err := s.Propose(Approve, approverActor(), Args{ApprovalType: "CAPEX"})
	assert.ErrorIs(t, err, ErrInvalidApprovalType)
	assert.Equal(t, model.StatePending, req.ApprovalState)
}

func TestUnauthorizedRoleOnExistingEdge(t *testing.T) {
	req := pendingRequest()
	s := NewSession(req, nil)

	_, err := s.Propose(Approve, Actor{UserID: uuid.New(), Role: model.UserRoleStaff}, Args{ApprovalType: model.ApprovalTypeExpense})

	var unauthorized *UnauthorizedTransitionError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, model.UserRoleStaff, unauthorized.Role)
	assert.Equal(t, Approve, unauthorized.Attempted)
}

// A transition missing from the closed state always reports the invalid edge,
// even for roles that could never perform it: the edge check runs first.
func TestClosedRequestReportsInvalidTransitionForAnyRole(t *testing.T) {
	for _, role := range []string{model.UserRoleAdmin, model.UserRoleManager, model.UserRoleApprover, model.UserRoleStaff} {
		req := pendingRequest()
		req.ApprovalState = model.StateApproved
		req.ActivityState = model.ActivityClosed
		s := NewSession(req, nil)

		_, err := s.Propose(Pause, Actor{UserID: uuid.New(), Role: role}, Args{})

		var invalid *InvalidTransitionError
		assert.ErrorAsf(t, err, &invalid, "role %s", role)
	}
}

func TestFullLifecycleThroughSessions(t *testing.T) {
	req := draftRequest()
	owner := Actor{UserID: req.OwnerUserID, Role: model.UserRoleStaff}
	approver := approverActor()
	manager := Actor{UserID: uuid.New(), Role: model.UserRoleManager}

	step := func(tr Transition, actor Actor, args Args, gate *Gate) {
		s := NewSession(req, gate)
		tok, err := s.Propose(tr, actor, args)
		require.NoErrorf(t, err, "propose %s", tr)
		require.NoError(t, s.Confirm(tok))
	}

	step(Submit, owner, Args{}, completeGate(req))
	step(Approve, approver, Args{ApprovalType: model.ApprovalTypeExpense}, nil)
	step(Pause, manager, Args{}, nil)
	step(Activate, manager, Args{}, nil)
	step(Close, manager, Args{}, nil)

	assert.Equal(t, model.StateApproved, req.ApprovalState)
	assert.Equal(t, model.ActivityClosed, req.ActivityState)
}
