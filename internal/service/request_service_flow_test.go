package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"solicitudes/internal/lifecycle"
	"solicitudes/internal/model"
	"solicitudes/internal/repository"
)

// In-memory fakes for the repository and notifier boundaries, so the
// transition orchestration is testable without Postgres.

type fakeRequestRepo struct {
	req     *model.Request
	updates int
}

func (f *fakeRequestRepo) Create(_ context.Context, req *model.Request) error {
	f.req = req
	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Request, error) {
	if f.req == nil || f.req.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.req, nil
}

func (f *fakeRequestRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRequestRepo) List(context.Context, repository.RequestFilter) ([]model.Request, int64, error) {
	return nil, 0, nil
}

func (f *fakeRequestRepo) Update(_ context.Context, req *model.Request) error {
	f.updates++
	f.req = req
	return nil
}

func (f *fakeRequestRepo) NextCode(_ context.Context, year int) (string, error) {
	return "REQ-2026-00001", nil
}

func (f *fakeRequestRepo) TryLock(_ context.Context, id uuid.UUID) (bool, error) {
	if f.req == nil || f.req.ID != id || f.req.Locked {
		return false, nil
	}
	f.req.Locked = true
	return true, nil
}

func (f *fakeRequestRepo) Unlock(_ context.Context, id uuid.UUID) error {
	if f.req != nil && f.req.ID == id {
		f.req.Locked = false
	}
	return nil
}

type fakeParticipantRepo struct {
	participants []model.Participant
}

func (f *fakeParticipantRepo) Create(_ context.Context, p *model.Participant) error {
	f.participants = append(f.participants, *p)
	return nil
}

func (f *fakeParticipantRepo) FindByRequest(context.Context, uuid.UUID) ([]model.Participant, error) {
	return f.participants, nil
}

func (f *fakeParticipantRepo) FindByRequestAndUser(_ context.Context, _, userID uuid.UUID) (*model.Participant, error) {
	for i := range f.participants {
		if f.participants[i].UserID == userID {
			return &f.participants[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeParticipantRepo) FindByToken(context.Context, uuid.UUID) (*model.Participant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeParticipantRepo) Update(context.Context, *model.Participant) error { return nil }

func (f *fakeParticipantRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeAttachmentRepo struct {
	attachments []model.Attachment
}

func (f *fakeAttachmentRepo) Create(_ context.Context, a *model.Attachment) error {
	f.attachments = append(f.attachments, *a)
	return nil
}

func (f *fakeAttachmentRepo) FindByID(context.Context, uuid.UUID) (*model.Attachment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttachmentRepo) FindByRequest(context.Context, uuid.UUID) ([]model.Attachment, error) {
	return f.attachments, nil
}

func (f *fakeAttachmentRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeAttachmentRepo) SetSelection(context.Context, uuid.UUID, *uuid.UUID) error { return nil }

type fakeHistoryRepo struct {
	entries []model.HistoryEntry
}

func (f *fakeHistoryRepo) Append(_ context.Context, entry *model.HistoryEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByRequest(context.Context, uuid.UUID) ([]model.HistoryEntry, error) {
	return f.entries, nil
}

func (f *fakeHistoryRepo) List(context.Context, int, int) ([]model.HistoryEntry, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

// fakeTxManager runs the function inline, or fails wholesale to simulate a
// write that never reached the database.
type fakeTxManager struct {
	err error
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakeNotifier struct {
	submitted int
	decided   int
	reminders int
}

func (f *fakeNotifier) RequestSubmitted(*model.Request, []model.Participant) { f.submitted++ }
func (f *fakeNotifier) RequestDecided(*model.Request)                        { f.decided++ }
func (f *fakeNotifier) ReminderRequested(*model.Request, []model.Participant) {
	f.reminders++
}

type flowFixture struct {
	svc         *requestService
	requestRepo *fakeRequestRepo
	historyRepo *fakeHistoryRepo
	txManager   *fakeTxManager
	notifier    *fakeNotifier
	request     *model.Request
}

// submitReady builds a service over a draft that satisfies every completeness
// condition, including the retention rule for its over-threshold SOC amount.
func submitReady() *flowFixture {
	request := validDraft()
	requestRepo := &fakeRequestRepo{req: request}
	historyRepo := &fakeHistoryRepo{}
	txManager := &fakeTxManager{}
	notifier := &fakeNotifier{}

	svc := &requestService{
		requestRepo: requestRepo,
		participantRepo: &fakeParticipantRepo{participants: []model.Participant{{
			RequestID:     request.ID,
			UserID:        uuid.New(),
			Role:          model.RoleApprover,
			ApprovalLimit: decimal.NewFromInt(100000000),
		}}},
		attachmentRepo: &fakeAttachmentRepo{attachments: []model.Attachment{{
			RequestID: request.ID,
			FileName:  "quote.pdf",
		}}},
		historyRepo: historyRepo,
		txManager:   txManager,
		notifier:    notifier,
		threshold:   decimal.NewFromInt(50000000),
	}

	return &flowFixture{
		svc:         svc,
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		notifier:    notifier,
		request:     request,
	}
}

func TestSubmitAppendsSingleHistoryEntry(t *testing.T) {
	f := submitReady()
	owner := lifecycle.Actor{UserID: f.request.OwnerUserID, Role: model.UserRoleStaff}

	resp, err := f.svc.Submit(context.Background(), owner, f.request.ID)
	require.NoError(t, err)

	require.Len(t, f.historyRepo.entries, 1, "exactly one ledger entry per transition")
	entry := f.historyRepo.entries[0]
	assert.Equal(t, model.ActionSubmitted, entry.Action)
	assert.Equal(t, f.request.ID, entry.RequestID)
	require.NotNil(t, entry.ActorUserID)
	assert.Equal(t, owner.UserID, *entry.ActorUserID)
	assert.Equal(t, "submitted as REQ-2026-00001", entry.Detail)

	assert.Equal(t, model.StatePending, f.request.ApprovalState)
	assert.Equal(t, "REQ-2026-00001", f.request.Code)
	assert.False(t, f.request.Locked, "lock released after confirmation")
	assert.Equal(t, model.StatePending, resp.ApprovalState)
	assert.Equal(t, 1, f.notifier.submitted)
}

func TestFailedWriteRollsBackAndAppendsNothing(t *testing.T) {
	f := submitReady()
	f.txManager.err = errors.New("connection reset")
	owner := lifecycle.Actor{UserID: f.request.OwnerUserID, Role: model.UserRoleStaff}

	_, err := f.svc.Submit(context.Background(), owner, f.request.ID)

	var transport *lifecycle.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "submit", transport.Op)

	// No trace of the optimistic transition survives.
	assert.Empty(t, f.historyRepo.entries)
	assert.Equal(t, model.StateDraft, f.request.ApprovalState)
	assert.Empty(t, f.request.ActivityState)
	assert.Empty(t, f.request.Code)
	assert.False(t, f.request.Locked)
	assert.Zero(t, f.requestRepo.updates)
	assert.Zero(t, f.notifier.submitted)
}

func TestApproveRecordsDecisionOnce(t *testing.T) {
	f := submitReady()
	f.request.ApprovalState = model.StatePending
	f.request.Code = "REQ-2026-00001"
	approver := lifecycle.Actor{UserID: uuid.New(), Role: model.UserRoleApprover}

	resp, err := f.svc.Approve(context.Background(), approver, f.request.ID, model.ApprovalTypeExpense)
	require.NoError(t, err)

	require.Len(t, f.historyRepo.entries, 1)
	assert.Equal(t, model.ActionApproved, f.historyRepo.entries[0].Action)
	assert.Equal(t, model.StateApproved, resp.ApprovalState)
	assert.Equal(t, model.ActivityActive, resp.ActivityState)
	assert.Equal(t, 1, f.notifier.decided)
}

func TestTransitionOnLockedRequestReturnsBusy(t *testing.T) {
	f := submitReady()
	f.request.Locked = true
	owner := lifecycle.Actor{UserID: f.request.OwnerUserID, Role: model.UserRoleStaff}

	_, err := f.svc.Submit(context.Background(), owner, f.request.ID)

	var busy *lifecycle.RequestBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, f.request.ID, busy.RequestID)
	assert.Empty(t, f.historyRepo.entries)
}

func TestSubmitByNonOwnerIsRejected(t *testing.T) {
	f := submitReady()
	stranger := lifecycle.Actor{UserID: uuid.New(), Role: model.UserRoleStaff}

	_, err := f.svc.Submit(context.Background(), stranger, f.request.ID)

	require.Error(t, err)
	assert.Equal(t, model.StateDraft, f.request.ApprovalState)
	assert.Empty(t, f.historyRepo.entries)
}

func TestUpdateDraftRejectsNonDraft(t *testing.T) {
	f := submitReady()
	f.request.ApprovalState = model.StatePending
	owner := lifecycle.Actor{UserID: f.request.OwnerUserID, Role: model.UserRoleStaff}

	_, err := f.svc.UpdateDraft(context.Background(), owner, f.request.ID, UpdateRequestDTO{Description: "new text"})

	require.EqualError(t, err, "only a draft may be edited")
	assert.Equal(t, "forklift battery replacement", f.request.Description)
}
