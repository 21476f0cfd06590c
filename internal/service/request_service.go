package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solicitudes/internal/lifecycle"
	"solicitudes/internal/model"
	"solicitudes/internal/repository"
	"solicitudes/internal/roster"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Kind           string `json:"kind" binding:"required,oneof=PROJECT SOC"`
	Year           int    `json:"year" binding:"required"`
	Description    string `json:"description" binding:"required"`
	Observation    string `json:"observation"`
	Amount         string `json:"amount" binding:"required"`
	Category       string `json:"category" binding:"required"`
	CampusCode     string `json:"campus_code" binding:"required"`
	CampusDesc     string `json:"campus_desc"`
	AreaCode       string `json:"area_code" binding:"required"`
	AreaDesc       string `json:"area_desc"`
	CostCenterCode string `json:"cost_center_code" binding:"required"`
	CostCenterDesc string `json:"cost_center_desc"`
}

type UpdateRequestDTO struct {
	Description    string `json:"description"`
	Observation    string `json:"observation"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	CampusCode     string `json:"campus_code"`
	CampusDesc     string `json:"campus_desc"`
	AreaCode       string `json:"area_code"`
	AreaDesc       string `json:"area_desc"`
	CostCenterCode string `json:"cost_center_code"`
	CostCenterDesc string `json:"cost_center_desc"`
}

type ApproveDTO struct {
	ApprovalType string `json:"approval_type" binding:"required"`
}

type RejectDTO struct {
	Reason string `json:"reason" binding:"required"`
}

// CompletenessResponse mirrors the gate so the client can show exactly which
// condition is still missing instead of a generic "incomplete" banner.
type CompletenessResponse struct {
	Form         bool `json:"form_complete"`
	Participants bool `json:"participants_complete"`
	Attachments  bool `json:"attachments_complete"`
	Complete     bool `json:"complete"`
}

type RequestResponse struct {
	ID              string                `json:"id"`
	Kind            string                `json:"kind"`
	Year            int                   `json:"year"`
	Code            string                `json:"code,omitempty"`
	Description     string                `json:"description"`
	Observation     string                `json:"observation,omitempty"`
	Amount          string                `json:"amount"`
	Category        string                `json:"category"`
	CampusCode      string                `json:"campus_code"`
	CampusDesc      string                `json:"campus_desc,omitempty"`
	AreaCode        string                `json:"area_code"`
	AreaDesc        string                `json:"area_desc,omitempty"`
	CostCenterCode  string                `json:"cost_center_code"`
	CostCenterDesc  string                `json:"cost_center_desc,omitempty"`
	OwnerUserID     string                `json:"owner_user_id"`
	OwnerName       string                `json:"owner_name,omitempty"`
	ApprovalState   string                `json:"approval_state"`
	ActivityState   string                `json:"activity_state,omitempty"`
	ApprovalType    string                `json:"approval_type,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	ApprovedBy      *string               `json:"approved_by,omitempty"`
	ApproverName    string                `json:"approver_name,omitempty"`
	ApprovedAt      *string               `json:"approved_at,omitempty"`
	Completeness    *CompletenessResponse `json:"completeness,omitempty"`
	CreatedAt       string                `json:"created_at"`
}

// --- Interface ---

type RequestService interface {
	CreateDraft(ctx context.Context, ownerID uuid.UUID, req CreateRequestDTO) (RequestResponse, error)
	UpdateDraft(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, req UpdateRequestDTO) (RequestResponse, error)
	Get(ctx context.Context, id uuid.UUID) (RequestResponse, error)
	List(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error)
	Submit(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error)
	Approve(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, approvalType string) (RequestResponse, error)
	Reject(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, reason string) (RequestResponse, error)
	Pause(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error)
	Activate(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error)
	Close(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error)
	SendReminder(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) error
}

type requestService struct {
	requestRepo     repository.RequestRepository
	participantRepo repository.ParticipantRepository
	attachmentRepo  repository.AttachmentRepository
	historyRepo     repository.HistoryRepository
	txManager       repository.TransactionManager
	notifier        Notifier
	threshold       decimal.Decimal // TOPE_RETENCION
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	participantRepo repository.ParticipantRepository,
	attachmentRepo repository.AttachmentRepository,
	historyRepo repository.HistoryRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	retentionThreshold decimal.Decimal,
) RequestService {
	return &requestService{
		requestRepo:     requestRepo,
		participantRepo: participantRepo,
		attachmentRepo:  attachmentRepo,
		historyRepo:     historyRepo,
		txManager:       txManager,
		notifier:        notifier,
		threshold:       retentionThreshold,
	}
}

// --- Implementation ---

func (s *requestService) CreateDraft(ctx context.Context, ownerID uuid.UUID, req CreateRequestDTO) (RequestResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsNegative() {
		return RequestResponse{}, errors.New("amount must not be negative")
	}
	if !model.ValidCategory(req.Category) {
		return RequestResponse{}, fmt.Errorf("unknown category %q", req.Category)
	}

	request := model.Request{
		Kind:           req.Kind,
		Year:           req.Year,
		Description:    req.Description,
		Observation:    req.Observation,
		Amount:         amount,
		Category:       req.Category,
		CampusCode:     req.CampusCode,
		CampusDesc:     req.CampusDesc,
		AreaCode:       req.AreaCode,
		AreaDesc:       req.AreaDesc,
		CostCenterCode: req.CostCenterCode,
		CostCenterDesc: req.CostCenterDesc,
		OwnerUserID:    ownerID,
		ApprovalState:  model.StateDraft,
	}

	if err := s.requestRepo.Create(ctx, &request); err != nil {
		return RequestResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	return s.respond(ctx, &request, true)
}

func (s *requestService) UpdateDraft(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, req UpdateRequestDTO) (RequestResponse, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}
	if request.ApprovalState != model.StateDraft {
		return RequestResponse{}, errors.New("only a draft may be edited")
	}
	if actor.UserID != request.OwnerUserID && actor.Role != model.UserRoleAdmin {
		return RequestResponse{}, errors.New("only the owner may edit a draft")
	}

	if req.Description != "" {
		request.Description = req.Description
	}
	if req.Observation != "" {
		request.Observation = req.Observation
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return RequestResponse{}, fmt.Errorf("invalid amount: %w", err)
		}
		if amount.IsNegative() {
			return RequestResponse{}, errors.New("amount must not be negative")
		}
		request.Amount = amount
	}
	if req.Category != "" {
		if !model.ValidCategory(req.Category) {
			return RequestResponse{}, fmt.Errorf("unknown category %q", req.Category)
		}
		request.Category = req.Category
	}
	if req.CampusCode != "" {
		request.CampusCode = req.CampusCode
		request.CampusDesc = req.CampusDesc
	}
	if req.AreaCode != "" {
		request.AreaCode = req.AreaCode
		request.AreaDesc = req.AreaDesc
	}
	if req.CostCenterCode != "" {
		request.CostCenterCode = req.CostCenterCode
		request.CostCenterDesc = req.CostCenterDesc
	}

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return RequestResponse{}, fmt.Errorf("failed to update request: %w", err)
	}

	return s.respond(ctx, request, true)
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (RequestResponse, error) {
	request, err := s.requestRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}
	return s.respond(ctx, request, true)
}

func (s *requestService) List(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error) {
	requests, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch requests: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		resp, err := s.respond(ctx, &requests[i], false)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, resp)
	}
	return result, total, nil
}

func (s *requestService) Submit(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Submit, lifecycle.Args{})
}

func (s *requestService) Approve(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, approvalType string) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Approve, lifecycle.Args{ApprovalType: approvalType})
}

func (s *requestService) Reject(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, reason string) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Reject, lifecycle.Args{Reason: reason})
}

func (s *requestService) Pause(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Pause, lifecycle.Args{})
}

func (s *requestService) Activate(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Activate, lifecycle.Args{})
}

func (s *requestService) Close(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (RequestResponse, error) {
	return s.transition(ctx, actor, id, lifecycle.Close, lifecycle.Args{})
}

// transition runs one lifecycle transition in two phases: the session proposes
// it against the in-memory request, and the database transaction is the
// confirmation. A failed transaction rolls the proposal back, leaving no trace
// of the optimistic state change.
func (s *requestService) transition(ctx context.Context, actor lifecycle.Actor, id uuid.UUID, t lifecycle.Transition, args lifecycle.Args) (RequestResponse, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}

	if t == lifecycle.Submit && actor.UserID != request.OwnerUserID && actor.Role != model.UserRoleAdmin {
		return RequestResponse{}, errors.New("only the owner may submit a request")
	}

	acquired, err := s.requestRepo.TryLock(ctx, id)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to lock request: %w", err)
	}
	if !acquired {
		return RequestResponse{}, &lifecycle.RequestBusyError{RequestID: id}
	}
	defer func() {
		// Idempotent; on the success path the confirmed write already
		// cleared the flag.
		_ = s.requestRepo.Unlock(ctx, id)
	}()
	// The flag we just set belongs to this very transition.
	request.Locked = false

	participants, err := s.participantRepo.FindByRequest(ctx, id)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to load participants: %w", err)
	}

	var gate *lifecycle.Gate
	if t == lifecycle.Submit {
		gate, err = s.buildGate(ctx, request, participants)
		if err != nil {
			return RequestResponse{}, err
		}
	}

	session := lifecycle.NewSession(request, gate)
	token, err := session.Propose(t, actor, args)
	if err != nil {
		return RequestResponse{}, err
	}

	entry := model.HistoryEntry{
		RequestID:   request.ID,
		ActorUserID: &actor.UserID,
		Action:      t.HistoryAction(),
		Reason:      strings.TrimSpace(args.Reason),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if t == lifecycle.Submit && request.Code == "" {
			code, codeErr := s.requestRepo.NextCode(txCtx, request.Year)
			if codeErr != nil {
				return fmt.Errorf("failed to allocate request code: %w", codeErr)
			}
			request.Code = code
		}
		entry.Detail = s.transitionDetail(t, request)

		if confirmErr := session.Confirm(token); confirmErr != nil {
			return confirmErr
		}
		if updateErr := s.requestRepo.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to persist transition: %w", updateErr)
		}
		return s.historyRepo.Append(txCtx, &entry)
	})
	if err != nil {
		if session.Busy() {
			_ = session.Rollback(token)
		}
		return RequestResponse{}, &lifecycle.TransportError{Op: t.String(), Err: err}
	}

	switch t {
	case lifecycle.Submit:
		s.notifier.RequestSubmitted(request, participants)
	case lifecycle.Approve, lifecycle.Reject:
		s.notifier.RequestDecided(request)
	default:
		s.notifier.RequestDecided(request)
	}

	return s.respond(ctx, request, false)
}

// SendReminder dispatches a reminder to pending approvers. Callable only
// while the request is PENDING.
func (s *requestService) SendReminder(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) error {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if request.ApprovalState != model.StatePending {
		return fmt.Errorf("reminders can only be sent while the request is pending, not %s", lifecycle.StateOf(request))
	}

	participants, err := s.participantRepo.FindByRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}

	entry := model.HistoryEntry{
		RequestID:   request.ID,
		ActorUserID: &actor.UserID,
		Action:      model.ActionReminderSent,
		Detail:      "reminder sent to pending approvers",
	}
	if err := s.historyRepo.Append(ctx, &entry); err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}

	s.notifier.ReminderRequested(request, participants)
	return nil
}

// --- Helpers ---

// buildGate assembles the completeness gate from the state each component
// owns: the form fields, the roster, and the attachment set.
func (s *requestService) buildGate(ctx context.Context, request *model.Request, participants []model.Participant) (*lifecycle.Gate, error) {
	attachments, err := s.attachmentRepo.FindByRequest(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	return s.assembleGate(request, participants, attachments), nil
}

func (s *requestService) assembleGate(request *model.Request, participants []model.Participant, attachments []model.Attachment) *lifecycle.Gate {
	gate := lifecycle.NewGate(request.Kind, request.Amount, s.threshold)
	gate.SetFormComplete(formComplete(request))
	gate.SetAttachmentsComplete(len(attachments) > 0)
	gate.SetParticipantsComplete(len(participants) > 0)
	gate.SetQualifiedApprover(assembleRoster(participants).HasQualifiedApprover(request.Amount))
	return gate
}

// assembleRoster reconstructs the assigned side of the roster from persisted
// participants.
func assembleRoster(participants []model.Participant) *roster.Roster {
	pool := make([]roster.Member, 0, len(participants))
	assigned := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		m := roster.Member{
			UserID:        p.UserID,
			ApprovalLimit: p.ApprovalLimit,
		}
		if p.User != nil {
			m.DisplayName = p.User.DisplayName
		}
		pool = append(pool, m)
		assigned[p.UserID] = p.Role
	}
	return roster.NewWithAssigned(pool, assigned)
}

func formComplete(request *model.Request) bool {
	return strings.TrimSpace(request.Description) != "" &&
		model.ValidCategory(request.Category) &&
		!request.Amount.IsNegative() &&
		request.Year > 0 &&
		request.CampusCode != "" &&
		request.AreaCode != "" &&
		request.CostCenterCode != ""
}

func (s *requestService) transitionDetail(t lifecycle.Transition, request *model.Request) string {
	switch t {
	case lifecycle.Submit:
		return fmt.Sprintf("submitted as %s", request.Code)
	case lifecycle.Approve:
		return fmt.Sprintf("approved as %s", request.ApprovalType)
	default:
		return ""
	}
}

// respond maps a request to its response DTO, optionally recomputing the
// completeness flags (skipped in list views to avoid per-row queries).
func (s *requestService) respond(ctx context.Context, request *model.Request, withCompleteness bool) (RequestResponse, error) {
	resp := RequestResponse{
		ID:              request.ID.String(),
		Kind:            request.Kind,
		Year:            request.Year,
		Code:            request.Code,
		Description:     request.Description,
		Observation:     request.Observation,
		Amount:          request.Amount.StringFixed(2),
		Category:        request.Category,
		CampusCode:      request.CampusCode,
		CampusDesc:      request.CampusDesc,
		AreaCode:        request.AreaCode,
		AreaDesc:        request.AreaDesc,
		CostCenterCode:  request.CostCenterCode,
		CostCenterDesc:  request.CostCenterDesc,
		OwnerUserID:     request.OwnerUserID.String(),
		ApprovalState:   request.ApprovalState,
		ActivityState:   request.ActivityState,
		ApprovalType:    request.ApprovalType,
		RejectionReason: request.RejectionReason,
		CreatedAt:       request.CreatedAt.Format(time.RFC3339),
	}

	if request.Owner != nil {
		resp.OwnerName = request.Owner.DisplayName
	}
	if request.ApprovedBy != nil {
		v := request.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if request.Approver != nil {
		resp.ApproverName = request.Approver.DisplayName
	}
	if request.ApprovedAt != nil {
		v := request.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}

	if withCompleteness && request.ApprovalState == model.StateDraft {
		participants, err := s.participantRepo.FindByRequest(ctx, request.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, err
		}
		gate, err := s.buildGate(ctx, request, participants)
		if err != nil {
			return RequestResponse{}, err
		}
		missing := gate.Missing()
		flags := CompletenessResponse{Form: true, Participants: true, Attachments: true, Complete: gate.IsComplete()}
		for _, f := range missing {
			switch f {
			case lifecycle.FlagForm:
				flags.Form = false
			case lifecycle.FlagParticipants:
				flags.Participants = false
			case lifecycle.FlagAttachments:
				flags.Attachments = false
			}
		}
		resp.Completeness = &flags
	}

	return resp, nil
}
