package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solicitudes/internal/model"
	"solicitudes/internal/repository"
	"solicitudes/internal/roster"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AssignParticipantDTO struct {
	UserID        string `json:"user_id" binding:"required"`
	Role          string `json:"role" binding:"required,oneof=APPROVER INFORMATIONAL"`
	ApprovalLimit string `json:"approval_limit"`
}

// MoveParticipantsDTO mirrors the checkbox-driven bidirectional list transfer:
// a caller-provided selection moved wholesale between the two pools.
type MoveParticipantsDTO struct {
	UserIDs   []string `json:"user_ids" binding:"required,min=1"`
	Direction string   `json:"direction" binding:"required,oneof=ASSIGN UNASSIGN"`
	Role      string   `json:"role" binding:"omitempty,oneof=APPROVER INFORMATIONAL"`
}

type RespondDTO struct {
	Note string `json:"note"`
}

type MemberResponse struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Role          string `json:"role,omitempty"`
	ApprovalLimit string `json:"approval_limit,omitempty"`
}

type ParticipantResponse struct {
	ID            string  `json:"id"`
	RequestID     string  `json:"request_id"`
	UserID        string  `json:"user_id"`
	DisplayName   string  `json:"display_name,omitempty"`
	Role          string  `json:"role"`
	ResponseState string  `json:"response_state"`
	ResponseNote  string  `json:"response_note,omitempty"`
	RespondedAt   *string `json:"responded_at,omitempty"`
	ApprovalLimit string  `json:"approval_limit"`
}

type RosterResponse struct {
	Available []MemberResponse      `json:"available"`
	Assigned  []ParticipantResponse `json:"assigned"`
}

// --- Interface ---

type ParticipantService interface {
	GetRoster(ctx context.Context, requestID uuid.UUID) (RosterResponse, error)
	Assign(ctx context.Context, requestID uuid.UUID, req AssignParticipantDTO) (ParticipantResponse, error)
	Unassign(ctx context.Context, requestID, userID uuid.UUID) error
	Move(ctx context.Context, requestID uuid.UUID, req MoveParticipantsDTO) (RosterResponse, error)
	Search(ctx context.Context, requestID uuid.UUID, term string) ([]MemberResponse, error)
	RespondByToken(ctx context.Context, token uuid.UUID, approve bool, note string) (ParticipantResponse, error)
}

type participantService struct {
	participantRepo repository.ParticipantRepository
	requestRepo     repository.RequestRepository
	userRepo        repository.UserRepository
	txManager       repository.TransactionManager
}

func NewParticipantService(
	participantRepo repository.ParticipantRepository,
	requestRepo repository.RequestRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		requestRepo:     requestRepo,
		userRepo:        userRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

// loadRoster rebuilds the full candidate pool vs assigned set for a request.
func (s *participantService) loadRoster(ctx context.Context, requestID uuid.UUID) (*roster.Roster, []model.Participant, error) {
	if _, err := s.requestRepo.FindByID(ctx, requestID); err != nil {
		return nil, nil, err
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}
	participants, err := s.participantRepo.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}

	pool := make([]roster.Member, 0, len(users))
	limits := make(map[uuid.UUID]decimal.Decimal, len(participants))
	assigned := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		assigned[p.UserID] = p.Role
		limits[p.UserID] = p.ApprovalLimit
	}
	for _, u := range users {
		pool = append(pool, roster.Member{
			UserID:        u.ID,
			DisplayName:   u.DisplayName,
			ApprovalLimit: limits[u.ID],
		})
	}

	return roster.NewWithAssigned(pool, assigned), participants, nil
}

func (s *participantService) GetRoster(ctx context.Context, requestID uuid.UUID) (RosterResponse, error) {
	r, participants, err := s.loadRoster(ctx, requestID)
	if err != nil {
		return RosterResponse{}, err
	}
	return rosterResponse(r, participants), nil
}

func (s *participantService) Assign(ctx context.Context, requestID uuid.UUID, req AssignParticipantDTO) (ParticipantResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return ParticipantResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	limit := decimal.Zero
	if req.ApprovalLimit != "" {
		limit, err = decimal.NewFromString(req.ApprovalLimit)
		if err != nil {
			return ParticipantResponse{}, fmt.Errorf("invalid approval limit: %w", err)
		}
	}

	r, _, err := s.loadRoster(ctx, requestID)
	if err != nil {
		return ParticipantResponse{}, err
	}
	if err := r.Assign(userID, req.Role); err != nil {
		return ParticipantResponse{}, err
	}

	participant := model.Participant{
		RequestID:     requestID,
		UserID:        userID,
		Role:          req.Role,
		ResponseState: model.ResponsePending,
		ApprovalLimit: limit,
	}
	if err := s.participantRepo.Create(ctx, &participant); err != nil {
		return ParticipantResponse{}, fmt.Errorf("failed to assign participant: %w", err)
	}

	stored, err := s.participantRepo.FindByRequestAndUser(ctx, requestID, userID)
	if err != nil {
		return ParticipantResponse{}, err
	}
	return toParticipantResponse(*stored), nil
}

func (s *participantService) Unassign(ctx context.Context, requestID, userID uuid.UUID) error {
	r, _, err := s.loadRoster(ctx, requestID)
	if err != nil {
		return err
	}
	if err := r.Unassign(userID); err != nil {
		return err
	}
	return s.participantRepo.Delete(ctx, requestID, userID)
}

// Move applies a bulk bidirectional transfer and persists the diff in one
// transaction, so the client sees the pools change atomically.
func (s *participantService) Move(ctx context.Context, requestID uuid.UUID, req MoveParticipantsDTO) (RosterResponse, error) {
	selected := make(map[uuid.UUID]bool, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return RosterResponse{}, fmt.Errorf("invalid user id %q: %w", raw, err)
		}
		selected[id] = true
	}

	r, participants, err := s.loadRoster(ctx, requestID)
	if err != nil {
		return RosterResponse{}, err
	}

	before := make(map[uuid.UUID]bool, len(participants))
	for _, p := range participants {
		before[p.UserID] = true
	}

	role := req.Role
	if role == "" {
		role = model.RoleApprover
	}
	if req.Direction == "ASSIGN" {
		r.MoveToAssigned(selected, role)
	} else {
		r.MoveToAvailable(selected)
	}

	after := make(map[uuid.UUID]string)
	for _, m := range r.Assigned() {
		after[m.UserID] = m.Role
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for userID, memberRole := range after {
			if !before[userID] {
				p := model.Participant{
					RequestID:     requestID,
					UserID:        userID,
					Role:          memberRole,
					ResponseState: model.ResponsePending,
				}
				if err := s.participantRepo.Create(txCtx, &p); err != nil {
					return err
				}
			}
		}
		for userID := range before {
			if _, still := after[userID]; !still {
				if err := s.participantRepo.Delete(txCtx, requestID, userID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return RosterResponse{}, fmt.Errorf("failed to persist roster move: %w", err)
	}

	r, participants, err = s.loadRoster(ctx, requestID)
	if err != nil {
		return RosterResponse{}, err
	}
	return rosterResponse(r, participants), nil
}

func (s *participantService) Search(ctx context.Context, requestID uuid.UUID, term string) ([]MemberResponse, error) {
	r, _, err := s.loadRoster(ctx, requestID)
	if err != nil {
		return nil, err
	}

	matches := r.Search(term)
	result := make([]MemberResponse, 0, len(matches))
	for _, m := range matches {
		result = append(result, MemberResponse{
			UserID:      m.UserID.String(),
			DisplayName: m.DisplayName,
		})
	}
	return result, nil
}

// RespondByToken records an individual participant response reached through
// an external approval link. It never moves the request itself; only an
// approver acting through the lifecycle endpoints does that.
func (s *participantService) RespondByToken(ctx context.Context, token uuid.UUID, approve bool, note string) (ParticipantResponse, error) {
	participant, err := s.participantRepo.FindByToken(ctx, token)
	if err != nil {
		return ParticipantResponse{}, err
	}
	if participant.ResponseState != model.ResponsePending {
		return ParticipantResponse{}, errors.New("participant has already responded")
	}

	request, err := s.requestRepo.FindByID(ctx, participant.RequestID)
	if err != nil {
		return ParticipantResponse{}, err
	}
	if request.ApprovalState != model.StatePending {
		return ParticipantResponse{}, fmt.Errorf("request is %s; responses are only accepted while pending", request.ApprovalState)
	}

	now := time.Now()
	if approve {
		participant.ResponseState = model.ResponseApproved
	} else {
		participant.ResponseState = model.ResponseRejected
	}
	participant.ResponseNote = note
	participant.RespondedAt = &now

	if err := s.participantRepo.Update(ctx, participant); err != nil {
		return ParticipantResponse{}, fmt.Errorf("failed to record response: %w", err)
	}

	return toParticipantResponse(*participant), nil
}

// --- Helpers ---

func rosterResponse(r *roster.Roster, participants []model.Participant) RosterResponse {
	resp := RosterResponse{
		Available: make([]MemberResponse, 0),
		Assigned:  make([]ParticipantResponse, 0, len(participants)),
	}
	for _, m := range r.Available() {
		resp.Available = append(resp.Available, MemberResponse{
			UserID:      m.UserID.String(),
			DisplayName: m.DisplayName,
		})
	}
	for _, p := range participants {
		resp.Assigned = append(resp.Assigned, toParticipantResponse(p))
	}
	return resp
}

func toParticipantResponse(p model.Participant) ParticipantResponse {
	resp := ParticipantResponse{
		ID:            p.ID.String(),
		RequestID:     p.RequestID.String(),
		UserID:        p.UserID.String(),
		Role:          p.Role,
		ResponseState: p.ResponseState,
		ResponseNote:  p.ResponseNote,
		ApprovalLimit: p.ApprovalLimit.StringFixed(2),
	}
	if p.User != nil {
		resp.DisplayName = p.User.DisplayName
	}
	if p.RespondedAt != nil {
		v := p.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &v
	}
	return resp
}
