package service

import (
	"context"

	"solicitudes/internal/model"
	"solicitudes/internal/repository"

	"github.com/google/uuid"
)

type HistoryEntryResponse struct {
	ID          string `json:"id"`
	RequestID   string `json:"request_id"`
	ActorUserID string `json:"actor_user_id,omitempty"`
	ActorName   string `json:"actor_name,omitempty"`
	Action      string `json:"action"`
	Detail      string `json:"detail,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type HistoryService interface {
	// GetRequestHistory returns a request's ledger ordered by timestamp ascending.
	GetRequestHistory(ctx context.Context, requestID uuid.UUID) ([]HistoryEntryResponse, error)
	// GetAuditTrail returns the global ledger for audit views, newest first.
	GetAuditTrail(ctx context.Context, page, limit int) ([]HistoryEntryResponse, int64, error)
}

type historyService struct {
	historyRepo repository.HistoryRepository
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(historyRepo repository.HistoryRepository) HistoryService {
	return &historyService{historyRepo: historyRepo}
}

func (s *historyService) GetRequestHistory(ctx context.Context, requestID uuid.UUID) ([]HistoryEntryResponse, error) {
	entries, err := s.historyRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toHistoryResponse(e))
	}
	return result, nil
}

func (s *historyService) GetAuditTrail(ctx context.Context, page, limit int) ([]HistoryEntryResponse, int64, error) {
	entries, total, err := s.historyRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toHistoryResponse(e))
	}
	return result, total, nil
}

func toHistoryResponse(e model.HistoryEntry) HistoryEntryResponse {
	resp := HistoryEntryResponse{
		ID:        e.ID.String(),
		RequestID: e.RequestID.String(),
		Action:    e.Action,
		Detail:    e.Detail,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if e.ActorUserID != nil {
		resp.ActorUserID = e.ActorUserID.String()
	}
	if e.Actor != nil {
		resp.ActorName = e.Actor.DisplayName
	}
	return resp
}
