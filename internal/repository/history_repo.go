package repository

import (
	"context"

	"solicitudes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository is append-only: entries are never updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, entry *model.HistoryEntry) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.HistoryEntry, error)
	List(ctx context.Context, page, limit int) ([]model.HistoryEntry, int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, entry *model.HistoryEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *historyRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := GetDB(ctx, r.db).
		Preload("Actor").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *historyRepository) List(ctx context.Context, page, limit int) ([]model.HistoryEntry, int64, error) {
	var entries []model.HistoryEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.HistoryEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Actor").Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
