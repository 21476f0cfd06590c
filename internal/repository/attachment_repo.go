package repository

import (
	"context"

	"solicitudes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, a *model.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SetSelection clears every selected flag of the request and, when
	// selectedID is non-nil, sets that attachment selected. Run inside a
	// transaction so no intermediate two-selected state is observable.
	SetSelection(ctx context.Context, requestID uuid.UUID, selectedID *uuid.UUID) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	return GetDB(ctx, r.db).Create(a).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	var a model.Attachment
	if err := GetDB(ctx, r.db).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Attachment, error) {
	var attachments []model.Attachment
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("position ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Attachment{}, "id = ?", id).Error
}

func (r *attachmentRepository) SetSelection(ctx context.Context, requestID uuid.UUID, selectedID *uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Attachment{}).
		Where("request_id = ?", requestID).
		Update("selected", false).Error; err != nil {
		return err
	}
	if selectedID == nil {
		return nil
	}
	return db.Model(&model.Attachment{}).
		Where("id = ? AND request_id = ?", *selectedID, requestID).
		Update("selected", true).Error
}
