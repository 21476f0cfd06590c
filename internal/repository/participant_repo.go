package repository

import (
	"context"

	"solicitudes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *model.Participant) error
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Participant, error)
	FindByRequestAndUser(ctx context.Context, requestID, userID uuid.UUID) (*model.Participant, error)
	FindByToken(ctx context.Context, token uuid.UUID) (*model.Participant, error)
	Update(ctx context.Context, p *model.Participant) error
	Delete(ctx context.Context, requestID, userID uuid.UUID) error
}

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(ctx context.Context, p *model.Participant) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *participantRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Participant, error) {
	var participants []model.Participant
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) FindByRequestAndUser(ctx context.Context, requestID, userID uuid.UUID) (*model.Participant, error) {
	var p model.Participant
	if err := GetDB(ctx, r.db).
		Where("request_id = ? AND user_id = ?", requestID, userID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepository) FindByToken(ctx context.Context, token uuid.UUID) (*model.Participant, error) {
	var p model.Participant
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("access_token = ?", token).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepository) Update(ctx context.Context, p *model.Participant) error {
	return GetDB(ctx, r.db).Save(p).Error
}

func (r *participantRepository) Delete(ctx context.Context, requestID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("request_id = ? AND user_id = ?", requestID, userID).
		Delete(&model.Participant{}).Error
}
