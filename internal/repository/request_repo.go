package repository

import (
	"context"
	"fmt"

	"solicitudes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows List results. Zero values mean "no filter".
type RequestFilter struct {
	ApprovalState  string
	Kind           string
	CostCenterCode string
	CampusCode     string
	OwnerUserID    *uuid.UUID
	Year           int
	Page           int
	Limit          int
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	Update(ctx context.Context, req *model.Request) error
	NextCode(ctx context.Context, year int) (string, error)
	// TryLock atomically sets the in-flight flag; false means another
	// transition on the request is already awaiting confirmation.
	TryLock(ctx context.Context, id uuid.UUID) (bool, error)
	Unlock(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).
		Preload("Owner").
		Preload("Approver").
		Preload("Participants").
		Preload("Participants.User").
		Preload("Attachments").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		if filter.ApprovalState != "" {
			q = q.Where("approval_state = ?", filter.ApprovalState)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", filter.Kind)
		}
		if filter.CostCenterCode != "" {
			q = q.Where("cost_center_code = ?", filter.CostCenterCode)
		}
		if filter.CampusCode != "" {
			q = q.Where("campus_code = ?", filter.CampusCode)
		}
		if filter.OwnerUserID != nil {
			q = q.Where("owner_user_id = ?", *filter.OwnerUserID)
		}
		if filter.Year != 0 {
			q = q.Where("year = ?", filter.Year)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&model.Request{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	var requests []model.Request
	if err := apply(db.Preload("Owner").Preload("Approver")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// NextCode allocates the next request code for the year, REQ-<year>-NNNNN.
// An advisory lock on the prefix prevents concurrent duplicate codes.
func (r *requestRepository) NextCode(ctx context.Context, year int) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := fmt.Sprintf("REQ-%d-", year)

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.Request{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (r *requestRepository) TryLock(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ? AND locked = false", id).
		Update("locked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *requestRepository) Unlock(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Update("locked", false).Error
}
