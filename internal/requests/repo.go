package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Repository manages persistence for supply requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.SupplyRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SupplyRequest, error)
	Save(ctx context.Context, request *models.SupplyRequest) error
	List(ctx context.Context, unitID *uuid.UUID, status *enums.RequestStatus) ([]models.SupplyRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a supply request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.SupplyRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SupplyRequest, error) {
	var request models.SupplyRequest
	err := r.db.WithContext(ctx).
		Preload("Supply").
		First(&request, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) Save(ctx context.Context, request *models.SupplyRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) List(ctx context.Context, unitID *uuid.UUID, status *enums.RequestStatus) ([]models.SupplyRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.SupplyRequest{}).Preload("Supply")
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.SupplyRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
