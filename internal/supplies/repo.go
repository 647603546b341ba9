package supplies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
)

// Repository manages persistence for supply reference data.
type Repository interface {
	Create(ctx context.Context, supply *models.Supply) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supply, error)
	Save(ctx context.Context, supply *models.Supply) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Supply, error)
	HasBatches(ctx context.Context, supplyID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a supply repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, supply *models.Supply) error {
	return r.db.WithContext(ctx).Create(supply).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supply, error) {
	var supply models.Supply
	err := r.db.WithContext(ctx).First(&supply, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &supply, nil
}

func (r *repository) Save(ctx context.Context, supply *models.Supply) error {
	return r.db.WithContext(ctx).Save(supply).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Supply{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Supply, error) {
	var supplies []models.Supply
	err := r.db.WithContext(ctx).Order("name ASC").Find(&supplies).Error
	if err != nil {
		return nil, err
	}
	return supplies, nil
}

func (r *repository) HasBatches(ctx context.Context, supplyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Batch{}).
		Where("supply_id = ?", supplyID).
		Count(&count).Error
	return count > 0, err
}
