package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
)

// Repository manages persistence for hospital units.
type Repository interface {
	Create(ctx context.Context, unit *models.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	Save(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Unit, error)
	HasUsers(ctx context.Context, unitID uuid.UUID) (bool, error)
	HasBatches(ctx context.Context, unitID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a unit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *repository) Save(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Unit{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) HasUsers(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasBatches(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Batch{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	return count > 0, err
}
