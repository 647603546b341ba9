package schedules

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
)

// Repository manages persistence for delivery schedules and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, schedule *models.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
	Save(ctx context.Context, schedule *models.Schedule) error
	List(ctx context.Context, unitID *uuid.UUID) ([]models.Schedule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a schedule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&schedule, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

// Save persists status and timestamp changes. Items are fixed at creation and
// never written back through here.
func (r *repository) Save(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(schedule).Error
}

func (r *repository) List(ctx context.Context, unitID *uuid.UUID) ([]models.Schedule, error) {
	query := r.db.WithContext(ctx).Model(&models.Schedule{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	if unitID != nil {
		query = query.Where("origin_unit_id = ? OR destination_unit_id = ?", *unitID, *unitID)
	}

	var schedules []models.Schedule
	if err := query.Order("scheduled_for DESC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
