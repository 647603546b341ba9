package alerts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Repository manages persistence for derived alerts and the batch reads the
// reconciler needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListBatchesByUnit(ctx context.Context, unitID uuid.UUID) ([]models.Batch, error)
	UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error
	FindByBatchAndType(ctx context.Context, batchID uuid.UUID, alertType enums.AlertType) (*models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) error
	Save(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, unitID *uuid.UUID, status *enums.AlertStatus) ([]models.Alert, error)
	CountActiveByUnitAndType(ctx context.Context, unitID uuid.UUID, alertType enums.AlertType) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an alert repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListBatchesByUnit(ctx context.Context, unitID uuid.UUID) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ?", batchID).
		Update("status", status).Error
}

func (r *repository) FindByBatchAndType(ctx context.Context, batchID uuid.UUID, alertType enums.AlertType) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND type = ?", batchID, alertType).
		First(&alert).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *repository) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) Save(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *repository) List(ctx context.Context, unitID *uuid.UUID, status *enums.AlertStatus) ([]models.Alert, error) {
	query := r.db.WithContext(ctx).Model(&models.Alert{})
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var alerts []models.Alert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) CountActiveByUnitAndType(ctx context.Context, unitID uuid.UUID, alertType enums.AlertType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("unit_id = ? AND type = ? AND status = ?", unitID, alertType, enums.AlertStatusActive).
		Count(&count).Error
	return count, err
}
