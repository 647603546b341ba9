package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Repository manages persistence for stock batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Batch, error)
	FindByKey(ctx context.Context, supplyID uuid.UUID, lotNumber string, unitID uuid.UUID) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Merge(ctx context.Context, batchID uuid.UUID, quantity int, expiry *time.Time) error
	DeductConditional(ctx context.Context, batchID uuid.UUID, quantity int) (bool, error)
	UpdateStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error
	List(ctx context.Context, unitID, supplyID *uuid.UUID) ([]models.Batch, error)
	ListForAllocation(ctx context.Context, supplyID, unitID uuid.UUID, today time.Time) ([]models.Batch, error)
	SupplyExists(ctx context.Context, supplyID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a batch repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (r *repository) FindByKey(ctx context.Context, supplyID uuid.UUID, lotNumber string, unitID uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).
		Where("supply_id = ? AND lot_number = ? AND unit_id = ?", supplyID, lotNumber, unitID).
		First(&batch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (r *repository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// Merge adds quantity to an existing batch and, when expiry is non-nil,
// overwrites the stored expiry. The caller decides whether the new expiry
// qualifies (it must be strictly later than the stored one).
func (r *repository) Merge(ctx context.Context, batchID uuid.UUID, quantity int, expiry *time.Time) error {
	updates := map[string]any{
		"current_qty": gorm.Expr("current_qty + ?", quantity),
	}
	if expiry != nil {
		updates["expiry_date"] = *expiry
	}
	return r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ?", batchID).
		Updates(updates).Error
}

// DeductConditional decrements current_qty only when enough stock remains.
// The WHERE guard makes the check-then-update atomic against concurrent
// writers; a false return means the guard rejected the deduction.
func (r *repository) DeductConditional(ctx context.Context, batchID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ? AND current_qty >= ?", batchID, quantity).
		Update("current_qty", gorm.Expr("current_qty - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ?", batchID).
		Update("status", status).Error
}

func (r *repository) List(ctx context.Context, unitID, supplyID *uuid.UUID) ([]models.Batch, error) {
	query := r.db.WithContext(ctx).Model(&models.Batch{}).Preload("Supply")
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}
	if supplyID != nil {
		query = query.Where("supply_id = ?", *supplyID)
	}

	var batches []models.Batch
	if err := query.Order("expiry_date ASC, lot_number ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// ListForAllocation returns the usable, unexpired batches of one supply at one
// unit ordered by ascending expiry, the walk order for FIFO fulfillment. Low
// stock is still stock; only expired and blocked batches are excluded.
func (r *repository) ListForAllocation(ctx context.Context, supplyID, unitID uuid.UUID, today time.Time) ([]models.Batch, error) {
	y, m, d := today.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	var batches []models.Batch
	if err := r.db.WithContext(ctx).
		Where("supply_id = ? AND unit_id = ? AND status IN ? AND expiry_date >= ?",
			supplyID, unitID, []enums.BatchStatus{enums.BatchStatusActive, enums.BatchStatusLow}, dayStart).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) SupplyExists(ctx context.Context, supplyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Supply{}).
		Where("id = ?", supplyID).
		Count(&count).Error
	return count > 0, err
}
