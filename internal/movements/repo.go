package movements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/pagination"
)

// ListFilter narrows ledger queries. A nil UnitID means no visibility scoping
// (central authority); otherwise rows are restricted to movements the unit is
// allowed to see.
type ListFilter struct {
	UnitID   *uuid.UUID
	SupplyID *uuid.UUID
	Since    *time.Time
	BatchID  *uuid.UUID
	Cursor   *pagination.Cursor
	Limit    int
}

// Repository manages persistence for the append-only movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.Movement) error
	List(ctx context.Context, filter ListFilter) ([]models.Movement, error)
	SumQuantityByType(ctx context.Context, unitID *uuid.UUID, since time.Time) (map[string]int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.Movement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Movement, error) {
	query := r.db.WithContext(ctx).Model(&models.Movement{})

	if filter.UnitID != nil {
		unit := *filter.UnitID
		// Entries are visible at their destination, exits at their origin,
		// transfers and reversals at either end.
		query = query.Where(
			"(type = ? AND destination_unit_id = ?) OR (type = ? AND origin_unit_id = ?) OR (type IN ? AND (origin_unit_id = ? OR destination_unit_id = ?))",
			"entry", unit,
			"exit", unit,
			[]string{"transfer", "reversal"}, unit, unit,
		)
	}

	if filter.SupplyID != nil {
		query = query.
			Joins("JOIN batches ON batches.id = movements.batch_id").
			Where("batches.supply_id = ?", *filter.SupplyID)
	}

	if filter.Since != nil {
		query = query.Where("movements.created_at >= ?", *filter.Since)
	}

	if filter.BatchID != nil {
		query = query.Where("movements.batch_id = ?", *filter.BatchID)
	}

	if filter.Cursor != nil {
		query = query.Where(
			"(movements.created_at < ?) OR (movements.created_at = ? AND movements.id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	var rows []models.Movement
	if err := query.
		Order("movements.created_at DESC, movements.id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumQuantityByType(ctx context.Context, unitID *uuid.UUID, since time.Time) (map[string]int, error) {
	type row struct {
		Type  string
		Total int
	}

	query := r.db.WithContext(ctx).Model(&models.Movement{}).
		Select("type, COALESCE(SUM(quantity), 0) AS total").
		Where("created_at >= ?", since).
		Group("type")

	if unitID != nil {
		query = query.Where("origin_unit_id = ? OR destination_unit_id = ?", *unitID, *unitID)
	}

	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.Type] = r.Total
	}
	return totals, nil
}
