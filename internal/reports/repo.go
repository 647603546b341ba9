package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValuationRow is one supply's stock position at one unit, priced at catalog
// unit cost.
type ValuationRow struct {
	UnitID     uuid.UUID       `gorm:"column:unit_id"`
	SupplyID   uuid.UUID       `gorm:"column:supply_id"`
	SupplyName string          `gorm:"column:supply_name"`
	Quantity   int             `gorm:"column:quantity"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost"`
}

// Repository aggregates batch and supply rows into reporting shapes.
type Repository interface {
	StockValuation(ctx context.Context, unitID *uuid.UUID) ([]ValuationRow, error)
	ExpiringBatchCount(ctx context.Context, unitID *uuid.UUID, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reporting repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) StockValuation(ctx context.Context, unitID *uuid.UUID) ([]ValuationRow, error) {
	query := r.db.WithContext(ctx).
		Table("batches").
		Select("batches.unit_id, batches.supply_id, supplies.name AS supply_name, COALESCE(SUM(batches.current_qty), 0) AS quantity, supplies.unit_cost").
		Joins("JOIN supplies ON supplies.id = batches.supply_id").
		Where("batches.current_qty > 0").
		Group("batches.unit_id, batches.supply_id, supplies.name, supplies.unit_cost").
		Order("supplies.name ASC")

	if unitID != nil {
		query = query.Where("batches.unit_id = ?", *unitID)
	}

	var rows []ValuationRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ExpiringBatchCount(ctx context.Context, unitID *uuid.UUID, before time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Table("batches").
		Where("current_qty > 0").
		Where("expiry_date < ?", before)

	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}
