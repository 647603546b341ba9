package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Batch is the stock of one supply lot held at one unit. CurrentQty is the
// single source of truth for on-hand stock and is only ever changed through
// movement-recording operations. The (supply, lot, unit) triple is unique:
// registering the same lot at the same unit merges into the existing row.
type Batch struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	SupplyID   uuid.UUID         `gorm:"column:supply_id;type:uuid;not null;uniqueIndex:idx_batches_supply_lot_unit"`
	LotNumber  string            `gorm:"column:lot_number;not null;uniqueIndex:idx_batches_supply_lot_unit"`
	UnitID     uuid.UUID         `gorm:"column:unit_id;type:uuid;not null;uniqueIndex:idx_batches_supply_lot_unit"`
	InitialQty int               `gorm:"column:initial_qty;not null"`
	CurrentQty int               `gorm:"column:current_qty;not null"`
	ExpiryDate time.Time         `gorm:"column:expiry_date;not null"`
	Status     enums.BatchStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Supply     *Supply           `gorm:"foreignKey:SupplyID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the batch's expiry date is before the given day.
func (b Batch) Expired(today time.Time) bool {
	y, m, d := today.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	return b.ExpiryDate.Before(dayStart)
}
