package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supply is immutable reference data for a medical supply (insumo).
// MinStock is persisted but not consulted by alert reconciliation, which uses
// the configured critical-stock threshold instead.
type Supply struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	UnitOfMeasure   string          `gorm:"column:unit_of_measure;not null"`
	StorageLocation *string         `gorm:"column:storage_location"`
	MinStock        *int            `gorm:"column:min_stock"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
