package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Alert is a derived record maintained solely by reconciliation; users never
// create or edit alerts directly. At most one open alert exists per
// (batch, type); a recurring condition reactivates the resolved row.
type Alert struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UnitID     uuid.UUID         `gorm:"column:unit_id;type:uuid;not null;index"`
	Type       enums.AlertType   `gorm:"column:type;type:text;not null"`
	Message    string            `gorm:"column:message;not null"`
	SupplyID   *uuid.UUID        `gorm:"column:supply_id;type:uuid"`
	BatchID    *uuid.UUID        `gorm:"column:batch_id;type:uuid;index"`
	Status     enums.AlertStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ResolvedAt *time.Time        `gorm:"column:resolved_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
