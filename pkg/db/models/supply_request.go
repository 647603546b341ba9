package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// SupplyRequest is a demand for a quantity of supply raised by a consumer.
// Kind routes it: local requests draw from the requesting unit's own stock,
// central requests draw from the central warehouse and land at the requester.
type SupplyRequest struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SupplyID    uuid.UUID           `gorm:"column:supply_id;type:uuid;not null;index"`
	Quantity    int                 `gorm:"column:quantity;not null"`
	Kind        enums.RequestKind   `gorm:"column:kind;type:text;not null"`
	RequesterID uuid.UUID           `gorm:"column:requester_id;type:uuid;not null"`
	UnitID      uuid.UUID           `gorm:"column:unit_id;type:uuid;not null;index"`
	Status      enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DecidedBy   *uuid.UUID          `gorm:"column:decided_by;type:uuid"`
	DecidedAt   *time.Time          `gorm:"column:decided_at"`
	Supply      *Supply             `gorm:"foreignKey:SupplyID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
