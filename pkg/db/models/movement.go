package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Movement is one immutable ledger row. Rows are only ever inserted; there is
// no update or delete path anywhere in the codebase.
type Movement struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BatchID           uuid.UUID          `gorm:"column:batch_id;type:uuid;not null;index"`
	Type              enums.MovementType `gorm:"column:type;type:text;not null"`
	Quantity          int                `gorm:"column:quantity;not null"`
	ResponsibleID     uuid.UUID          `gorm:"column:responsible_id;type:uuid;not null"`
	OriginUnitID      uuid.UUID          `gorm:"column:origin_unit_id;type:uuid;not null;index"`
	DestinationUnitID *uuid.UUID         `gorm:"column:destination_unit_id;type:uuid;index"`
	Batch             *Batch             `gorm:"foreignKey:BatchID"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
}
