package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

// Schedule is a planned delivery of batch quantities between two units.
// Schedules are never deleted; terminal status is the only retirement.
type Schedule struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OriginUnitID      uuid.UUID            `gorm:"column:origin_unit_id;type:uuid;not null;index"`
	DestinationUnitID uuid.UUID            `gorm:"column:destination_unit_id;type:uuid;not null;index"`
	ScheduledFor      time.Time            `gorm:"column:scheduled_for;not null"`
	Note              *string              `gorm:"column:note"`
	ResponsibleID     uuid.UUID            `gorm:"column:responsible_id;type:uuid;not null"`
	Status            enums.ScheduleStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items             []ScheduleItem       `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE"`
	DispatchedAt      *time.Time           `gorm:"column:dispatched_at"`
	CompletedAt       *time.Time           `gorm:"column:completed_at"`
	CancelledAt       *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ScheduleItem fixes one batch quantity at schedule creation. Items cannot be
// added or changed after the schedule exists.
type ScheduleItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ScheduleID uuid.UUID `gorm:"column:schedule_id;type:uuid;not null;index"`
	BatchID    uuid.UUID `gorm:"column:batch_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Position   int       `gorm:"column:position;not null"`
	Batch      *Batch    `gorm:"foreignKey:BatchID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
