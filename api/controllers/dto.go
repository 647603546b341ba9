package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
)

// BatchResponse is the wire shape of one stock batch.
type BatchResponse struct {
	ID         uuid.UUID `json:"id"`
	SupplyID   uuid.UUID `json:"supply_id"`
	SupplyName string    `json:"supply_name,omitempty"`
	LotNumber  string    `json:"lot_number"`
	UnitID     uuid.UUID `json:"unit_id"`
	InitialQty int       `json:"initial_qty"`
	CurrentQty int       `json:"current_qty"`
	ExpiryDate time.Time `json:"expiry_date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBatchResponse(batch *models.Batch) BatchResponse {
	response := BatchResponse{
		ID:         batch.ID,
		SupplyID:   batch.SupplyID,
		LotNumber:  batch.LotNumber,
		UnitID:     batch.UnitID,
		InitialQty: batch.InitialQty,
		CurrentQty: batch.CurrentQty,
		ExpiryDate: batch.ExpiryDate,
		Status:     batch.Status.String(),
		CreatedAt:  batch.CreatedAt,
		UpdatedAt:  batch.UpdatedAt,
	}
	if batch.Supply != nil {
		response.SupplyName = batch.Supply.Name
	}
	return response
}

func toBatchResponses(batches []models.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, toBatchResponse(&batches[i]))
	}
	return out
}

// MovementResponse is the wire shape of one ledger row.
type MovementResponse struct {
	ID                uuid.UUID  `json:"id"`
	BatchID           uuid.UUID  `json:"batch_id"`
	Type              string     `json:"type"`
	Quantity          int        `json:"quantity"`
	ResponsibleID     uuid.UUID  `json:"responsible_id"`
	OriginUnitID      uuid.UUID  `json:"origin_unit_id"`
	DestinationUnitID *uuid.UUID `json:"destination_unit_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toMovementResponses(movements []models.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, MovementResponse{
			ID:                m.ID,
			BatchID:           m.BatchID,
			Type:              m.Type.String(),
			Quantity:          m.Quantity,
			ResponsibleID:     m.ResponsibleID,
			OriginUnitID:      m.OriginUnitID,
			DestinationUnitID: m.DestinationUnitID,
			CreatedAt:         m.CreatedAt,
		})
	}
	return out
}

// ScheduleItemResponse is one fixed line of a delivery schedule.
type ScheduleItemResponse struct {
	ID       uuid.UUID `json:"id"`
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int       `json:"quantity"`
	Position int       `json:"position"`
}

// ScheduleResponse is the wire shape of one delivery schedule.
type ScheduleResponse struct {
	ID                uuid.UUID              `json:"id"`
	OriginUnitID      uuid.UUID              `json:"origin_unit_id"`
	DestinationUnitID uuid.UUID              `json:"destination_unit_id"`
	ScheduledFor      time.Time              `json:"scheduled_for"`
	Note              *string                `json:"note,omitempty"`
	ResponsibleID     uuid.UUID              `json:"responsible_id"`
	Status            string                 `json:"status"`
	Items             []ScheduleItemResponse `json:"items"`
	DispatchedAt      *time.Time             `json:"dispatched_at,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	CancelledAt       *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

func toScheduleResponse(schedule *models.Schedule) ScheduleResponse {
	items := make([]ScheduleItemResponse, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		items = append(items, ScheduleItemResponse{
			ID:       item.ID,
			BatchID:  item.BatchID,
			Quantity: item.Quantity,
			Position: item.Position,
		})
	}
	return ScheduleResponse{
		ID:                schedule.ID,
		OriginUnitID:      schedule.OriginUnitID,
		DestinationUnitID: schedule.DestinationUnitID,
		ScheduledFor:      schedule.ScheduledFor,
		Note:              schedule.Note,
		ResponsibleID:     schedule.ResponsibleID,
		Status:            schedule.Status.String(),
		Items:             items,
		DispatchedAt:      schedule.DispatchedAt,
		CompletedAt:       schedule.CompletedAt,
		CancelledAt:       schedule.CancelledAt,
		CreatedAt:         schedule.CreatedAt,
	}
}

func toScheduleResponses(schedules []models.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		out = append(out, toScheduleResponse(&schedules[i]))
	}
	return out
}

// RequestResponse is the wire shape of one supply request.
type RequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	SupplyID    uuid.UUID  `json:"supply_id"`
	SupplyName  string     `json:"supply_name,omitempty"`
	Quantity    int        `json:"quantity"`
	Kind        string     `json:"kind"`
	RequesterID uuid.UUID  `json:"requester_id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	Status      string     `json:"status"`
	DecidedBy   *uuid.UUID `json:"decided_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toRequestResponse(request *models.SupplyRequest) RequestResponse {
	response := RequestResponse{
		ID:          request.ID,
		SupplyID:    request.SupplyID,
		Quantity:    request.Quantity,
		Kind:        string(request.Kind),
		RequesterID: request.RequesterID,
		UnitID:      request.UnitID,
		Status:      request.Status.String(),
		DecidedBy:   request.DecidedBy,
		DecidedAt:   request.DecidedAt,
		CreatedAt:   request.CreatedAt,
	}
	if request.Supply != nil {
		response.SupplyName = request.Supply.Name
	}
	return response
}

func toRequestResponses(requests []models.SupplyRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestResponse(&requests[i]))
	}
	return out
}

// AlertResponse is the wire shape of one derived alert.
type AlertResponse struct {
	ID         uuid.UUID  `json:"id"`
	UnitID     uuid.UUID  `json:"unit_id"`
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	SupplyID   *uuid.UUID `json:"supply_id,omitempty"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toAlertResponses(alerts []models.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, AlertResponse{
			ID:         alert.ID,
			UnitID:     alert.UnitID,
			Type:       alert.Type.String(),
			Message:    alert.Message,
			SupplyID:   alert.SupplyID,
			BatchID:    alert.BatchID,
			Status:     alert.Status.String(),
			ResolvedAt: alert.ResolvedAt,
			CreatedAt:  alert.CreatedAt,
		})
	}
	return out
}

// UnitResponse is the wire shape of one hospital unit.
type UnitResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUnitResponse(unit *models.Unit) UnitResponse {
	return UnitResponse{
		ID:        unit.ID,
		Name:      unit.Name,
		Phone:     unit.Phone,
		Email:     unit.Email,
		Address:   unit.Address,
		CreatedAt: unit.CreatedAt,
	}
}

func toUnitResponses(units []models.Unit) []UnitResponse {
	out := make([]UnitResponse, 0, len(units))
	for i := range units {
		out = append(out, toUnitResponse(&units[i]))
	}
	return out
}

// SupplyResponse is the wire shape of one catalog entry.
type SupplyResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	StorageLocation *string         `json:"storage_location,omitempty"`
	MinStock        *int            `json:"min_stock,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toSupplyResponse(supply *models.Supply) SupplyResponse {
	return SupplyResponse{
		ID:              supply.ID,
		Name:            supply.Name,
		UnitOfMeasure:   supply.UnitOfMeasure,
		StorageLocation: supply.StorageLocation,
		MinStock:        supply.MinStock,
		UnitCost:        supply.UnitCost,
		CreatedAt:       supply.CreatedAt,
	}
}

func toSupplyResponses(supplies []models.Supply) []SupplyResponse {
	out := make([]SupplyResponse, 0, len(supplies))
	for i := range supplies {
		out = append(out, toSupplyResponse(&supplies[i]))
	}
	return out
}

// UserResponse is the wire shape of one operator account. The password hash
// never leaves the service layer.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	UnitID    uuid.UUID `json:"unit_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		UnitID:    user.UnitID,
		CreatedAt: user.CreatedAt,
	}
}

func toUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}
