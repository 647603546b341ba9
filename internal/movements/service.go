package movements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/pagination"
)

// Service exposes the append-only movement ledger.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Movement, error)
	List(ctx context.Context, principal authz.Principal, input ListInput) (*Page, error)
}

// RecordInput captures the immutable data one ledger row requires.
type RecordInput struct {
	BatchID           uuid.UUID
	Type              enums.MovementType
	Quantity          int
	ResponsibleID     uuid.UUID
	OriginUnitID      uuid.UUID
	DestinationUnitID *uuid.UUID
}

// ListInput narrows the ledger listing.
type ListInput struct {
	SupplyID   *uuid.UUID
	WindowDays int
	Pagination pagination.Params
}

// Page is one ledger listing page.
type Page struct {
	Movements  []models.Movement
	NextCursor string
}

type service struct {
	repo       Repository
	windowDays int
	now        func() time.Time
}

// NewService wires a movement service with the provided repository. windowDays
// is the default trailing window applied when a listing does not specify one.
func NewService(repo Repository, windowDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if windowDays <= 0 {
		return nil, fmt.Errorf("movement window days must be positive")
	}
	return &service{repo: repo, windowDays: windowDays, now: time.Now}, nil
}

// Record appends one ledger row inside the caller's transaction. Entries and
// transfers always name a destination; exits and reversals are origin-scoped.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Movement, error) {
	if input.BatchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "batch id is required")
	}
	if !input.Type.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	if input.Quantity <= 0 {
		return nil, errors.New(errors.CodeValidation, "quantity must be positive")
	}
	if input.ResponsibleID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "responsible id is required")
	}
	if input.OriginUnitID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "origin unit id is required")
	}
	needsDestination := input.Type == enums.MovementTypeEntry || input.Type == enums.MovementTypeTransfer
	if needsDestination && (input.DestinationUnitID == nil || *input.DestinationUnitID == uuid.Nil) {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("%s movements require a destination unit", input.Type))
	}

	movement := &models.Movement{
		ID:                uuid.New(),
		BatchID:           input.BatchID,
		Type:              input.Type,
		Quantity:          input.Quantity,
		ResponsibleID:     input.ResponsibleID,
		OriginUnitID:      input.OriginUnitID,
		DestinationUnitID: input.DestinationUnitID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "recording movement")
	}
	return movement, nil
}

// List returns ledger rows newest first. Central principals see every unit;
// everyone else sees only movements visible to their home unit.
func (s *service) List(ctx context.Context, principal authz.Principal, input ListInput) (*Page, error) {
	if err := authz.Allow(principal, authz.OpListMovements); err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	windowDays := input.WindowDays
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	since := s.now().AddDate(0, 0, -windowDays)

	filter := ListFilter{
		SupplyID: input.SupplyID,
		Since:    &since,
		Cursor:   cursor,
		Limit:    pagination.LimitWithBuffer(input.Pagination.Limit),
	}
	if !principal.IsCentral() {
		unit := principal.UnitID
		filter.UnitID = &unit
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing movements")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	page := &Page{Movements: rows}
	if len(rows) > limit {
		page.Movements = rows[:limit]
		last := page.Movements[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
