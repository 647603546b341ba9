package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
)

// ValuationItem is one supply line in a stock valuation.
type ValuationItem struct {
	SupplyID   uuid.UUID       `json:"supply_id"`
	SupplyName string          `json:"supply_name"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// Valuation prices every held quantity at catalog unit cost.
type Valuation struct {
	UnitID     *uuid.UUID      `json:"unit_id,omitempty"`
	Items      []ValuationItem `json:"items"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// MovementSummary aggregates ledger quantities by movement type over a window.
type MovementSummary struct {
	UnitID          *uuid.UUID     `json:"unit_id,omitempty"`
	Since           time.Time      `json:"since"`
	TotalsByType    map[string]int `json:"totals_by_type"`
	ExpiringBatches int64          `json:"expiring_batches"`
}

// Service produces read-only aggregates over stock and the movement ledger.
type Service interface {
	StockValuation(ctx context.Context, principal authz.Principal, unitID *uuid.UUID) (*Valuation, error)
	MovementSummary(ctx context.Context, principal authz.Principal, unitID *uuid.UUID, windowDays int) (*MovementSummary, error)
}

type service struct {
	repo       Repository
	movements  movements.Repository
	windowDays int
	now        func() time.Time
}

// NewService wires the reporting service. windowDays bounds the movement
// summary and the expiring-batch horizon when callers do not specify one.
func NewService(repo Repository, movementRepo movements.Repository, windowDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if movementRepo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	return &service{
		repo:       repo,
		movements:  movementRepo,
		windowDays: windowDays,
		now:        time.Now,
	}, nil
}

func (s *service) StockValuation(ctx context.Context, principal authz.Principal, unitID *uuid.UUID) (*Valuation, error) {
	if err := authz.Allow(principal, authz.OpViewReports); err != nil {
		return nil, err
	}
	unitID = s.scope(principal, unitID)

	rows, err := s.repo.StockValuation(ctx, unitID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing valuation")
	}

	valuation := &Valuation{UnitID: unitID, Items: make([]ValuationItem, 0, len(rows))}
	for _, row := range rows {
		total := row.UnitCost.Mul(decimal.NewFromInt(int64(row.Quantity)))
		valuation.Items = append(valuation.Items, ValuationItem{
			SupplyID:   row.SupplyID,
			SupplyName: row.SupplyName,
			Quantity:   row.Quantity,
			UnitCost:   row.UnitCost,
			TotalValue: total,
		})
		valuation.TotalValue = valuation.TotalValue.Add(total)
	}
	return valuation, nil
}

func (s *service) MovementSummary(ctx context.Context, principal authz.Principal, unitID *uuid.UUID, windowDays int) (*MovementSummary, error) {
	if err := authz.Allow(principal, authz.OpViewReports); err != nil {
		return nil, err
	}
	unitID = s.scope(principal, unitID)
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	since := s.now().AddDate(0, 0, -windowDays)
	totals, err := s.movements.SumQuantityByType(ctx, unitID, since)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "summarizing movements")
	}

	horizon := s.now().AddDate(0, 0, windowDays)
	expiring, err := s.repo.ExpiringBatchCount(ctx, unitID, horizon)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting expiring batches")
	}

	return &MovementSummary{
		UnitID:          unitID,
		Since:           since,
		TotalsByType:    totals,
		ExpiringBatches: expiring,
	}, nil
}

// scope pins non-central callers to their home unit regardless of the filter
// they asked for.
func (s *service) scope(principal authz.Principal, unitID *uuid.UUID) *uuid.UUID {
	if principal.IsCentral() {
		return unitID
	}
	home := principal.UnitID
	return &home
}
