package alerts

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
	"github.com/lucasmoura/vitalstock-backend/pkg/metrics"
)

// Service maintains the derived alert view. Reconcile is called inside the
// transaction of every stock-mutating operation, once per touched unit.
// Callers log and swallow its errors: a failed reconciliation never fails the
// triggering stock operation.
type Service interface {
	Reconcile(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error
	List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.Alert, error)
}

// ListInput narrows the alert listing.
type ListInput struct {
	UnitID *uuid.UUID
	Status *enums.AlertStatus
}

type service struct {
	repo      Repository
	threshold int
	metrics   *metrics.StockMetrics
	now       func() time.Time
}

// NewService wires an alert service. threshold is the fixed critical-stock
// floor; the per-supply min_stock field is deliberately not consulted.
func NewService(repo Repository, threshold int, stockMetrics *metrics.StockMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alert repository required")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("critical stock threshold must not be negative")
	}
	return &service{repo: repo, threshold: threshold, metrics: stockMetrics, now: time.Now}, nil
}

// Reconcile recomputes batch statuses (expired and low) and the open alert
// set for one unit. It is idempotent: a second run with no intervening stock
// change performs no writes.
func (s *service) Reconcile(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	if unitID == uuid.Nil {
		return errors.New(errors.CodeValidation, "unit id is required")
	}

	repo := s.repo.WithTx(tx)
	batches, err := repo.ListBatchesByUnit(ctx, unitID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading unit batches")
	}

	today := s.now()
	for i := range batches {
		batch := &batches[i]
		if err := s.reconcileExpiry(ctx, repo, batch, today); err != nil {
			return err
		}
		if err := s.reconcileCriticalStock(ctx, repo, batch); err != nil {
			return err
		}
	}

	s.exportGauges(ctx, repo, unitID)
	return nil
}

// reconcileExpiry keeps batch.Status in sync with the DB write so the
// critical-stock pass that follows sees the batch as it now is, not as it was
// loaded.
func (s *service) reconcileExpiry(ctx context.Context, repo Repository, batch *models.Batch, today time.Time) error {
	expired := batch.Expired(today)

	if expired {
		if batch.Status == enums.BatchStatusActive || batch.Status == enums.BatchStatusLow {
			if err := repo.UpdateBatchStatus(ctx, batch.ID, enums.BatchStatusExpired); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "marking batch expired")
			}
			batch.Status = enums.BatchStatusExpired
		}
		message := fmt.Sprintf("lot %s expired on %s", batch.LotNumber, batch.ExpiryDate.Format("2006-01-02"))
		return s.ensureActive(ctx, repo, batch, enums.AlertTypeExpiry, message)
	}

	if batch.Status == enums.BatchStatusExpired {
		if err := repo.UpdateBatchStatus(ctx, batch.ID, enums.BatchStatusActive); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "restoring batch status")
		}
		batch.Status = enums.BatchStatusActive
	}
	return s.resolveActive(ctx, repo, batch, enums.AlertTypeExpiry)
}

// reconcileCriticalStock drives the active/low pair off the configured
// threshold alongside the alert itself.
func (s *service) reconcileCriticalStock(ctx context.Context, repo Repository, batch *models.Batch) error {
	// Expired and blocked batches are outside the critical-stock check.
	if batch.Status == enums.BatchStatusExpired || batch.Status == enums.BatchStatusBlocked {
		return nil
	}

	if batch.CurrentQty < s.threshold {
		if batch.Status == enums.BatchStatusActive {
			if err := repo.UpdateBatchStatus(ctx, batch.ID, enums.BatchStatusLow); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "marking batch low")
			}
			batch.Status = enums.BatchStatusLow
		}
		message := fmt.Sprintf("lot %s holds %d, below the critical threshold of %d", batch.LotNumber, batch.CurrentQty, s.threshold)
		return s.ensureActive(ctx, repo, batch, enums.AlertTypeCriticalStock, message)
	}

	if batch.Status == enums.BatchStatusLow {
		if err := repo.UpdateBatchStatus(ctx, batch.ID, enums.BatchStatusActive); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "restoring batch status")
		}
		batch.Status = enums.BatchStatusActive
	}
	return s.resolveActive(ctx, repo, batch, enums.AlertTypeCriticalStock)
}

// ensureActive creates the (batch, type) alert if absent, or reactivates a
// resolved one. An already-active alert is left untouched.
func (s *service) ensureActive(ctx context.Context, repo Repository, batch *models.Batch, alertType enums.AlertType, message string) error {
	existing, err := repo.FindByBatchAndType(ctx, batch.ID, alertType)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading alert")
	}

	if existing == nil {
		batchID := batch.ID
		supplyID := batch.SupplyID
		alert := &models.Alert{
			ID:       uuid.New(),
			UnitID:   batch.UnitID,
			Type:     alertType,
			Message:  message,
			SupplyID: &supplyID,
			BatchID:  &batchID,
			Status:   enums.AlertStatusActive,
		}
		if err := repo.Create(ctx, alert); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating alert")
		}
		return nil
	}

	if existing.Status == enums.AlertStatusActive {
		return nil
	}

	existing.Status = enums.AlertStatusActive
	existing.Message = message
	existing.ResolvedAt = nil
	if err := repo.Save(ctx, existing); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "reactivating alert")
	}
	return nil
}

func (s *service) resolveActive(ctx context.Context, repo Repository, batch *models.Batch, alertType enums.AlertType) error {
	existing, err := repo.FindByBatchAndType(ctx, batch.ID, alertType)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading alert")
	}
	if existing == nil || existing.Status != enums.AlertStatusActive {
		return nil
	}

	resolvedAt := s.now()
	existing.Status = enums.AlertStatusResolved
	existing.ResolvedAt = &resolvedAt
	if err := repo.Save(ctx, existing); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving alert")
	}
	return nil
}

func (s *service) exportGauges(ctx context.Context, repo Repository, unitID uuid.UUID) {
	if s.metrics == nil {
		return
	}
	for _, alertType := range []enums.AlertType{enums.AlertTypeExpiry, enums.AlertTypeCriticalStock} {
		count, err := repo.CountActiveByUnitAndType(ctx, unitID, alertType)
		if err != nil {
			continue
		}
		s.metrics.SetActiveAlerts(unitID.String(), string(alertType), int(count))
	}
}

// List returns alerts scoped by the caller's authority: central principals may
// inspect any unit, everyone else only their home unit.
func (s *service) List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.Alert, error) {
	if err := authz.Allow(principal, authz.OpViewAlerts); err != nil {
		return nil, err
	}

	unitID := input.UnitID
	if !principal.IsCentral() {
		home := principal.UnitID
		unitID = &home
	}

	alerts, err := s.repo.List(ctx, unitID, input.Status)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing alerts")
	}
	return alerts, nil
}
