package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
	"github.com/lucasmoura/vitalstock-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Reconciler recomputes the derived alert view for one unit inside the
// caller's transaction.
type Reconciler interface {
	Reconcile(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error
}

// Service owns batch stock: entry registration, deduction and manual status
// overrides. Every mutation runs in one transaction and appends its ledger row
// before committing.
type Service interface {
	FindBatch(ctx context.Context, principal authz.Principal, supplyID uuid.UUID, lotNumber string, unitID uuid.UUID) (*models.Batch, error)
	RegisterEntries(ctx context.Context, principal authz.Principal, entries []EntryInput) (*RegisterOutcome, error)
	Deduct(ctx context.Context, principal authz.Principal, input DeductInput) (*models.Batch, error)
	SetStatus(ctx context.Context, principal authz.Principal, batchID uuid.UUID, status enums.BatchStatus) (*models.Batch, error)
	List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.Batch, error)
}

// EntryInput is one lot arrival to register.
type EntryInput struct {
	SupplyID  uuid.UUID
	LotNumber string
	UnitID    uuid.UUID
	Quantity  int
	Expiry    time.Time
}

// DeductInput removes stock from one batch. UnitID is honored only for
// central principals; everyone else deducts from their home unit.
type DeductInput struct {
	BatchID  uuid.UUID
	Quantity int
	UnitID   *uuid.UUID
}

// ListInput narrows the batch listing.
type ListInput struct {
	UnitID   *uuid.UUID
	SupplyID *uuid.UUID
}

// EntryOutcome is the per-item result of a batched registration.
type EntryOutcome struct {
	Index int
	Batch *models.Batch
	Err   error
}

// RegisterOutcome aggregates a batched registration: per-item outcomes plus
// the overall verdict (total success, partial, or failed).
type RegisterOutcome struct {
	Items     []EntryOutcome
	Succeeded int
	Failed    int
}

// Partial reports whether some but not all items were registered.
func (o *RegisterOutcome) Partial() bool {
	return o.Succeeded > 0 && o.Failed > 0
}

// Err aggregates every per-item failure.
func (o *RegisterOutcome) Err() error {
	var combined error
	for _, item := range o.Items {
		if item.Err != nil {
			combined = multierr.Append(combined, fmt.Errorf("item %d: %w", item.Index, item.Err))
		}
	}
	return combined
}

type service struct {
	tx        txRunner
	repo      Repository
	movements movements.Service
	alerts    Reconciler
	logg      *logger.Logger
	metrics   *metrics.StockMetrics
	now       func() time.Time
}

// NewService wires the inventory service.
func NewService(tx txRunner, repo Repository, movementSvc movements.Service, reconciler Reconciler, logg *logger.Logger, stockMetrics *metrics.StockMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("batch repository required")
	}
	if movementSvc == nil {
		return nil, fmt.Errorf("movement service required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("alert reconciler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		movements: movementSvc,
		alerts:    reconciler,
		logg:      logg,
		metrics:   stockMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) FindBatch(ctx context.Context, principal authz.Principal, supplyID uuid.UUID, lotNumber string, unitID uuid.UUID) (*models.Batch, error) {
	if err := authz.Allow(principal, authz.OpListBatches); err != nil {
		return nil, err
	}
	if !principal.IsCentral() && unitID != principal.UnitID {
		return nil, errors.New(errors.CodeForbidden, "batch lookup outside home unit")
	}

	batch, err := s.repo.FindByKey(ctx, supplyID, lotNumber, unitID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "finding batch")
	}
	if batch == nil {
		return nil, errors.New(errors.CodeNotFound, "batch not found")
	}
	return batch, nil
}

// RegisterEntries processes each entry independently so one bad lot does not
// sink the rest of a delivery note. The outcome reports per-item results and
// the aggregate verdict.
func (s *service) RegisterEntries(ctx context.Context, principal authz.Principal, entries []EntryInput) (*RegisterOutcome, error) {
	if err := authz.Allow(principal, authz.OpRegisterEntries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one entry is required")
	}

	outcome := &RegisterOutcome{Items: make([]EntryOutcome, 0, len(entries))}
	for i, entry := range entries {
		batch, err := s.registerEntry(ctx, principal, entry)
		item := EntryOutcome{Index: i, Batch: batch, Err: err}
		if err != nil {
			outcome.Failed++
			s.observe("register_entry", false)
		} else {
			outcome.Succeeded++
			s.observe("register_entry", true)
		}
		outcome.Items = append(outcome.Items, item)
	}

	if combined := outcome.Err(); combined != nil {
		s.logg.Warn(ctx, fmt.Sprintf("entry registration finished with failures: %v", combined))
	}
	return outcome, nil
}

// registerEntry merges into the (supply, lot, unit) batch or creates it, and
// always appends an entry movement with origin = destination = unit.
func (s *service) registerEntry(ctx context.Context, principal authz.Principal, input EntryInput) (*models.Batch, error) {
	if err := s.validateEntry(input); err != nil {
		return nil, err
	}
	if !principal.IsCentral() && input.UnitID != principal.UnitID {
		return nil, errors.New(errors.CodeForbidden, "entry registration outside home unit")
	}

	var result *models.Batch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.SupplyExists(ctx, input.SupplyID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "checking supply")
		}
		if !exists {
			return errors.New(errors.CodeNotFound, "supply not found")
		}

		batch, err := repo.FindByKey(ctx, input.SupplyID, input.LotNumber, input.UnitID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "finding batch")
		}

		if batch == nil {
			batch = &models.Batch{
				ID:         uuid.New(),
				SupplyID:   input.SupplyID,
				LotNumber:  input.LotNumber,
				UnitID:     input.UnitID,
				InitialQty: input.Quantity,
				CurrentQty: input.Quantity,
				ExpiryDate: input.Expiry,
				Status:     enums.BatchStatusActive,
			}
			if err := repo.Create(ctx, batch); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "creating batch")
			}
		} else {
			// The stored expiry is raised only when the incoming one is
			// strictly later.
			var expiry *time.Time
			if input.Expiry.After(batch.ExpiryDate) {
				e := input.Expiry
				expiry = &e
			}
			if err := repo.Merge(ctx, batch.ID, input.Quantity, expiry); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "merging batch")
			}
			batch.CurrentQty += input.Quantity
			if expiry != nil {
				batch.ExpiryDate = *expiry
			}
		}

		unit := input.UnitID
		if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
			BatchID:           batch.ID,
			Type:              enums.MovementTypeEntry,
			Quantity:          input.Quantity,
			ResponsibleID:     principal.UserID,
			OriginUnitID:      unit,
			DestinationUnitID: &unit,
		}); err != nil {
			return err
		}

		s.reconcile(ctx, tx, input.UnitID)
		result = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) validateEntry(input EntryInput) error {
	if input.SupplyID == uuid.Nil {
		return errors.New(errors.CodeValidation, "supply id is required")
	}
	if input.LotNumber == "" {
		return errors.New(errors.CodeValidation, "lot number is required")
	}
	if input.UnitID == uuid.Nil {
		return errors.New(errors.CodeValidation, "unit id is required")
	}
	if input.Quantity <= 0 {
		return errors.New(errors.CodeValidation, "quantity must be positive")
	}
	if input.Expiry.IsZero() {
		return errors.New(errors.CodeValidation, "expiry date is required")
	}
	return nil
}

// Deduct removes stock from one batch. The sufficiency check and the
// decrement are a single conditional UPDATE so two concurrent callers can
// never both pass the check and overdraw.
func (s *service) Deduct(ctx context.Context, principal authz.Principal, input DeductInput) (*models.Batch, error) {
	if err := authz.Allow(principal, authz.OpDeductBatch); err != nil {
		return nil, err
	}
	if input.BatchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "batch id is required")
	}
	if input.Quantity <= 0 {
		return nil, errors.New(errors.CodeValidation, "quantity must be positive")
	}

	unit := principal.UnitID
	if principal.IsCentral() && input.UnitID != nil {
		unit = *input.UnitID
	}

	var result *models.Batch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		batch, err := repo.FindByID(ctx, input.BatchID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading batch")
		}
		if batch == nil {
			return errors.New(errors.CodeNotFound, "batch not found")
		}

		// A batch held elsewhere is treated as having nothing available to
		// this caller, not as a distinct authorization failure.
		if batch.UnitID != unit {
			return errors.InsufficientStock(errors.StockShortfall{
				BatchID:   &batch.ID,
				SupplyID:  &batch.SupplyID,
				Requested: input.Quantity,
				Available: 0,
			})
		}

		ok, err := repo.DeductConditional(ctx, batch.ID, input.Quantity)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "deducting batch")
		}
		if !ok {
			return errors.InsufficientStock(errors.StockShortfall{
				BatchID:   &batch.ID,
				SupplyID:  &batch.SupplyID,
				Requested: input.Quantity,
				Available: batch.CurrentQty,
			})
		}
		batch.CurrentQty -= input.Quantity

		if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
			BatchID:       batch.ID,
			Type:          enums.MovementTypeExit,
			Quantity:      input.Quantity,
			ResponsibleID: principal.UserID,
			OriginUnitID:  unit,
		}); err != nil {
			return err
		}

		s.reconcile(ctx, tx, unit)
		result = batch
		return nil
	})
	s.observe("deduct", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetStatus is the central-only manual override, independent of the
// reconciler's automatic expiry transitions.
func (s *service) SetStatus(ctx context.Context, principal authz.Principal, batchID uuid.UUID, status enums.BatchStatus) (*models.Batch, error) {
	if err := authz.Allow(principal, authz.OpSetBatchStatus); err != nil {
		return nil, err
	}
	if batchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "batch id is required")
	}
	if !status.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid batch status %q", status))
	}

	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading batch")
	}
	if batch == nil {
		return nil, errors.New(errors.CodeNotFound, "batch not found")
	}

	if err := s.repo.UpdateStatus(ctx, batchID, status); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "updating batch status")
	}
	batch.Status = status
	return batch, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.Batch, error) {
	if err := authz.Allow(principal, authz.OpListBatches); err != nil {
		return nil, err
	}

	unitID := input.UnitID
	if !principal.IsCentral() {
		home := principal.UnitID
		unitID = &home
	}

	batches, err := s.repo.List(ctx, unitID, input.SupplyID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing batches")
	}
	return batches, nil
}

func (s *service) reconcile(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) {
	if err := s.alerts.Reconcile(ctx, tx, unitID); err != nil {
		s.logg.Error(ctx, "alert reconciliation failed", err)
	}
}

func (s *service) observe(operation string, ok bool) {
	if s.metrics == nil {
		return
	}
	if ok {
		s.metrics.IncSuccess(operation)
		return
	}
	s.metrics.IncFailure(operation)
}
