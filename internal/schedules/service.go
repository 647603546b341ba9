package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/inventory"
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

// Service drives the delivery state machine: pending → in_transit →
// completed, with cancelled reachable from pending or in_transit. Pending
// schedules are plans, not commitments: stock moves only at dispatch.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Schedule, error)
	Dispatch(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error)
	Complete(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error)
	Receive(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error)
	Cancel(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error)
	Get(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error)
	List(ctx context.Context, principal authz.Principal) ([]models.Schedule, error)
}

// ItemInput fixes one batch quantity on a new schedule.
type ItemInput struct {
	BatchID  uuid.UUID
	Quantity int
}

// CreateInput describes a new delivery plan.
type CreateInput struct {
	OriginUnitID      uuid.UUID
	DestinationUnitID uuid.UUID
	ScheduledFor      time.Time
	Note              *string
	Items             []ItemInput
}

type service struct {
	tx        txRunner
	repo      Repository
	batches   inventory.Repository
	movements movements.Service
	alerts    Reconciler
	logg      *logger.Logger
	metrics   *metrics.StockMetrics
	now       func() time.Time
}

// NewService wires the scheduling service.
func NewService(tx txRunner, repo Repository, batches inventory.Repository, movementSvc movements.Service, reconciler Reconciler, logg *logger.Logger, stockMetrics *metrics.StockMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("schedule repository required")
	}
	if batches == nil {
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
		batches:   batches,
		movements: movementSvc,
		alerts:    reconciler,
		logg:      logg,
		metrics:   stockMetrics,
		now:       time.Now,
	}, nil
}

// Create validates every item's batch has sufficient quantity at origin right
// now, without reserving anything, and persists the plan as pending.
func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Schedule, error) {
	if err := authz.Allow(principal, authz.OpCreateSchedule); err != nil {
		return nil, err
	}
	if input.OriginUnitID == uuid.Nil || input.DestinationUnitID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "origin and destination units are required")
	}
	if input.OriginUnitID == input.DestinationUnitID {
		return nil, errors.New(errors.CodeValidation, "origin and destination must differ")
	}
	if input.ScheduledFor.IsZero() {
		return nil, errors.New(errors.CodeValidation, "scheduled date is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one item is required")
	}

	schedule := &models.Schedule{
		ID:                uuid.New(),
		OriginUnitID:      input.OriginUnitID,
		DestinationUnitID: input.DestinationUnitID,
		ScheduledFor:      input.ScheduledFor,
		Note:              input.Note,
		ResponsibleID:     principal.UserID,
		Status:            enums.ScheduleStatusPending,
	}

	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		batch, err := s.batches.FindByID(ctx, item.BatchID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "loading batch")
		}
		if batch == nil {
			return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("item %d: batch not found", i))
		}
		if batch.UnitID != input.OriginUnitID {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("item %d: batch is not held at the origin unit", i))
		}
		if batch.CurrentQty < item.Quantity {
			return nil, errors.InsufficientStock(errors.StockShortfall{
				BatchID:   &batch.ID,
				SupplyID:  &batch.SupplyID,
				Requested: item.Quantity,
				Available: batch.CurrentQty,
			})
		}
		schedule.Items = append(schedule.Items, models.ScheduleItem{
			ID:         uuid.New(),
			ScheduleID: schedule.ID,
			BatchID:    item.BatchID,
			Quantity:   item.Quantity,
			Position:   i,
		})
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating schedule")
	}
	return schedule, nil
}

// Dispatch moves pending → in_transit. Every item is re-validated and
// deducted inside one transaction: a shortfall on any item rolls the whole
// transition back, never leaving earlier items half-deducted.
func (s *service) Dispatch(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error) {
	if err := authz.Allow(principal, authz.OpDispatchSchedule); err != nil {
		return nil, err
	}

	var result *models.Schedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batches := s.batches.WithTx(tx)

		schedule, err := s.loadForTransition(ctx, repo, scheduleID, enums.ScheduleStatusPending)
		if err != nil {
			return err
		}

		for _, item := range schedule.Items {
			ok, err := batches.DeductConditional(ctx, item.BatchID, item.Quantity)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "deducting schedule item")
			}
			if !ok {
				batch, loadErr := batches.FindByID(ctx, item.BatchID)
				available := 0
				supplyID := uuid.Nil
				if loadErr == nil && batch != nil {
					available = batch.CurrentQty
					supplyID = batch.SupplyID
				}
				batchID := item.BatchID
				return errors.InsufficientStock(errors.StockShortfall{
					BatchID:   &batchID,
					SupplyID:  &supplyID,
					Requested: item.Quantity,
					Available: available,
				})
			}

			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				BatchID:       item.BatchID,
				Type:          enums.MovementTypeExit,
				Quantity:      item.Quantity,
				ResponsibleID: principal.UserID,
				OriginUnitID:  schedule.OriginUnitID,
			}); err != nil {
				return err
			}
		}

		dispatchedAt := s.now()
		schedule.Status = enums.ScheduleStatusInTransit
		schedule.DispatchedAt = &dispatchedAt
		if err := repo.Save(ctx, schedule); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving schedule")
		}

		s.reconcile(ctx, tx, schedule.OriginUnitID)
		result = schedule
		return nil
	})
	s.observe("schedule_dispatch", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete is the central actor's conclusion path.
func (s *service) Complete(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error) {
	if err := authz.Allow(principal, authz.OpCompleteSchedule); err != nil {
		return nil, err
	}
	return s.conclude(ctx, principal, scheduleID, "schedule_complete")
}

// Receive is the destination actor's only conclusion path. A non-central
// principal must belong to the destination unit.
func (s *service) Receive(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error) {
	if err := authz.Allow(principal, authz.OpReceiveSchedule); err != nil {
		return nil, err
	}

	if !principal.IsCentral() {
		schedule, err := s.repo.FindByID(ctx, scheduleID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "loading schedule")
		}
		if schedule == nil {
			return nil, errors.New(errors.CodeNotFound, "schedule not found")
		}
		if schedule.DestinationUnitID != principal.UnitID {
			return nil, errors.New(errors.CodeForbidden, "only the destination unit may receive this delivery")
		}
	}

	return s.conclude(ctx, principal, scheduleID, "schedule_receive")
}

// conclude applies the destination-side stock actions shared by Complete and
// Receive: merge or create the destination batch, then record one entry and
// one transfer movement per item. The two rows serve different visibility
// audiences.
func (s *service) conclude(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID, metricName string) (*models.Schedule, error) {
	var result *models.Schedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batches := s.batches.WithTx(tx)

		schedule, err := s.loadForTransition(ctx, repo, scheduleID, enums.ScheduleStatusInTransit)
		if err != nil {
			return err
		}

		for _, item := range schedule.Items {
			origin, err := batches.FindByID(ctx, item.BatchID)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "loading origin batch")
			}
			if origin == nil {
				return errors.New(errors.CodeNotFound, "origin batch not found")
			}

			destination, err := batches.FindByKey(ctx, origin.SupplyID, origin.LotNumber, schedule.DestinationUnitID)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "loading destination batch")
			}
			if destination == nil {
				destination = &models.Batch{
					ID:         uuid.New(),
					SupplyID:   origin.SupplyID,
					LotNumber:  origin.LotNumber,
					UnitID:     schedule.DestinationUnitID,
					InitialQty: item.Quantity,
					CurrentQty: item.Quantity,
					ExpiryDate: origin.ExpiryDate,
					Status:     enums.BatchStatusActive,
				}
				if err := batches.Create(ctx, destination); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "creating destination batch")
				}
			} else {
				if err := batches.Merge(ctx, destination.ID, item.Quantity, nil); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "merging destination batch")
				}
			}

			destinationUnit := schedule.DestinationUnitID
			for _, movementType := range []enums.MovementType{enums.MovementTypeEntry, enums.MovementTypeTransfer} {
				if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
					BatchID:           destination.ID,
					Type:              movementType,
					Quantity:          item.Quantity,
					ResponsibleID:     principal.UserID,
					OriginUnitID:      schedule.OriginUnitID,
					DestinationUnitID: &destinationUnit,
				}); err != nil {
					return err
				}
			}
		}

		completedAt := s.now()
		schedule.Status = enums.ScheduleStatusCompleted
		schedule.CompletedAt = &completedAt
		if err := repo.Save(ctx, schedule); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving schedule")
		}

		s.reconcile(ctx, tx, schedule.OriginUnitID)
		s.reconcile(ctx, tx, schedule.DestinationUnitID)
		result = schedule
		return nil
	})
	s.observe(metricName, err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel retires a schedule. From in_transit the earlier deduction is
// reversed with one reversal movement per item; from pending nothing was ever
// moved, so no stock action or movement occurs.
func (s *service) Cancel(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error) {
	if err := authz.Allow(principal, authz.OpCancelSchedule); err != nil {
		return nil, err
	}

	var result *models.Schedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batches := s.batches.WithTx(tx)

		schedule, err := repo.FindByID(ctx, scheduleID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading schedule")
		}
		if schedule == nil {
			return errors.New(errors.CodeNotFound, "schedule not found")
		}
		if !principal.IsCentral() &&
			schedule.OriginUnitID != principal.UnitID &&
			schedule.DestinationUnitID != principal.UnitID {
			return errors.New(errors.CodeForbidden, "schedule does not involve the caller's unit")
		}
		if schedule.Status.IsTerminal() {
			return errors.New(errors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s schedule", schedule.Status))
		}

		restoreStock := schedule.Status == enums.ScheduleStatusInTransit
		if restoreStock {
			for _, item := range schedule.Items {
				if err := batches.Merge(ctx, item.BatchID, item.Quantity, nil); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "restoring origin batch")
				}
				if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
					BatchID:       item.BatchID,
					Type:          enums.MovementTypeReversal,
					Quantity:      item.Quantity,
					ResponsibleID: principal.UserID,
					OriginUnitID:  schedule.OriginUnitID,
				}); err != nil {
					return err
				}
			}
		}

		cancelledAt := s.now()
		schedule.Status = enums.ScheduleStatusCancelled
		schedule.CancelledAt = &cancelledAt
		if err := repo.Save(ctx, schedule); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving schedule")
		}

		if restoreStock {
			s.reconcile(ctx, tx, schedule.OriginUnitID)
		}
		result = schedule
		return nil
	})
	s.observe("schedule_cancel", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, principal authz.Principal, scheduleID uuid.UUID) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading schedule")
	}
	if schedule == nil {
		return nil, errors.New(errors.CodeNotFound, "schedule not found")
	}
	if !principal.IsCentral() &&
		schedule.OriginUnitID != principal.UnitID &&
		schedule.DestinationUnitID != principal.UnitID {
		return nil, errors.New(errors.CodeForbidden, "schedule does not involve the caller's unit")
	}
	return schedule, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal) ([]models.Schedule, error) {
	var unitID *uuid.UUID
	if !principal.IsCentral() {
		home := principal.UnitID
		unitID = &home
	}

	schedules, err := s.repo.List(ctx, unitID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing schedules")
	}
	return schedules, nil
}

func (s *service) loadForTransition(ctx context.Context, repo Repository, scheduleID uuid.UUID, expected enums.ScheduleStatus) (*models.Schedule, error) {
	schedule, err := repo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading schedule")
	}
	if schedule == nil {
		return nil, errors.New(errors.CodeNotFound, "schedule not found")
	}
	if schedule.Status != expected {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("schedule is %s, expected %s", schedule.Status, expected))
	}
	return schedule, nil
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
