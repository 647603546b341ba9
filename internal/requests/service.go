package requests

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

// Service handles supply requests from creation to decision. Approval is the
// only path that consumes stock; it allocates batches soonest expiry first and
// aborts whole when the source unit cannot cover the full quantity.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.SupplyRequest, error)
	Approve(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error)
	Reject(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error)
	Get(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error)
	List(ctx context.Context, principal authz.Principal, status *enums.RequestStatus) ([]models.SupplyRequest, error)
}

// CreateInput describes a new supply request. The requesting unit is always
// the principal's home unit.
type CreateInput struct {
	SupplyID uuid.UUID
	Quantity int
	Kind     enums.RequestKind
}

type service struct {
	tx          txRunner
	repo        Repository
	batches     inventory.Repository
	movements   movements.Service
	alerts      Reconciler
	centralUnit uuid.UUID
	logg        *logger.Logger
	metrics     *metrics.StockMetrics
	now         func() time.Time
}

// NewService wires the supply request service. centralUnit identifies the
// warehouse that fulfills central-kind requests.
func NewService(tx txRunner, repo Repository, batches inventory.Repository, movementSvc movements.Service, reconciler Reconciler, centralUnit uuid.UUID, logg *logger.Logger, stockMetrics *metrics.StockMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("request repository required")
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
	if centralUnit == uuid.Nil {
		return nil, fmt.Errorf("central unit id required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		batches:     batches,
		movements:   movementSvc,
		alerts:      reconciler,
		centralUnit: centralUnit,
		logg:        logg,
		metrics:     stockMetrics,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.SupplyRequest, error) {
	if err := authz.Allow(principal, authz.OpCreateRequest); err != nil {
		return nil, err
	}
	if !input.Kind.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid request kind %q", input.Kind))
	}
	if input.Quantity <= 0 {
		return nil, errors.New(errors.CodeValidation, "quantity must be positive")
	}
	if input.Kind == enums.RequestKindCentral && principal.UnitID == s.centralUnit {
		return nil, errors.New(errors.CodeValidation, "central warehouse cannot request from itself")
	}

	exists, err := s.batches.SupplyExists(ctx, input.SupplyID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking supply")
	}
	if !exists {
		return nil, errors.New(errors.CodeNotFound, "supply not found")
	}

	request := &models.SupplyRequest{
		ID:          uuid.New(),
		SupplyID:    input.SupplyID,
		Quantity:    input.Quantity,
		Kind:        input.Kind,
		RequesterID: principal.UserID,
		UnitID:      principal.UnitID,
		Status:      enums.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating request")
	}
	return request, nil
}

// Approve fulfills a pending request. Local requests draw from the requesting
// unit's own stock; central requests draw from the central warehouse and land
// at the requester as a merged or new batch, mirroring a completed delivery.
// Allocation walks unexpired active batches soonest expiry first and aborts
// without partial fulfillment when coverage falls short.
func (s *service) Approve(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error) {
	if err := authz.Allow(principal, authz.OpDecideRequest); err != nil {
		return nil, err
	}

	var result *models.SupplyRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batches := s.batches.WithTx(tx)

		request, err := s.loadPending(ctx, repo, requestID)
		if err != nil {
			return err
		}

		sourceUnit := request.UnitID
		if request.Kind == enums.RequestKindCentral {
			sourceUnit = s.centralUnit
		}
		if err := s.checkDeciderScope(principal, sourceUnit); err != nil {
			return err
		}

		candidates, err := batches.ListForAllocation(ctx, request.SupplyID, sourceUnit, s.now())
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "listing allocatable batches")
		}

		available := 0
		for _, batch := range candidates {
			available += batch.CurrentQty
		}
		if available < request.Quantity {
			supplyID := request.SupplyID
			return errors.InsufficientStock(errors.StockShortfall{
				SupplyID:  &supplyID,
				Requested: request.Quantity,
				Available: available,
			})
		}

		remaining := request.Quantity
		for _, batch := range candidates {
			if remaining == 0 {
				break
			}
			take := remaining
			if batch.CurrentQty < take {
				take = batch.CurrentQty
			}

			ok, err := batches.DeductConditional(ctx, batch.ID, take)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "deducting allocation")
			}
			if !ok {
				batchID := batch.ID
				supplyID := batch.SupplyID
				return errors.InsufficientStock(errors.StockShortfall{
					BatchID:   &batchID,
					SupplyID:  &supplyID,
					Requested: take,
					Available: batch.CurrentQty,
				})
			}

			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				BatchID:       batch.ID,
				Type:          enums.MovementTypeExit,
				Quantity:      take,
				ResponsibleID: principal.UserID,
				OriginUnitID:  sourceUnit,
			}); err != nil {
				return err
			}

			if request.Kind == enums.RequestKindCentral {
				if err := s.deliverToRequester(ctx, tx, batches, principal, request, batch, take); err != nil {
					return err
				}
			}
			remaining -= take
		}

		decidedAt := s.now()
		request.Status = enums.RequestStatusApproved
		request.DecidedBy = &principal.UserID
		request.DecidedAt = &decidedAt
		if err := repo.Save(ctx, request); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving request")
		}

		s.reconcile(ctx, tx, sourceUnit)
		if request.Kind == enums.RequestKindCentral {
			s.reconcile(ctx, tx, request.UnitID)
		}
		result = request
		return nil
	})
	s.observe("request_approve", err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deliverToRequester lands a consumed central batch at the requesting unit,
// merging into an existing batch of the same supply and lot when one exists.
func (s *service) deliverToRequester(ctx context.Context, tx *gorm.DB, batches inventory.Repository, principal authz.Principal, request *models.SupplyRequest, origin models.Batch, quantity int) error {
	destination, err := batches.FindByKey(ctx, origin.SupplyID, origin.LotNumber, request.UnitID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading destination batch")
	}
	if destination == nil {
		destination = &models.Batch{
			ID:         uuid.New(),
			SupplyID:   origin.SupplyID,
			LotNumber:  origin.LotNumber,
			UnitID:     request.UnitID,
			InitialQty: quantity,
			CurrentQty: quantity,
			ExpiryDate: origin.ExpiryDate,
			Status:     enums.BatchStatusActive,
		}
		if err := batches.Create(ctx, destination); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating destination batch")
		}
	} else {
		if err := batches.Merge(ctx, destination.ID, quantity, nil); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "merging destination batch")
		}
	}

	destinationUnit := request.UnitID
	for _, movementType := range []enums.MovementType{enums.MovementTypeEntry, enums.MovementTypeTransfer} {
		if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
			BatchID:           destination.ID,
			Type:              movementType,
			Quantity:          quantity,
			ResponsibleID:     principal.UserID,
			OriginUnitID:      s.centralUnit,
			DestinationUnitID: &destinationUnit,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Reject(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error) {
	if err := authz.Allow(principal, authz.OpDecideRequest); err != nil {
		return nil, err
	}

	request, err := s.loadPending(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}

	sourceUnit := request.UnitID
	if request.Kind == enums.RequestKindCentral {
		sourceUnit = s.centralUnit
	}
	if err := s.checkDeciderScope(principal, sourceUnit); err != nil {
		return nil, err
	}

	decidedAt := s.now()
	request.Status = enums.RequestStatusRejected
	request.DecidedBy = &principal.UserID
	request.DecidedAt = &decidedAt
	if err := s.repo.Save(ctx, request); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "saving request")
	}
	s.observe("request_reject", true)
	return request, nil
}

func (s *service) Get(ctx context.Context, principal authz.Principal, requestID uuid.UUID) (*models.SupplyRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading request")
	}
	if request == nil {
		return nil, errors.New(errors.CodeNotFound, "request not found")
	}
	if !principal.IsCentral() && request.UnitID != principal.UnitID {
		return nil, errors.New(errors.CodeForbidden, "request does not involve the caller's unit")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, status *enums.RequestStatus) ([]models.SupplyRequest, error) {
	var unitID *uuid.UUID
	if !principal.IsCentral() {
		home := principal.UnitID
		unitID = &home
	}

	requests, err := s.repo.List(ctx, unitID, status)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing requests")
	}
	return requests, nil
}

func (s *service) loadPending(ctx context.Context, repo Repository, requestID uuid.UUID) (*models.SupplyRequest, error) {
	request, err := repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading request")
	}
	if request == nil {
		return nil, errors.New(errors.CodeNotFound, "request not found")
	}
	if request.Status != enums.RequestStatusPending {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("request is %s, only pending requests can be decided", request.Status))
	}
	return request, nil
}

// checkDeciderScope verifies the decider controls the fulfilling unit: central
// actors decide anything, local warehouse actors decide only requests drawn
// from their own unit.
func (s *service) checkDeciderScope(principal authz.Principal, sourceUnit uuid.UUID) error {
	if principal.IsCentral() {
		return nil
	}
	if principal.UnitID != sourceUnit {
		return errors.New(errors.CodeForbidden, "request is not fulfilled from the caller's unit")
	}
	return nil
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
