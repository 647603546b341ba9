package supplies

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
)

// Service manages the supply catalog. Reads are open to every role; writes
// require reference-management authority.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Supply, error)
	Update(ctx context.Context, principal authz.Principal, supplyID uuid.UUID, input UpdateInput) (*models.Supply, error)
	Delete(ctx context.Context, principal authz.Principal, supplyID uuid.UUID) error
	Get(ctx context.Context, supplyID uuid.UUID) (*models.Supply, error)
	List(ctx context.Context) ([]models.Supply, error)
}

// CreateInput describes a new catalog entry. MinStock is informational only;
// alerting uses the configured critical threshold.
type CreateInput struct {
	Name            string
	UnitOfMeasure   string
	StorageLocation *string
	MinStock        *int
	UnitCost        decimal.Decimal
}

// UpdateInput carries the mutable fields. Nil pointers leave the current value
// in place.
type UpdateInput struct {
	Name            *string
	UnitOfMeasure   *string
	StorageLocation *string
	MinStock        *int
	UnitCost        *decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires the supply catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supply repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Supply, error) {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.UnitOfMeasure) == "" {
		return nil, errors.New(errors.CodeValidation, "unit of measure is required")
	}
	if input.MinStock != nil && *input.MinStock < 0 {
		return nil, errors.New(errors.CodeValidation, "min stock must not be negative")
	}
	if input.UnitCost.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "unit cost must not be negative")
	}

	supply := &models.Supply{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(input.Name),
		UnitOfMeasure:   strings.TrimSpace(input.UnitOfMeasure),
		StorageLocation: input.StorageLocation,
		MinStock:        input.MinStock,
		UnitCost:        input.UnitCost,
	}
	if err := s.repo.Create(ctx, supply); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating supply")
	}
	return supply, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, supplyID uuid.UUID, input UpdateInput) (*models.Supply, error) {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return nil, err
	}

	supply, err := s.load(ctx, supplyID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, errors.New(errors.CodeValidation, "name must not be empty")
		}
		supply.Name = strings.TrimSpace(*input.Name)
	}
	if input.UnitOfMeasure != nil {
		if strings.TrimSpace(*input.UnitOfMeasure) == "" {
			return nil, errors.New(errors.CodeValidation, "unit of measure must not be empty")
		}
		supply.UnitOfMeasure = strings.TrimSpace(*input.UnitOfMeasure)
	}
	if input.StorageLocation != nil {
		supply.StorageLocation = input.StorageLocation
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, errors.New(errors.CodeValidation, "min stock must not be negative")
		}
		supply.MinStock = input.MinStock
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return nil, errors.New(errors.CodeValidation, "unit cost must not be negative")
		}
		supply.UnitCost = *input.UnitCost
	}

	if err := s.repo.Save(ctx, supply); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "saving supply")
	}
	return supply, nil
}

// Delete removes a catalog entry that no batch has ever referenced. Once stock
// exists the entry is permanent; the movement ledger depends on it.
func (s *service) Delete(ctx context.Context, principal authz.Principal, supplyID uuid.UUID) error {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return err
	}

	if _, err := s.load(ctx, supplyID); err != nil {
		return err
	}

	referenced, err := s.repo.HasBatches(ctx, supplyID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "checking batches")
	}
	if referenced {
		return errors.New(errors.CodeStateConflict, "supply has batches and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, supplyID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting supply")
	}
	return nil
}

func (s *service) Get(ctx context.Context, supplyID uuid.UUID) (*models.Supply, error) {
	return s.load(ctx, supplyID)
}

func (s *service) List(ctx context.Context) ([]models.Supply, error) {
	supplies, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing supplies")
	}
	return supplies, nil
}

func (s *service) load(ctx context.Context, supplyID uuid.UUID) (*models.Supply, error) {
	supply, err := s.repo.FindByID(ctx, supplyID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading supply")
	}
	if supply == nil {
		return nil, errors.New(errors.CodeNotFound, "supply not found")
	}
	return supply, nil
}
