package units

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
)

// Service manages the unit registry.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Unit, error)
	Update(ctx context.Context, principal authz.Principal, unitID uuid.UUID, input UpdateInput) (*models.Unit, error)
	Delete(ctx context.Context, principal authz.Principal, unitID uuid.UUID) error
	Get(ctx context.Context, unitID uuid.UUID) (*models.Unit, error)
	List(ctx context.Context) ([]models.Unit, error)
}

// CreateInput describes a new hospital unit.
type CreateInput struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
}

// UpdateInput carries the mutable fields. Nil pointers leave the current value
// in place.
type UpdateInput struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

type service struct {
	repo Repository
}

// NewService wires the unit registry service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Unit, error) {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}

	unit := &models.Unit{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(input.Name),
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating unit")
	}
	return unit, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, unitID uuid.UUID, input UpdateInput) (*models.Unit, error) {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return nil, err
	}

	unit, err := s.load(ctx, unitID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, errors.New(errors.CodeValidation, "name must not be empty")
		}
		unit.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		unit.Phone = input.Phone
	}
	if input.Email != nil {
		unit.Email = input.Email
	}
	if input.Address != nil {
		unit.Address = input.Address
	}

	if err := s.repo.Save(ctx, unit); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "saving unit")
	}
	return unit, nil
}

// Delete removes a unit that holds no stock and employs no users. Units that
// appear in the movement ledger keep their batch rows, so the batch guard also
// protects ledger integrity.
func (s *service) Delete(ctx context.Context, principal authz.Principal, unitID uuid.UUID) error {
	if err := authz.Allow(principal, authz.OpManageReference); err != nil {
		return err
	}

	if _, err := s.load(ctx, unitID); err != nil {
		return err
	}

	hasUsers, err := s.repo.HasUsers(ctx, unitID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "checking users")
	}
	if hasUsers {
		return errors.New(errors.CodeStateConflict, "unit has users and cannot be deleted")
	}

	hasBatches, err := s.repo.HasBatches(ctx, unitID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "checking batches")
	}
	if hasBatches {
		return errors.New(errors.CodeStateConflict, "unit holds stock and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, unitID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting unit")
	}
	return nil
}

func (s *service) Get(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	return s.load(ctx, unitID)
}

func (s *service) List(ctx context.Context) ([]models.Unit, error) {
	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing units")
	}
	return units, nil
}

func (s *service) load(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, unitID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading unit")
	}
	if unit == nil {
		return nil, errors.New(errors.CodeNotFound, "unit not found")
	}
	return unit, nil
}
