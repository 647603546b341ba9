package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/security"
)

const tempPasswordLength = 16

// Service manages operator accounts. Account administration is central-only;
// roles decide everything else, so handing them out is itself the most
// sensitive operation in the system.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.User, string, error)
	Update(ctx context.Context, principal authz.Principal, userID uuid.UUID, input UpdateInput) (*models.User, error)
	Get(ctx context.Context, principal authz.Principal, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context, principal authz.Principal, unitID *uuid.UUID) ([]models.User, error)
}

// CreateInput describes a new operator. When Password is empty a temporary one
// is generated and returned alongside the account, to be delivered out of band.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     enums.UserRole
	UnitID   uuid.UUID
}

// UpdateInput carries the mutable fields. Nil pointers leave the current value
// in place.
type UpdateInput struct {
	Name   *string
	Role   *enums.UserRole
	UnitID *uuid.UUID
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
}

// NewService wires the user administration service.
func NewService(repo Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.User, string, error) {
	if !principal.IsCentral() {
		return nil, "", errors.New(errors.CodeForbidden, "only the central warehouse administers accounts")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", errors.New(errors.CodeValidation, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", errors.New(errors.CodeValidation, "a valid email is required")
	}
	if !input.Role.IsValid() {
		return nil, "", errors.New(errors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	exists, err := s.repo.UnitExists(ctx, input.UnitID)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "checking unit")
	}
	if !exists {
		return nil, "", errors.New(errors.CodeNotFound, "unit not found")
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "checking email")
	} else if existing != nil {
		return nil, "", errors.New(errors.CodeConflict, "email is already registered")
	}

	password := input.Password
	generated := ""
	if password == "" {
		password, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, "", errors.Wrap(errors.CodeInternal, err, "generating password")
		}
		generated = password
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		UnitID:       input.UnitID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "creating user")
	}
	return user, generated, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, userID uuid.UUID, input UpdateInput) (*models.User, error) {
	if !principal.IsCentral() {
		return nil, errors.New(errors.CodeForbidden, "only the central warehouse administers accounts")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil {
		return nil, errors.New(errors.CodeNotFound, "user not found")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, errors.New(errors.CodeValidation, "name must not be empty")
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid role %q", *input.Role))
		}
		user.Role = *input.Role
	}
	if input.UnitID != nil {
		exists, err := s.repo.UnitExists(ctx, *input.UnitID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "checking unit")
		}
		if !exists {
			return nil, errors.New(errors.CodeNotFound, "unit not found")
		}
		user.UnitID = *input.UnitID
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "saving user")
	}
	return user, nil
}

// Get returns one account. Non-central principals may only read themselves.
func (s *service) Get(ctx context.Context, principal authz.Principal, userID uuid.UUID) (*models.User, error) {
	if !principal.IsCentral() && principal.UserID != userID {
		return nil, errors.New(errors.CodeForbidden, "cannot read another user's account")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil {
		return nil, errors.New(errors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, unitID *uuid.UUID) ([]models.User, error) {
	if !principal.IsCentral() {
		home := principal.UnitID
		unitID = &home
	}

	users, err := s.repo.List(ctx, unitID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing users")
	}
	return users, nil
}
