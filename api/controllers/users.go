package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/users"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type createUserRequest struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password,omitempty"`
	Role     string    `json:"role" validate:"required"`
	UnitID   uuid.UUID `json:"unit_id" validate:"required"`
}

type updateUserRequest struct {
	Name   *string    `json:"name,omitempty"`
	Role   *string    `json:"role,omitempty"`
	UnitID *uuid.UUID `json:"unit_id,omitempty"`
}

type createdUserResponse struct {
	User UserResponse `json:"user"`
	// TempPassword is set only when the account was created without a
	// password; it is shown once and never stored in clear.
	TempPassword string `json:"temp_password,omitempty"`
}

// UserCreate registers an operator account. Central-only.
func UserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body createUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, tempPassword, err := svc.Create(r.Context(), principal, users.CreateInput{
			Name:     body.Name,
			Email:    body.Email,
			Password: body.Password,
			Role:     enums.UserRole(body.Role),
			UnitID:   body.UnitID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createdUserResponse{
			User:         toUserResponse(user),
			TempPassword: tempPassword,
		})
	}
}

// UserUpdate patches an operator account. Central-only.
func UserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		userID, err := validators.ParsePathUUID(chi.URLParam(r, "userID"), "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var role *enums.UserRole
		if body.Role != nil {
			parsed := enums.UserRole(*body.Role)
			role = &parsed
		}

		user, err := svc.Update(r.Context(), principal, userID, users.UpdateInput{
			Name:   body.Name,
			Role:   role,
			UnitID: body.UnitID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(user))
	}
}

// UserGet returns one account. Non-central callers may only read themselves.
func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		userID, err := validators.ParsePathUUID(chi.URLParam(r, "userID"), "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Get(r.Context(), principal, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(user))
	}
}

// UsersList returns accounts, pinned to the caller's unit unless central.
func UsersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		unitID, err := validators.ParseQueryUUID(r, "unit_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed, err := svc.List(r.Context(), principal, unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponses(listed))
	}
}
