package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/units"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type createUnitRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty"`
}

type updateUnitRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty"`
}

// UnitCreate registers a new hospital unit.
func UnitCreate(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body createUnitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.Create(r.Context(), principal, units.CreateInput{
			Name:    body.Name,
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toUnitResponse(unit))
	}
}

// UnitUpdate patches the mutable fields of a unit.
func UnitUpdate(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		unitID, err := validators.ParsePathUUID(chi.URLParam(r, "unitID"), "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateUnitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.Update(r.Context(), principal, unitID, units.UpdateInput{
			Name:    body.Name,
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUnitResponse(unit))
	}
}

// UnitDelete removes a unit with no users and no stock.
func UnitDelete(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		unitID, err := validators.ParsePathUUID(chi.URLParam(r, "unitID"), "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, unitID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UnitGet returns one unit.
func UnitGet(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePrincipal(w, r, logg); !ok {
			return
		}

		unitID, err := validators.ParsePathUUID(chi.URLParam(r, "unitID"), "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.Get(r.Context(), unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUnitResponse(unit))
	}
}

// UnitsList returns every unit.
func UnitsList(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePrincipal(w, r, logg); !ok {
			return
		}

		listed, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUnitResponses(listed))
	}
}
