package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/supplies"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type createSupplyRequest struct {
	Name            string          `json:"name" validate:"required"`
	UnitOfMeasure   string          `json:"unit_of_measure" validate:"required"`
	StorageLocation *string         `json:"storage_location,omitempty"`
	MinStock        *int            `json:"min_stock,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

type updateSupplyRequest struct {
	Name            *string          `json:"name,omitempty"`
	UnitOfMeasure   *string          `json:"unit_of_measure,omitempty"`
	StorageLocation *string          `json:"storage_location,omitempty"`
	MinStock        *int             `json:"min_stock,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
}

// SupplyCreate adds an entry to the supply catalog.
func SupplyCreate(svc supplies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body createSupplyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supply, err := svc.Create(r.Context(), principal, supplies.CreateInput{
			Name:            body.Name,
			UnitOfMeasure:   body.UnitOfMeasure,
			StorageLocation: body.StorageLocation,
			MinStock:        body.MinStock,
			UnitCost:        body.UnitCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toSupplyResponse(supply))
	}
}

// SupplyUpdate patches the mutable fields of a catalog entry.
func SupplyUpdate(svc supplies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		supplyID, err := validators.ParsePathUUID(chi.URLParam(r, "supplyID"), "supplyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSupplyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supply, err := svc.Update(r.Context(), principal, supplyID, supplies.UpdateInput{
			Name:            body.Name,
			UnitOfMeasure:   body.UnitOfMeasure,
			StorageLocation: body.StorageLocation,
			MinStock:        body.MinStock,
			UnitCost:        body.UnitCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSupplyResponse(supply))
	}
}

// SupplyDelete removes a catalog entry no batch references.
func SupplyDelete(svc supplies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		supplyID, err := validators.ParsePathUUID(chi.URLParam(r, "supplyID"), "supplyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, supplyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SupplyGet returns one catalog entry.
func SupplyGet(svc supplies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePrincipal(w, r, logg); !ok {
			return
		}

		supplyID, err := validators.ParsePathUUID(chi.URLParam(r, "supplyID"), "supplyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supply, err := svc.Get(r.Context(), supplyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSupplyResponse(supply))
	}
}

// SuppliesList returns the catalog ordered by name.
func SuppliesList(svc supplies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePrincipal(w, r, logg); !ok {
			return
		}

		listed, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSupplyResponses(listed))
	}
}
