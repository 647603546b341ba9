package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/inventory"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	pkgerrors "github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type entryItemRequest struct {
	SupplyID  uuid.UUID `json:"supply_id" validate:"required"`
	LotNumber string    `json:"lot_number" validate:"required"`
	UnitID    uuid.UUID `json:"unit_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	Expiry    time.Time `json:"expiry" validate:"required"`
}

type registerEntriesRequest struct {
	Items []entryItemRequest `json:"items" validate:"required,min=1,dive"`
}

type entryOutcomeResponse struct {
	Index int            `json:"index"`
	Batch *BatchResponse `json:"batch,omitempty"`
	Error string         `json:"error,omitempty"`
}

type registerEntriesResponse struct {
	Items     []entryOutcomeResponse `json:"items"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}

// InventoryRegisterEntries accepts a batch of lot arrivals. Items succeed and
// fail independently; the response reports each one.
func InventoryRegisterEntries(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body registerEntriesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]inventory.EntryInput, 0, len(body.Items))
		for _, item := range body.Items {
			entries = append(entries, inventory.EntryInput{
				SupplyID:  item.SupplyID,
				LotNumber: item.LotNumber,
				UnitID:    item.UnitID,
				Quantity:  item.Quantity,
				Expiry:    item.Expiry,
			})
		}

		outcome, err := svc.RegisterEntries(r.Context(), principal, entries)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := registerEntriesResponse{
			Items:     make([]entryOutcomeResponse, 0, len(outcome.Items)),
			Succeeded: outcome.Succeeded,
			Failed:    outcome.Failed,
		}
		for _, item := range outcome.Items {
			entry := entryOutcomeResponse{Index: item.Index}
			if item.Batch != nil {
				batch := toBatchResponse(item.Batch)
				entry.Batch = &batch
			}
			if item.Err != nil {
				entry.Error = item.Err.Error()
			}
			payload.Items = append(payload.Items, entry)
		}

		status := http.StatusCreated
		if outcome.Failed > 0 {
			status = http.StatusMultiStatus
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}

type deductRequest struct {
	Quantity int        `json:"quantity" validate:"required,gt=0"`
	UnitID   *uuid.UUID `json:"unit_id,omitempty"`
}

// BatchDeduct removes consumed stock from one batch.
func BatchDeduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		batchID, err := validators.ParsePathUUID(chi.URLParam(r, "batchID"), "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.Deduct(r.Context(), principal, inventory.DeductInput{
			BatchID:  batchID,
			Quantity: body.Quantity,
			UnitID:   body.UnitID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBatchResponse(batch))
	}
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BatchSetStatus lets the central warehouse override a batch's status.
func BatchSetStatus(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		batchID, err := validators.ParsePathUUID(chi.URLParam(r, "batchID"), "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseBatchStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		batch, err := svc.SetStatus(r.Context(), principal, batchID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBatchResponse(batch))
	}
}

// BatchesList returns batches visible to the caller, soonest expiry first.
func BatchesList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		supplyID, err := validators.ParseQueryUUID(r, "supply_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batches, err := svc.List(r.Context(), principal, inventory.ListInput{
			UnitID:   unitID,
			SupplyID: supplyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBatchResponses(batches))
	}
}
