package controllers

import (
	"net/http"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
	"github.com/lucasmoura/vitalstock-backend/pkg/pagination"
)

type movementsPageResponse struct {
	Movements  []MovementResponse `json:"movements"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// MovementsList pages through the ledger rows visible to the caller.
func MovementsList(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		supplyID, err := validators.ParseQueryUUID(r, "supply_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		windowDays, err := validators.ParseQueryInt(r, "window_days", 0, 0, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), principal, movements.ListInput{
			SupplyID:   supplyID,
			WindowDays: windowDays,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, movementsPageResponse{
			Movements:  toMovementResponses(page.Movements),
			NextCursor: page.NextCursor,
		})
	}
}
