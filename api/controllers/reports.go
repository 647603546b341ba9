package controllers

import (
	"net/http"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/reports"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

// ReportStockValuation prices on-hand stock at catalog unit cost.
func ReportStockValuation(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
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

		valuation, err := svc.StockValuation(r.Context(), principal, unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, valuation)
	}
}

// ReportMovementSummary aggregates ledger quantities over a trailing window.
func ReportMovementSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
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
		windowDays, err := validators.ParseQueryInt(r, "window_days", 0, 0, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.MovementSummary(r.Context(), principal, unitID, windowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
