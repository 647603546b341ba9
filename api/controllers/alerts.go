package controllers

import (
	"net/http"
	"strings"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/alerts"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	pkgerrors "github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

// AlertsList returns derived alerts scoped to the caller's visibility.
func AlertsList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
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

		var status *enums.AlertStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.AlertStatus(raw)
			if !parsed.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			status = &parsed
		}

		listed, err := svc.List(r.Context(), principal, alerts.ListInput{
			UnitID: unitID,
			Status: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAlertResponses(listed))
	}
}
