package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/requests"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	pkgerrors "github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type createRequestRequest struct {
	SupplyID uuid.UUID `json:"supply_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
	Kind     string    `json:"kind" validate:"required,oneof=local central"`
}

// RequestCreate raises a supply request for the caller's unit.
func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body createRequestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseRequestKind(body.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}

		request, err := svc.Create(r.Context(), principal, requests.CreateInput{
			SupplyID: body.SupplyID,
			Quantity: body.Quantity,
			Kind:     kind,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toRequestResponse(request))
	}
}

// RequestApprove fulfills a pending request from the appropriate stock.
func RequestApprove(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return requestDecision(svc, logg, func(r *http.Request, svc requests.Service, principal authz.Principal, id uuid.UUID) (any, error) {
		request, err := svc.Approve(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toRequestResponse(request), nil
	})
}

// RequestReject declines a pending request without touching stock.
func RequestReject(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return requestDecision(svc, logg, func(r *http.Request, svc requests.Service, principal authz.Principal, id uuid.UUID) (any, error) {
		request, err := svc.Reject(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toRequestResponse(request), nil
	})
}

// RequestGet returns one request visible to the caller.
func RequestGet(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return requestDecision(svc, logg, func(r *http.Request, svc requests.Service, principal authz.Principal, id uuid.UUID) (any, error) {
		request, err := svc.Get(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toRequestResponse(request), nil
	})
}

// RequestsList returns requests scoped to the caller, optionally by status.
func RequestsList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var status *enums.RequestStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.RequestStatus(raw)
			if !parsed.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			status = &parsed
		}

		listed, err := svc.List(r.Context(), principal, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponses(listed))
	}
}

type requestHandler func(r *http.Request, svc requests.Service, principal authz.Principal, id uuid.UUID) (any, error)

func requestDecision(svc requests.Service, logg *logger.Logger, handle requestHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		requestID, err := validators.ParsePathUUID(chi.URLParam(r, "requestID"), "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := handle(r, svc, principal, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
