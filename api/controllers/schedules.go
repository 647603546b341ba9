package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/api/validators"
	"github.com/lucasmoura/vitalstock-backend/internal/schedules"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type scheduleItemRequest struct {
	BatchID  uuid.UUID `json:"batch_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

type createScheduleRequest struct {
	OriginUnitID      uuid.UUID             `json:"origin_unit_id" validate:"required"`
	DestinationUnitID uuid.UUID             `json:"destination_unit_id" validate:"required"`
	ScheduledFor      time.Time             `json:"scheduled_for" validate:"required"`
	Note              *string               `json:"note,omitempty"`
	Items             []scheduleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ScheduleCreate plans a new delivery between two units.
func ScheduleCreate(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body createScheduleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]schedules.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, schedules.ItemInput{BatchID: item.BatchID, Quantity: item.Quantity})
		}

		schedule, err := svc.Create(r.Context(), principal, schedules.CreateInput{
			OriginUnitID:      body.OriginUnitID,
			DestinationUnitID: body.DestinationUnitID,
			ScheduledFor:      body.ScheduledFor,
			Note:              body.Note,
			Items:             items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toScheduleResponse(schedule))
	}
}

type scheduleTransition func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error)

func scheduleAction(svc schedules.Service, logg *logger.Logger, transition scheduleTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		scheduleID, err := validators.ParsePathUUID(chi.URLParam(r, "scheduleID"), "scheduleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := transition(svc, r, principal, scheduleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScheduleDispatch moves a pending schedule into transit, deducting stock.
func ScheduleDispatch(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return scheduleAction(svc, logg, func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error) {
		schedule, err := svc.Dispatch(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toScheduleResponse(schedule), nil
	})
}

// ScheduleComplete concludes an in-transit schedule as the central actor.
func ScheduleComplete(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return scheduleAction(svc, logg, func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error) {
		schedule, err := svc.Complete(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toScheduleResponse(schedule), nil
	})
}

// ScheduleReceive concludes an in-transit schedule at the destination.
func ScheduleReceive(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return scheduleAction(svc, logg, func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error) {
		schedule, err := svc.Receive(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toScheduleResponse(schedule), nil
	})
}

// ScheduleCancel retires a schedule, reversing stock when already in transit.
func ScheduleCancel(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return scheduleAction(svc, logg, func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error) {
		schedule, err := svc.Cancel(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toScheduleResponse(schedule), nil
	})
}

// ScheduleGet returns one schedule visible to the caller.
func ScheduleGet(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return scheduleAction(svc, logg, func(svc schedules.Service, r *http.Request, principal authz.Principal, id uuid.UUID) (any, error) {
		schedule, err := svc.Get(r.Context(), principal, id)
		if err != nil {
			return nil, err
		}
		return toScheduleResponse(schedule), nil
	})
}

// SchedulesList returns the schedules involving the caller's unit.
func SchedulesList(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		listed, err := svc.List(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toScheduleResponses(listed))
	}
}
