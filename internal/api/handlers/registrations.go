package handlers

import (
	"errors"
	"net/http"

	"github.com/gatherbase/server/internal/api/middleware"
	"github.com/gatherbase/server/internal/api/respond"
	"github.com/gatherbase/server/internal/auth"
	"github.com/gatherbase/server/internal/domain/events"
	"github.com/gatherbase/server/internal/domain/registrations"
	"github.com/gatherbase/server/internal/metrics"
)

type RegistrationsHandler struct {
	Ledger *registrations.Service
}

func NewRegistrationsHandler(ledger *registrations.Service) *RegistrationsHandler {
	return &RegistrationsHandler{Ledger: ledger}
}

func (h *RegistrationsHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, r, http.StatusUnauthorized, "Authentication required", auth.ErrMissingToken)
		return
	}

	list, err := h.Ledger.ListForUser(r.Context(), claims.UserID())
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, r, http.StatusUnauthorized, "Authentication required", auth.ErrMissingToken)
		return
	}

	_, err := h.Ledger.Register(r.Context(), claims.UserID(), r.PathValue("eventId"))
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			metrics.RegistrationAttempts.WithLabelValues(metrics.OutcomeEventNotFound).Inc()
			respond.Error(w, r, http.StatusNotFound, "Event not found", err)
		case errors.Is(err, registrations.ErrAlreadyRegistered):
			metrics.RegistrationAttempts.WithLabelValues(metrics.OutcomeAlreadyRegistered).Inc()
			respond.Error(w, r, http.StatusBadRequest, "Already registered for this event", err)
		case errors.Is(err, registrations.ErrCapacityExceeded):
			metrics.RegistrationAttempts.WithLabelValues(metrics.OutcomeCapacityExceeded).Inc()
			respond.Error(w, r, http.StatusBadRequest, "Event is at full capacity", err)
		default:
			metrics.RegistrationAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			respond.Internal(w, r, err)
		}
		return
	}

	metrics.RegistrationAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Successfully registered for event"})
}

func (h *RegistrationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, r, http.StatusUnauthorized, "Authentication required", auth.ErrMissingToken)
		return
	}

	err := h.Ledger.Cancel(r.Context(), claims.UserID(), r.PathValue("eventId"))
	if err != nil {
		switch {
		case errors.Is(err, registrations.ErrNotFound):
			respond.Error(w, r, http.StatusNotFound, "Registration not found", err)
		case errors.Is(err, registrations.ErrPastEvent):
			respond.Error(w, r, http.StatusBadRequest, "Cannot cancel registration for past events", err)
		default:
			respond.Internal(w, r, err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"message": "Registration cancelled successfully"})
}

func (h *RegistrationsHandler) EventRegistrations(w http.ResponseWriter, r *http.Request) {
	event, registrants, err := h.Ledger.ListForEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, "Event not found", err)
			return
		}
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"event":         event,
		"registrations": registrants,
	})
}
