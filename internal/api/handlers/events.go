package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherbase/server/internal/api/middleware"
	"github.com/gatherbase/server/internal/api/respond"
	"github.com/gatherbase/server/internal/domain/events"
)

type EventsHandler struct {
	Events *events.Service
}

func NewEventsHandler(eventsService *events.Service) *EventsHandler {
	return &EventsHandler{Events: eventsService}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	list, err := h.Events.List(r.Context(), category)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *EventsHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")

	list, err := h.Events.List(r.Context(), category)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, "Event not found", err)
			return
		}
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"event": event})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params events.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	createdBy := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID()
	}

	event, err := h.Events.Create(r.Context(), params, createdBy)
	if err != nil {
		if errors.Is(err, events.ErrInvalidInput) {
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
			return
		}
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Event created successfully",
		"event":   event,
	})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params events.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := h.Events.Update(r.Context(), r.PathValue("id"), params)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			respond.Error(w, r, http.StatusNotFound, "Event not found", err)
		case errors.Is(err, events.ErrCapacityBelowRegistered):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, events.ErrInvalidInput):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Internal(w, r, err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Event updated successfully",
		"event":   event,
	})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Events.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, "Event not found", err)
			return
		}
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"message": "Event deleted successfully"})
}
