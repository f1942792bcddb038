package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatherbase/server/internal/domain/ids"
	"github.com/gatherbase/server/internal/domain/registrations"
)

func TestRegistrationEndpoint(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "alice", "user")
	eventID := api.seedEvent(t, 10, "meetup", futureDate(), "19:00")

	rec := api.do(t, http.MethodPost, "/api/registrations/"+eventID, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Successfully registered for event", body["message"])

	// The event's counts reflect the new registration.
	recGet := api.do(t, http.MethodGet, "/api/events/"+eventID, "", nil)
	var eventResp struct {
		Event eventBody `json:"event"`
	}
	decode(t, recGet, &eventResp)
	require.Equal(t, 1, eventResp.Event.RegisteredCount)
	require.Equal(t, 9, eventResp.Event.RemainingSpots)
}

func TestRegistrationEndpointDuplicate(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "alice", "user")
	eventID := api.seedEvent(t, 10, "meetup", futureDate(), "19:00")

	rec := api.do(t, http.MethodPost, "/api/registrations/"+eventID, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/registrations/"+eventID, token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Already registered for this event", body["error"])
}

func TestRegistrationEndpointFullCapacity(t *testing.T) {
	api := newTestAPI(t)
	eventID := api.seedEvent(t, 1, "meetup", futureDate(), "19:00")

	_, first := api.seedUser(t, "alice", "user")
	rec := api.do(t, http.MethodPost, "/api/registrations/"+eventID, first, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, second := api.seedUser(t, "bob", "user")
	rec = api.do(t, http.MethodPost, "/api/registrations/"+eventID, second, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Event is at full capacity", body["error"])

	// Cancelling frees the seat.
	rec = api.do(t, http.MethodDelete, "/api/registrations/"+eventID, first, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/registrations/"+eventID, second, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegistrationEndpointEventNotFound(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "alice", "user")

	rec := api.do(t, http.MethodPost, "/api/registrations/01HQZX3Y4K6F7G8H9J0K1M2N3P", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Event not found", body["error"])
}

func TestCancelEndpointNotRegistered(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "alice", "user")
	eventID := api.seedEvent(t, 10, "meetup", futureDate(), "19:00")

	rec := api.do(t, http.MethodDelete, "/api/registrations/"+eventID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Registration not found", body["error"])
}

func TestCancelEndpointPastEvent(t *testing.T) {
	api := newTestAPI(t)
	userID, token := api.seedUser(t, "alice", "user")
	eventID := api.seedEvent(t, 10, "meetup", "2020-01-15", "10:00")

	regID, err := ids.NewULID()
	require.NoError(t, err)
	api.store.regs[regKey(userID, eventID)] = &registrations.Registration{
		ID: regID, UserID: userID, EventID: eventID, RegisteredAt: time.Now(),
	}

	rec := api.do(t, http.MethodDelete, "/api/registrations/"+eventID, token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "Cannot cancel registration for past events", body["error"])
}

func TestMyEventsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "alice", "user")
	first := api.seedEvent(t, 10, "meetup", "2099-04-01", "10:00")
	second := api.seedEvent(t, 10, "workshop", "2099-03-01", "10:00")

	for _, eventID := range []string{first, second} {
		rec := api.do(t, http.MethodPost, "/api/registrations/"+eventID, token, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/registrations/my-events", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []struct {
			eventBody
			RegisteredAt time.Time `json:"registered_at"`
		} `json:"events"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Events, 2)
	require.Equal(t, second, body.Events[0].ID)
	require.False(t, body.Events[0].RegisteredAt.IsZero())
}

func TestEventRegistrationsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", "admin")
	_, userToken := api.seedUser(t, "alice", "user")
	eventID := api.seedEvent(t, 10, "meetup", futureDate(), "19:00")

	rec := api.do(t, http.MethodPost, "/api/registrations/"+eventID, userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/registrations/event/"+eventID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Event         eventBody `json:"event"`
		Registrations []struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"registrations"`
	}
	decode(t, rec, &body)
	require.Equal(t, 1, body.Event.RegisteredCount)
	require.Len(t, body.Registrations, 1)
	require.Equal(t, "alice", body.Registrations[0].Username)

	// Non-admins cannot list registrants.
	rec = api.do(t, http.MethodGet, "/api/registrations/event/"+eventID, userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
