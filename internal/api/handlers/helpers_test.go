package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gatherbase/server/internal/api/middleware"
	"github.com/gatherbase/server/internal/auth"
	"github.com/gatherbase/server/internal/domain/events"
	"github.com/gatherbase/server/internal/domain/ids"
	"github.com/gatherbase/server/internal/domain/registrations"
	"github.com/gatherbase/server/internal/domain/users"
)

// memStore is a single in-memory backing store shared by the three
// repository fakes, so a registration inserted through the ledger is
// visible to the events repository and vice versa.
type memStore struct {
	users  map[string]*users.User
	events map[string]*events.Event
	regs   map[string]*registrations.Registration // userID+"/"+eventID
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*users.User),
		events: make(map[string]*events.Event),
		regs:   make(map[string]*registrations.Registration),
	}
}

func regKey(userID, eventID string) string {
	return userID + "/" + eventID
}

func (s *memStore) countFor(eventID string) int {
	count := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			count++
		}
	}
	return count
}

type memUsersRepo struct{ store *memStore }

func (r *memUsersRepo) Create(ctx context.Context, user *users.User) error {
	for _, existing := range r.store.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return users.ErrDuplicateIdentity
		}
	}
	copied := *user
	copied.CreatedAt = time.Now()
	r.store.users[user.ID] = &copied
	user.CreatedAt = copied.CreatedAt
	return nil
}

func (r *memUsersRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUsersRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *memUsersRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*users.User, error) {
	for _, user := range r.store.users {
		if user.Username == username || user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrNotFound
}

type memEventsRepo struct{ store *memStore }

func (r *memEventsRepo) Create(ctx context.Context, event *events.Event) error {
	copied := *event
	copied.CreatedAt = time.Now()
	r.store.events[event.ID] = &copied
	event.CreatedAt = copied.CreatedAt
	return nil
}

func (r *memEventsRepo) Get(ctx context.Context, id string) (*events.Event, error) {
	event, ok := r.store.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *event
	copied.RegisteredCount = r.store.countFor(id)
	copied.RemainingSpots = copied.Capacity - copied.RegisteredCount
	return &copied, nil
}

func (r *memEventsRepo) List(ctx context.Context, category string) ([]events.Event, error) {
	list := make([]events.Event, 0)
	for id, event := range r.store.events {
		if category != "" && event.Category != category {
			continue
		}
		copied := *event
		copied.RegisteredCount = r.store.countFor(id)
		copied.RemainingSpots = copied.Capacity - copied.RegisteredCount
		list = append(list, copied)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].Time < list[j].Time
	})
	return list, nil
}

func (r *memEventsRepo) GetForUpdate(ctx context.Context, id string) (*events.Event, error) {
	event, ok := r.store.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *memEventsRepo) Update(ctx context.Context, event *events.Event) error {
	if _, ok := r.store.events[event.ID]; !ok {
		return events.ErrNotFound
	}
	copied := *event
	r.store.events[event.ID] = &copied
	return nil
}

func (r *memEventsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.store.events, id)
	return nil
}

func (r *memEventsRepo) DeleteRegistrations(ctx context.Context, eventID string) (int64, error) {
	var deleted int64
	for key, reg := range r.store.regs {
		if reg.EventID == eventID {
			delete(r.store.regs, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memEventsRepo) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return r.store.countFor(eventID), nil
}

func (r *memEventsRepo) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return fn(ctx, r)
}

type memLedgerRepo struct{ store *memStore }

func (r *memLedgerRepo) EventForUpdate(ctx context.Context, eventID string) (*events.Event, error) {
	return r.Event(ctx, eventID)
}

func (r *memLedgerRepo) Event(ctx context.Context, eventID string) (*events.Event, error) {
	event, ok := r.store.events[eventID]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *memLedgerRepo) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	_, ok := r.store.regs[regKey(userID, eventID)]
	return ok, nil
}

func (r *memLedgerRepo) Count(ctx context.Context, eventID string) (int, error) {
	return r.store.countFor(eventID), nil
}

func (r *memLedgerRepo) Insert(ctx context.Context, registration *registrations.Registration) error {
	key := regKey(registration.UserID, registration.EventID)
	if _, ok := r.store.regs[key]; ok {
		return registrations.ErrAlreadyRegistered
	}
	copied := *registration
	r.store.regs[key] = &copied
	return nil
}

func (r *memLedgerRepo) Get(ctx context.Context, userID, eventID string) (*registrations.Registration, error) {
	reg, ok := r.store.regs[regKey(userID, eventID)]
	if !ok {
		return nil, registrations.ErrNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *memLedgerRepo) Delete(ctx context.Context, userID, eventID string) error {
	key := regKey(userID, eventID)
	if _, ok := r.store.regs[key]; !ok {
		return registrations.ErrNotFound
	}
	delete(r.store.regs, key)
	return nil
}

func (r *memLedgerRepo) ListForUser(ctx context.Context, userID string) ([]registrations.UserEvent, error) {
	list := make([]registrations.UserEvent, 0)
	for _, reg := range r.store.regs {
		if reg.UserID != userID {
			continue
		}
		event, ok := r.store.events[reg.EventID]
		if !ok {
			continue
		}
		item := registrations.UserEvent{Event: *event, RegisteredAt: reg.RegisteredAt}
		item.RegisteredCount = r.store.countFor(reg.EventID)
		item.RemainingSpots = event.Capacity - item.RegisteredCount
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].Time < list[j].Time
	})
	return list, nil
}

func (r *memLedgerRepo) ListForEvent(ctx context.Context, eventID string) ([]registrations.Registrant, error) {
	list := make([]registrations.Registrant, 0)
	for _, reg := range r.store.regs {
		if reg.EventID != eventID {
			continue
		}
		registrant := registrations.Registrant{
			ID:           reg.ID,
			RegisteredAt: reg.RegisteredAt,
			UserID:       reg.UserID,
		}
		if user, ok := r.store.users[reg.UserID]; ok {
			registrant.Username = user.Username
			registrant.Email = user.Email
		}
		list = append(list, registrant)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].RegisteredAt.After(list[j].RegisteredAt)
	})
	return list, nil
}

func (r *memLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, registrations.Repository) error) error {
	return fn(ctx, r)
}

// testAPI wires real services and handlers over the in-memory store and
// exposes them through a mux mirroring the production routes.
type testAPI struct {
	store  *memStore
	tokens *auth.JWTManager
	mux    *http.ServeMux
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := newMemStore()
	tokens := auth.NewJWTManager("handler-test-secret-handler-test", time.Hour, "gatherbase")
	logger := zerolog.Nop()

	usersService := users.NewService(&memUsersRepo{store: store}, logger)
	eventsService := events.NewService(&memEventsRepo{store: store}, logger)
	ledgerService := registrations.NewService(&memLedgerRepo{store: store}, logger)

	authHandler := NewAuthHandler(usersService, tokens)
	eventsHandler := NewEventsHandler(eventsService)
	registrationsHandler := NewRegistrationsHandler(ledgerService)

	authenticate := middleware.Authenticate(tokens)
	admin := func(next http.Handler) http.Handler {
		return authenticate(middleware.RequireAdmin(next))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", authenticate(http.HandlerFunc(authHandler.Me)))
	mux.HandleFunc("GET /api/events", eventsHandler.List)
	mux.Handle("POST /api/events", admin(http.HandlerFunc(eventsHandler.Create)))
	mux.HandleFunc("GET /api/events/category/{category}", eventsHandler.ListByCategory)
	mux.HandleFunc("GET /api/events/{id}", eventsHandler.Get)
	mux.Handle("PUT /api/events/{id}", admin(http.HandlerFunc(eventsHandler.Update)))
	mux.Handle("DELETE /api/events/{id}", admin(http.HandlerFunc(eventsHandler.Delete)))
	mux.Handle("GET /api/registrations/my-events", authenticate(http.HandlerFunc(registrationsHandler.MyEvents)))
	mux.Handle("GET /api/registrations/event/{eventId}", admin(http.HandlerFunc(registrationsHandler.EventRegistrations)))
	mux.Handle("POST /api/registrations/{eventId}", authenticate(http.HandlerFunc(registrationsHandler.Register)))
	mux.Handle("DELETE /api/registrations/{eventId}", authenticate(http.HandlerFunc(registrationsHandler.Cancel)))

	return &testAPI{store: store, tokens: tokens, mux: mux}
}

// seedUser inserts a user directly and returns a token for them.
func (a *testAPI) seedUser(t *testing.T, username, role string) (string, string) {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	email := username + "@example.com"
	a.store.users[id] = &users.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	token, err := a.tokens.Generate(id, username, email, role)
	require.NoError(t, err)
	return id, token
}

func (a *testAPI) seedEvent(t *testing.T, capacity int, category, date, timeOfDay string) string {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	a.store.events[id] = &events.Event{
		ID:        id,
		Title:     "Event " + id[:6],
		Category:  category,
		Date:      date,
		Time:      timeOfDay,
		Location:  "Main Hall",
		Capacity:  capacity,
		CreatedAt: time.Now(),
	}
	return id
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) rawRequest(t *testing.T, method, path string, body io.Reader) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}

func futureDate() string {
	return time.Now().AddDate(1, 0, 0).Format("2006-01-02")
}
