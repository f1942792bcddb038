package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/gatherbase/server/internal/domain/events"
)

var (
	// ErrNotFound is returned when no active registration exists for the
	// (user, event) pair.
	ErrNotFound = errors.New("registration not found")

	ErrAlreadyRegistered = errors.New("already registered for this event")

	ErrCapacityExceeded = errors.New("event is at full capacity")

	// ErrPastEvent is returned when cancelling a registration for an event
	// whose start is strictly before the current instant.
	ErrPastEvent = errors.New("cannot cancel registration for past events")
)

type Registration struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registrant is a registration joined with the user's identity fields, for
// the admin registrant listing.
type Registrant struct {
	ID           string    `json:"id"`
	RegisteredAt time.Time `json:"registered_at"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
}

// UserEvent is an event a user holds a registration for.
type UserEvent struct {
	events.Event
	RegisteredAt time.Time `json:"registered_at"`
}

type Repository interface {
	// EventForUpdate locks the event row for the enclosing transaction,
	// serializing concurrent registrations per event. Returns
	// events.ErrNotFound when the event does not exist.
	EventForUpdate(ctx context.Context, eventID string) (*events.Event, error)
	// Event fetches the event without locking or counts.
	Event(ctx context.Context, eventID string) (*events.Event, error)
	Exists(ctx context.Context, userID, eventID string) (bool, error)
	Count(ctx context.Context, eventID string) (int, error)
	Insert(ctx context.Context, registration *Registration) error
	Get(ctx context.Context, userID, eventID string) (*Registration, error)
	Delete(ctx context.Context, userID, eventID string) error
	// ListForUser returns the user's registered events with counts
	// attached, ordered by (date, time) ascending.
	ListForUser(ctx context.Context, userID string) ([]UserEvent, error)
	// ListForEvent returns registrants ordered by registered_at descending.
	ListForEvent(ctx context.Context, eventID string) ([]Registrant, error)

	// WithTx runs fn against a transaction-scoped repository.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
