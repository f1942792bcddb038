package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("event not found")

	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityBelowRegistered is returned when an update would set
	// capacity below the current number of active registrations, which
	// would leave registered_count > capacity.
	ErrCapacityBelowRegistered = errors.New("capacity cannot be lower than the current number of registrations")
)

// Event is an event record. RegisteredCount and RemainingSpots are derived
// from the registration ledger at read time, never stored.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Location        string    `json:"location"`
	Capacity        int       `json:"capacity"`
	CreatedBy       *string   `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	RegisteredCount int       `json:"registered_count"`
	RemainingSpots  int       `json:"remaining_spots"`
}

// StartsAt parses the event's date and time into a single instant.
func (e *Event) StartsAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Time, time.Local)
}

type Repository interface {
	Create(ctx context.Context, event *Event) error
	// Get returns the event with registered_count and remaining_spots
	// attached.
	Get(ctx context.Context, id string) (*Event, error)
	// List returns events with counts attached, ordered by (date, time)
	// ascending. An empty category means no filter.
	List(ctx context.Context, category string) ([]Event, error)
	// GetForUpdate locks the event row for the duration of the enclosing
	// transaction. Counts are not attached.
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	// Delete removes the event row only; cascading registration deletion
	// is explicit via DeleteRegistrations in the same transaction.
	Delete(ctx context.Context, id string) error
	DeleteRegistrations(ctx context.Context, eventID string) (int64, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)

	// WithTx runs fn against a transaction-scoped repository.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
