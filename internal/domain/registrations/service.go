// Package registrations implements the registration ledger: the
// capacity-enforcing join between users and events.
//
// Register evaluates existence, duplicate, and capacity checks and the
// insert as a single atomic unit per event. The repository's row lock on the
// event serializes concurrent registrations, so at most capacity
// registrations can ever exist simultaneously; the (user, event) unique
// constraint backstops the duplicate check.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherbase/server/internal/domain/events"
	"github.com/gatherbase/server/internal/domain/ids"
)

type Service struct {
	repo   Repository
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("component", "registrations").Logger(),
	}
}

// Register creates a registration for the (user, event) pair, enforcing the
// capacity invariant. Fails with events.ErrNotFound, ErrAlreadyRegistered,
// or ErrCapacityExceeded.
func (s *Service) Register(ctx context.Context, userID, eventID string) (*Registration, error) {
	if err := ids.ValidateULID(eventID); err != nil {
		return nil, events.ErrNotFound
	}

	var registration *Registration
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.EventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		exists, err := repo.Exists(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if exists {
			return ErrAlreadyRegistered
		}

		count, err := repo.Count(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= event.Capacity {
			return ErrCapacityExceeded
		}

		id, err := ids.NewULID()
		if err != nil {
			return fmt.Errorf("mint registration id: %w", err)
		}
		registration = &Registration{
			ID:           id,
			UserID:       userID,
			EventID:      eventID,
			RegisteredAt: s.now().UTC(),
		}
		return repo.Insert(ctx, registration)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_id", eventID).
		Msg("registration created")
	return registration, nil
}

// Cancel deletes the registration for the (user, event) pair. Fails with
// ErrNotFound when no registration exists and ErrPastEvent when the event
// has already started.
func (s *Service) Cancel(ctx context.Context, userID, eventID string) error {
	if err := ids.ValidateULID(eventID); err != nil {
		return ErrNotFound
	}

	if _, err := s.repo.Get(ctx, userID, eventID); err != nil {
		return err
	}

	event, err := s.repo.Event(ctx, eventID)
	if err != nil && !errors.Is(err, events.ErrNotFound) {
		return fmt.Errorf("lookup event: %w", err)
	}
	if event != nil {
		startsAt, err := event.StartsAt()
		if err == nil && startsAt.Before(s.now()) {
			return ErrPastEvent
		}
	}

	if err := s.repo.Delete(ctx, userID, eventID); err != nil {
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_id", eventID).
		Msg("registration cancelled")
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]UserEvent, error) {
	return s.repo.ListForUser(ctx, userID)
}

// ListForEvent returns the event with occupancy counts plus its registrants.
// Fails with events.ErrNotFound when the event is absent.
func (s *Service) ListForEvent(ctx context.Context, eventID string) (*events.Event, []Registrant, error) {
	if err := ids.ValidateULID(eventID); err != nil {
		return nil, nil, events.ErrNotFound
	}

	event, err := s.repo.Event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	registrants, err := s.repo.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list registrants: %w", err)
	}

	event.RegisteredCount = len(registrants)
	event.RemainingSpots = event.Capacity - len(registrants)
	return event, registrants, nil
}
