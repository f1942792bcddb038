// Package events implements the event repository service: admin CRUD over
// event records plus derived occupancy counts.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gatherbase/server/internal/domain/ids"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

type CreateParams struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Location    string `json:"location" validate:"required"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
}

// UpdateParams carries a partial update. Nil fields retain prior values.
// Description is the only field where an explicit empty string overwrites;
// for every other field an empty value means "keep".
type UpdateParams struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Capacity    *int    `json:"capacity"`
}

func (s *Service) Create(ctx context.Context, params CreateParams, createdBy string) (*Event, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: all fields are required and capacity must be at least 1", ErrInvalidInput)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	event := &Event{
		ID:          id,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Date:        params.Date,
		Time:        params.Time,
		Location:    params.Location,
		Capacity:    params.Capacity,
	}
	if createdBy != "" {
		event.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	event.RegisteredCount = 0
	event.RemainingSpots = event.Capacity

	s.logger.Info().Str("event_id", event.ID).Str("title", event.Title).Msg("event created")
	return event, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, category string) ([]Event, error) {
	return s.repo.List(ctx, category)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		applyUpdate(event, params)
		if err := validateEvent(event); err != nil {
			return err
		}

		if params.Capacity != nil && *params.Capacity > 0 {
			count, err := repo.CountRegistrations(ctx, id)
			if err != nil {
				return fmt.Errorf("count registrations: %w", err)
			}
			if event.Capacity < count {
				return ErrCapacityBelowRegistered
			}
		}

		return repo.Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", id).Msg("event updated")
	return s.repo.Get(ctx, id)
}

// Delete removes the event and all of its registrations in one atomic unit,
// so a partial failure cannot leave orphaned registrations.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ids.ValidateULID(id); err != nil {
		return ErrNotFound
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if _, err := repo.DeleteRegistrations(ctx, id); err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

func applyUpdate(event *Event, params UpdateParams) {
	if params.Title != nil && *params.Title != "" {
		event.Title = *params.Title
	}
	if params.Description != nil {
		event.Description = *params.Description
	}
	if params.Category != nil && *params.Category != "" {
		event.Category = *params.Category
	}
	if params.Date != nil && *params.Date != "" {
		event.Date = *params.Date
	}
	if params.Time != nil && *params.Time != "" {
		event.Time = *params.Time
	}
	if params.Location != nil && *params.Location != "" {
		event.Location = *params.Location
	}
	if params.Capacity != nil && *params.Capacity > 0 {
		event.Capacity = *params.Capacity
	}
}

func validateEvent(event *Event) error {
	if event.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidInput)
	}
	if _, err := time.Parse(dateLayout, event.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if _, err := time.Parse(timeLayout, event.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	}
	return nil
}
