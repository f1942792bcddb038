package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gatherbase/server/internal/domain/events"
)

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &EventRepository{pool: r.pool, tx: tx})
	})
}

func (r *EventRepository) Create(ctx context.Context, event *events.Event) error {
	const query = `
INSERT INTO events (id, title, description, category, date, time, location, capacity, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
RETURNING created_at`

	err := r.queryer().QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Date,
		event.Time,
		event.Location,
		event.Capacity,
		event.CreatedBy,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	query := `
SELECT ` + eventColumns + `,
       (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id) AS registered_count
  FROM events e
 WHERE e.id = $1`

	var event events.Event
	err := r.queryer().QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Category,
		&event.Date,
		&event.Time,
		&event.Location,
		&event.Capacity,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.RegisteredCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.RemainingSpots = event.Capacity - event.RegisteredCount
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context, category string) ([]events.Event, error) {
	query := `
SELECT ` + eventColumns + `,
       (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id) AS registered_count
  FROM events e`
	args := []any{}
	if category != "" {
		query += ` WHERE e.category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY e.date, e.time`

	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	list := make([]events.Event, 0)
	for rows.Next() {
		var event events.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.Category,
			&event.Date,
			&event.Time,
			&event.Location,
			&event.Capacity,
			&event.CreatedBy,
			&event.CreatedAt,
			&event.RegisteredCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.RemainingSpots = event.Capacity - event.RegisteredCount
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event for update: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *events.Event) error {
	const query = `
UPDATE events
   SET title = $2, description = $3, category = $4, date = $5, time = $6, location = $7, capacity = $8
 WHERE id = $1`

	tag, err := r.queryer().Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Date,
		event.Time,
		event.Location,
		event.Capacity,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) DeleteRegistrations(ctx context.Context, eventID string) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepository) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
