package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gatherbase/server/internal/domain/events"
	"github.com/gatherbase/server/internal/domain/registrations"
)

func (r *RegistrationRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *RegistrationRepository) WithTx(ctx context.Context, fn func(context.Context, registrations.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &RegistrationRepository{pool: r.pool, tx: tx})
	})
}

// EventForUpdate locks the event row, serializing the check-then-insert
// sequence for concurrent registrations against the same event.
func (r *RegistrationRepository) EventForUpdate(ctx context.Context, eventID string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, eventID)
	return scanLedgerEvent(row)
}

func (r *RegistrationRepository) Event(ctx context.Context, eventID string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, eventID)
	return scanLedgerEvent(row)
}

func scanLedgerEvent(row pgx.Row) (*events.Event, error) {
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *RegistrationRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := r.queryer().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) Count(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) Insert(ctx context.Context, registration *registrations.Registration) error {
	const query = `
INSERT INTO registrations (id, user_id, event_id, registered_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.queryer().Exec(ctx, query,
		registration.ID,
		registration.UserID,
		registration.EventID,
		registration.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return registrations.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) Get(ctx context.Context, userID, eventID string) (*registrations.Registration, error) {
	var registration registrations.Registration
	err := r.queryer().QueryRow(ctx,
		`SELECT id, user_id, event_id, registered_at FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID).Scan(
		&registration.ID,
		&registration.UserID,
		&registration.EventID,
		&registration.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registrations.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &registration, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, userID, eventID string) error {
	tag, err := r.queryer().Exec(ctx,
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepository) ListForUser(ctx context.Context, userID string) ([]registrations.UserEvent, error) {
	query := `
SELECT ` + eventColumns + `, reg.registered_at,
       (SELECT COUNT(*) FROM registrations rc WHERE rc.event_id = e.id) AS registered_count
  FROM registrations reg
  JOIN events e ON reg.event_id = e.id
 WHERE reg.user_id = $1
 ORDER BY e.date, e.time`

	rows, err := r.queryer().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	defer rows.Close()

	list := make([]registrations.UserEvent, 0)
	for rows.Next() {
		var item registrations.UserEvent
		err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Category,
			&item.Date,
			&item.Time,
			&item.Location,
			&item.Capacity,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.RegisteredAt,
			&item.RegisteredCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user event: %w", err)
		}
		item.RemainingSpots = item.Capacity - item.RegisteredCount
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return list, nil
}

func (r *RegistrationRepository) ListForEvent(ctx context.Context, eventID string) ([]registrations.Registrant, error) {
	const query = `
SELECT reg.id, reg.registered_at, u.id, u.username, u.email
  FROM registrations reg
  JOIN users u ON reg.user_id = u.id
 WHERE reg.event_id = $1
 ORDER BY reg.registered_at DESC`

	rows, err := r.queryer().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	defer rows.Close()

	list := make([]registrations.Registrant, 0)
	for rows.Next() {
		var registrant registrations.Registrant
		err := rows.Scan(
			&registrant.ID,
			&registrant.RegisteredAt,
			&registrant.UserID,
			&registrant.Username,
			&registrant.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		list = append(list, registrant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	return list, nil
}
