package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatherbase/server/internal/domain/events"
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// eventColumns is the shared select list for event rows, without counts.
const eventColumns = `e.id, e.title, COALESCE(e.description, ''), e.category, e.date, e.time, e.location, e.capacity, e.created_by, e.created_at`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	err := row.Scan(
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
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
