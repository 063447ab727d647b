package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, category_code, location_code, start_date, end_date,
	max_capacity, current_capacity, price, organizer_id, status, tags, attendees, image_url,
	version, created_at, updated_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewEventsRepo(pool *pgxpool.Pool, obs DBObserver) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		obs:  observerOrNop(obs),
	}
}

func (r *EventsRepo) FindByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event

	err := r.obs.ObserveDB("events.find_by_id", func() error {
		row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
		var err error
		e, err = scanEvent(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return event.Event{}, event.ErrNotFound
	}
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// Save inserts when e.Version is zero and otherwise updates only if the
// stored version still equals e.Version. The returned event carries the new
// version.
func (r *EventsRepo) Save(ctx context.Context, e event.Event) (event.Event, error) {
	if e.Version == 0 {
		return r.insert(ctx, e)
	}

	var affected int64
	err := r.obs.ObserveDB("events.update", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE events SET
				title = $3, description = $4, category_code = $5, location_code = $6,
				start_date = $7, end_date = $8, max_capacity = $9, current_capacity = $10,
				price = $11, organizer_id = $12, status = $13, tags = $14, attendees = $15,
				image_url = $16, updated_at = $17, version = version + 1
			WHERE id = $1 AND version = $2`,
			e.ID, e.Version,
			e.Title, e.Description, e.CategoryCode, e.LocationCode,
			e.StartDate, nullableTime(e.EndDate), e.MaxCapacity, e.CurrentCapacity,
			e.Price, e.OrganizerID, string(e.Status), nonNil(e.Tags), nonNil(e.Attendees),
			e.ImageURL, e.UpdatedAt,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return event.Event{}, err
	}

	if affected == 0 {
		exists, err := r.exists(ctx, e.ID)
		if err != nil {
			return event.Event{}, err
		}
		if !exists {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, event.ErrVersionConflict
	}

	out := e.Clone()
	out.Version++
	return out, nil
}

func (r *EventsRepo) insert(ctx context.Context, e event.Event) (event.Event, error) {
	out := e.Clone()
	out.Version = 1

	var affected int64
	err := r.obs.ObserveDB("events.insert", func() error {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO events (`+eventColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (id) DO NOTHING`,
			out.ID, out.Title, out.Description, out.CategoryCode, out.LocationCode,
			out.StartDate, nullableTime(out.EndDate), out.MaxCapacity, out.CurrentCapacity,
			out.Price, out.OrganizerID, string(out.Status), nonNil(out.Tags), nonNil(out.Attendees),
			out.ImageURL, out.Version, out.CreatedAt, out.UpdatedAt,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return event.Event{}, err
	}
	if affected == 0 {
		return event.Event{}, event.ErrVersionConflict
	}
	return out, nil
}

func (r *EventsRepo) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.obs.ObserveDB("events.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&ok)
	})
	return ok, err
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.obs.ObserveDB("events.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (r *EventsRepo) FindByStatus(ctx context.Context, status event.Status) ([]event.Event, error) {
	return r.List(ctx, event.ListFilter{Status: &status})
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListFilter) ([]event.Event, error) {
	var conds []string
	var args []interface{}
	argsPosition := 1

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*filter.Status))
		argsPosition++
	}
	if filter.CategoryCode != nil {
		conds = append(conds, fmt.Sprintf("category_code = $%d", argsPosition))
		args = append(args, *filter.CategoryCode)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// stable ordering, same as the memory store
	query += " ORDER BY start_date ASC, id ASC"

	var out []event.Event
	err := r.obs.ObserveDB("events.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]event.Event, 0)
		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanEvent(row pgx.Row) (event.Event, error) {
	var (
		e      event.Event
		end    *time.Time
		status string
	)

	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.CategoryCode, &e.LocationCode,
		&e.StartDate, &end, &e.MaxCapacity, &e.CurrentCapacity, &e.Price,
		&e.OrganizerID, &status, &e.Tags, &e.Attendees, &e.ImageURL,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return event.Event{}, err
	}

	if end != nil {
		e.EndDate = *end
	}
	e.Status = event.Status(status)
	e.Tags = nonNil(e.Tags)
	e.Attendees = nonNil(e.Attendees)
	return e, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
