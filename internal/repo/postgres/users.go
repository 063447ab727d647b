package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgForeignKeyViolation = "23503"

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: observerOrNop(obs)}
}

// FindByEmail matches case-insensitively and loads the organized-event
// back-references in the same round trip.
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var (
		u      user.User
		role   string
		status string
	)

	err := r.obs.ObserveDB("users.find_by_email", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT u.id, u.email, u.name, u.role, u.status, u.created_at, u.updated_at,
				COALESCE(array_agg(o.event_id ORDER BY o.event_id) FILTER (WHERE o.event_id IS NOT NULL), '{}')
			FROM users u
			LEFT JOIN user_organized_events o ON o.user_id = u.id
			WHERE lower(u.email) = lower($1)
			GROUP BY u.id`,
			email,
		).Scan(&u.ID, &u.Email, &u.Name, &role, &status, &u.CreatedAt, &u.UpdatedAt, &u.OrganizedEvents)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	u.Status = user.Status(status)
	u.AttendedEvents = []string{}
	return u, nil
}

func (r *UsersRepo) AddOrganizedEvent(ctx context.Context, userID, eventID string) error {
	err := r.obs.ObserveDB("users.add_organized_event", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO user_organized_events (user_id, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, eventID,
		)
		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return user.ErrNotFound
	}
	return err
}

func (r *UsersRepo) RemoveOrganizedEvent(ctx context.Context, userID, eventID string) error {
	var exists bool
	err := r.obs.ObserveDB("users.remove_organized_event", func() error {
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return nil
		}
		_, err := r.pool.Exec(ctx,
			`DELETE FROM user_organized_events WHERE user_id = $1 AND event_id = $2`,
			userID, eventID,
		)
		return err
	})
	if err != nil {
		return err
	}
	if !exists {
		return user.ErrNotFound
	}
	return nil
}

// Put upserts u by id. Back-references are managed separately.
func (r *UsersRepo) Put(ctx context.Context, u user.User) error {
	return r.obs.ObserveDB("users.put", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, email, name, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (id) DO UPDATE SET
				email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role,
				status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
			u.ID, u.Email, u.Name, string(u.Role), string(u.Status), u.UpdatedAt,
		)
		return err
	})
}
