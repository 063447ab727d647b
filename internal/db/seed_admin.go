package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates an ADMIN account for email unless one already
// exists. An empty email is a no-op.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, name string) error {
	if email == "" {
		return nil
	}

	var dummy string
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, email).Scan(&dummy)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT DO NOTHING`,
		uuid.NewString(), email, name, user.RoleAdmin, user.StatusActive, now,
	)
	return err
}
