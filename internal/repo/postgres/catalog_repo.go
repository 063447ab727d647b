package postgres

import (
	"context"

	"github.com/geocoder89/eventmanager/internal/domain/catalog"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewCatalogRepo(pool *pgxpool.Pool, obs DBObserver) *CatalogRepo {
	return &CatalogRepo{pool: pool, obs: observerOrNop(obs)}
}

// CategoryExists reports whether an active category has this code.
func (r *CatalogRepo) CategoryExists(ctx context.Context, code string) (bool, error) {
	return r.activeExists(ctx, "catalog.category_exists",
		`SELECT EXISTS (SELECT 1 FROM categories WHERE code = $1 AND active)`, code)
}

func (r *CatalogRepo) LocationExists(ctx context.Context, code string) (bool, error) {
	return r.activeExists(ctx, "catalog.location_exists",
		`SELECT EXISTS (SELECT 1 FROM locations WHERE code = $1 AND active)`, code)
}

func (r *CatalogRepo) activeExists(ctx context.Context, op, query, code string) (bool, error) {
	var ok bool
	err := r.obs.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, query, code).Scan(&ok)
	})
	return ok, err
}

// PutCategory upserts c by code.
func (r *CatalogRepo) PutCategory(ctx context.Context, c catalog.Category) error {
	return r.obs.ObserveDB("catalog.put_category", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO categories (id, code, name, description, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description,
				active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
			c.ID, c.Code, c.Name, c.Description, c.Active, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})
}

// PutLocation upserts l by code.
func (r *CatalogRepo) PutLocation(ctx context.Context, l catalog.Location) error {
	return r.obs.ObserveDB("catalog.put_location", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO locations (id, code, name, address, city, country, capacity, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city,
				country = EXCLUDED.country, capacity = EXCLUDED.capacity,
				active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
			l.ID, l.Code, l.Name, l.Address, l.City, l.Country, l.Capacity, l.Active, l.CreatedAt, l.UpdatedAt,
		)
		return err
	})
}
