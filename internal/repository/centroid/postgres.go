package centroid

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"infohub/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Lookup(ctx context.Context, city, state string) (*domain.Centroid, error) {
	const q = `
SELECT city, state, latitude, longitude, created_at
FROM city_centroids
WHERE lower(city) = lower($1) AND state = $2
`
	var c domain.Centroid
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(city), strings.ToUpper(strings.TrimSpace(state))).
		Scan(&c.City, &c.State, &c.Latitude, &c.Longitude, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("centroid repo: lookup city=%s state=%s error=%v", city, state, err)
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Centroid, error) {
	const q = `
SELECT city, state, latitude, longitude, created_at
FROM city_centroids
ORDER BY state ASC, city ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Centroid
	for rows.Next() {
		var c domain.Centroid
		if err := rows.Scan(&c.City, &c.State, &c.Latitude, &c.Longitude, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Printf("centroid repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Centroid) (*domain.Centroid, error) {
	const q = `
INSERT INTO city_centroids (city, state, latitude, longitude)
VALUES ($1, $2, $3, $4)
ON CONFLICT (city, state) DO UPDATE
SET latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude
RETURNING created_at
`
	out := domain.Centroid{
		City:      strings.TrimSpace(c.City),
		State:     strings.ToUpper(strings.TrimSpace(c.State)),
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
	if err := r.pool.QueryRow(ctx, q, out.City, out.State, out.Latitude, out.Longitude).Scan(&out.CreatedAt); err != nil {
		r.logger.Printf("centroid repo: upsert city=%s state=%s error=%v", out.City, out.State, err)
		return nil, err
	}
	return &out, nil
}
