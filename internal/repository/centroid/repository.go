package centroid

import (
	"context"

	"infohub/internal/domain"
)

// Repository persists operator-maintained city centroids.
type Repository interface {
	Lookup(ctx context.Context, city, state string) (*domain.Centroid, error)
	List(ctx context.Context) ([]domain.Centroid, error)
	Upsert(ctx context.Context, c domain.Centroid) (*domain.Centroid, error)
}
