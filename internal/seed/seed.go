package seed

import (
	"context"
	"fmt"

	"infohub/internal/address"
	"infohub/internal/domain"
)

type CentroidWriter interface {
	Upsert(ctx context.Context, c domain.Centroid) (*domain.Centroid, error)
}

// Apply copies the built-in city centroids into the catalog so operators can list and adjust them.
// It is idempotent via upsert.
func Apply(ctx context.Context, repo CentroidWriter) (int, error) {
	count := 0
	for _, c := range address.StaticCentroids() {
		if _, err := repo.Upsert(ctx, c); err != nil {
			return count, fmt.Errorf("upsert centroid %s-%s: %w", c.City, c.State, err)
		}
		count++
	}
	return count, nil
}
