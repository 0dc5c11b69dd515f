package ingest

import (
	"context"

	"github.com/halong-cloud/tourvex/internal/domain/place"
)

// Source yields crawled records for one tourism category. The crawler itself
// is an external collaborator; this is its boundary.
type Source interface {
	Fetch(ctx context.Context, category string) ([]place.Place, error)
}

// Inserter persists a validated batch and returns the assigned primary keys.
type Inserter interface {
	Insert(ctx context.Context, batch []place.Place) ([]int64, error)
}
