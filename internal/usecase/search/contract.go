package search

import (
	"context"

	"github.com/halong-cloud/tourvex/internal/domain/search/result"
)

// Repository defines the storage contract for single-modality searches.
type Repository interface {
	SearchVector(
		ctx context.Context, vectorField string,
		vec []float32, k int, filter string,
	) ([]result.Scored, error)
}

// Embedder vectorizes query text into a description embedding. Optional: a
// deployment without an embedding provider only accepts raw query vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
