// Package stats exposes the read-only operational statistics surface.
package stats

import (
	"context"
	"fmt"

	"github.com/halong-cloud/tourvex/internal/domain/collection"
)

// Counter reads the persisted entity count.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Statistics describes one collection for operational visibility.
type Statistics struct {
	Database    string
	Collection  string
	EntityCount int
	VectorDims  map[string]int
}

// Service assembles statistics from the repository and schema.
type Service struct {
	repo   Counter
	schema collection.Schema
}

// New creates a statistics service.
func New(repo Counter, schema collection.Schema) *Service {
	return &Service{repo: repo, schema: schema}
}

// Get returns current statistics.
func (s *Service) Get(ctx context.Context) (Statistics, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("entity count: %w", err)
	}

	dims := make(map[string]int, len(s.schema.Vectors()))
	for _, vf := range s.schema.Vectors() {
		dims[vf.Name] = vf.Dim
	}

	return Statistics{
		Database:    s.schema.Database(),
		Collection:  s.schema.Name(),
		EntityCount: count,
		VectorDims:  dims,
	}, nil
}
