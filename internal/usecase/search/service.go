// Package search runs single-modality nearest-neighbor searches and the
// hybrid fusion over both modalities.
package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/halong-cloud/tourvex/internal/domain"
	"github.com/halong-cloud/tourvex/internal/domain/collection"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
)

// Default fusion weights, matching the corpus the crawler was tuned on.
const (
	DefaultTextWeight  = 0.7
	DefaultImageWeight = 0.3
)

// DefaultOverfetchFactor is the multiple of k requested from each modality
// before fusion. Fusing without over-fetch silently drops candidates that
// rank outside the top k in one modality but belong in the fused top k, so
// the factor must stay >= 1; the optimal value is workload-dependent.
const DefaultOverfetchFactor = 2

// Service issues vector searches against the record repository.
type Service struct {
	repo      Repository
	schema    collection.Schema
	embed     Embedder
	overfetch int
}

// New creates a search service. embed may be nil.
func New(repo Repository, schema collection.Schema, embed Embedder) *Service {
	return &Service{repo: repo, schema: schema, embed: embed, overfetch: DefaultOverfetchFactor}
}

// WithOverfetch overrides the hybrid over-fetch factor.
func (s *Service) WithOverfetch(factor int) *Service {
	if factor >= 1 {
		s.overfetch = factor
	}
	return s
}

// SearchByDescription runs a nearest-neighbor search over the description
// embedding (cosine metric, fixed by the index).
func (s *Service) SearchByDescription(
	ctx context.Context, vec []float32, k int, filter string,
) ([]result.Scored, error) {
	hits, err := s.repo.SearchVector(ctx, collection.FieldDescriptionVector, vec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("description search: %w", err)
	}
	return hits, nil
}

// SearchByQuery embeds the query text and searches by description.
func (s *Service) SearchByQuery(
	ctx context.Context, query string, k int, filter string,
) ([]result.Scored, error) {
	if s.embed == nil {
		return nil, domain.ErrEmbedderNotConfigured
	}
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.SearchByDescription(ctx, vec, k, filter)
}

// SearchByImage runs a nearest-neighbor search over the image embedding
// (L2 metric, fixed by the index). Multimodal collections only.
func (s *Service) SearchByImage(
	ctx context.Context, vec []float32, k int, filter string,
) ([]result.Scored, error) {
	if !s.schema.HasImageVector() {
		return nil, domain.ErrImageSearchNotSupported
	}
	hits, err := s.repo.SearchVector(ctx, collection.FieldImageVector, vec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}
	return hits, nil
}

// HybridOptions parameterizes a hybrid search.
type HybridOptions struct {
	TextWeight  float64
	ImageWeight float64
	TopK        int
	Filter      string
}

// HybridSearch over-fetches both modalities, runs them concurrently, and
// fuses the two rankings. The two searches are independent; fusion is a
// side-effect-free join that waits for both.
func (s *Service) HybridSearch(
	ctx context.Context, textVec, imageVec []float32, opts HybridOptions,
) ([]result.Fused, error) {
	if !s.schema.HasImageVector() {
		return nil, domain.ErrImageSearchNotSupported
	}
	if opts.TextWeight < 0 || opts.ImageWeight < 0 {
		return nil, fmt.Errorf("weights (%g, %g): %w",
			opts.TextWeight, opts.ImageWeight, domain.ErrInvalidWeight)
	}
	if opts.TopK <= 0 {
		return nil, nil
	}

	fetchK := opts.TopK * s.overfetch

	// A missing query vector disables its modality: the other one alone
	// drives the ranking, weighted as usual.
	var textHits, imageHits []result.Scored
	g, gctx := errgroup.WithContext(ctx)
	if len(textVec) > 0 {
		g.Go(func() error {
			hits, err := s.repo.SearchVector(
				gctx, collection.FieldDescriptionVector, textVec, fetchK, opts.Filter,
			)
			if err != nil {
				return fmt.Errorf("description search: %w", err)
			}
			textHits = hits
			return nil
		})
	}
	if len(imageVec) > 0 {
		g.Go(func() error {
			hits, err := s.repo.SearchVector(
				gctx, collection.FieldImageVector, imageVec, fetchK, opts.Filter,
			)
			if err != nil {
				return fmt.Errorf("image search: %w", err)
			}
			imageHits = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Fuse(textHits, imageHits, opts.TextWeight, opts.ImageWeight, opts.TopK)
}
