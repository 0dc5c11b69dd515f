// Package ingest drives the per-category load from crawler output into the
// vector store. A failing category is reported and the run continues: a
// best-effort run over a fatal abort.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/halong-cloud/tourvex/internal/domain/batch"
	"github.com/halong-cloud/tourvex/internal/metrics"
)

// Categories crawled by default, in corpus order.
var Categories = []string{
	"diem-den", "luu-tru", "tour", "nha-hang", "am-thuc", "du-thuyen",
}

// Service runs ingestion over a set of categories.
type Service struct {
	source Source
	repo   Inserter
	logger *zap.Logger
	nextID int64
}

// New creates an ingestion service. IDs are assigned sequentially across the
// whole run, starting at 1, so they stay unique across categories.
func New(source Source, repo Inserter, logger *zap.Logger) *Service {
	return &Service{source: source, repo: repo, logger: logger, nextID: 1}
}

// Run ingests every category in order and returns the per-category report.
// Only context cancellation aborts the run early.
func (s *Service) Run(ctx context.Context, categories []string) (batch.Report, error) {
	var report batch.Report

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("ingestion interrupted: %w", err)
		}

		n, err := s.runCategory(ctx, category)
		if err != nil {
			s.logger.Error("category failed",
				zap.String("category", category),
				zap.Error(err),
			)
			metrics.IngestRecordsTotal.WithLabelValues(category, "error").Inc()
			report.Add(batch.NewError(category, err))
			continue
		}

		s.logger.Info("category ingested",
			zap.String("category", category),
			zap.Int("records", n),
		)
		report.Add(batch.NewOK(category, n))
	}

	return report, nil
}

func (s *Service) runCategory(ctx context.Context, category string) (int, error) {
	items, err := s.source.Fetch(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", category, err)
	}
	if len(items) == 0 {
		s.logger.Warn("no records crawled", zap.String("category", category))
		return 0, nil
	}

	for i := range items {
		items[i].ID = s.nextID
		s.nextID++
	}

	ids, err := s.repo.Insert(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", category, err)
	}

	metrics.IngestRecordsTotal.WithLabelValues(category, "ok").Add(float64(len(ids)))
	return len(ids), nil
}
