// Command tourvex-ingest loads crawler output into the vector store, one
// JSON file per tourism category.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/halong-cloud/tourvex/internal/config"
	dbRedis "github.com/halong-cloud/tourvex/internal/db/redis"
	"github.com/halong-cloud/tourvex/internal/domain/collection"
	"github.com/halong-cloud/tourvex/internal/domain/place"
	logpkg "github.com/halong-cloud/tourvex/internal/logger"
	"github.com/halong-cloud/tourvex/internal/metrics"
	placerepo "github.com/halong-cloud/tourvex/internal/repository/place"
	ingestuc "github.com/halong-cloud/tourvex/internal/usecase/ingest"
	statsuc "github.com/halong-cloud/tourvex/internal/usecase/stats"
	"github.com/halong-cloud/tourvex/internal/version"
)

func main() {
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tourvex ingestion",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("data_dir", cfg.Ingest.DataDir),
		zap.String("collection_variant", cfg.Collection.Variant),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.Register()

	schema, ok := collection.ByVariant(cfg.Collection.Variant)
	if !ok {
		logger.Fatal("Unknown collection variant", zap.String("variant", cfg.Collection.Variant))
	}

	repo := placerepo.New(store, schema).WithHNSW(placerepo.HNSWConfig{
		M:           cfg.Search.HNSWM,
		EFConstruct: cfg.Search.HNSWEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	categories := cfg.Ingest.Categories
	if len(categories) == 0 {
		categories = ingestuc.Categories
	}

	svc := ingestuc.New(newFileSource(cfg.Ingest.DataDir), repo, logger)
	report, err := svc.Run(ctx, categories)
	if err != nil {
		logger.Fatal("Ingestion aborted", zap.Error(err))
	}

	for _, res := range report.Failed() {
		logger.Warn("category skipped",
			zap.String("category", res.Category()),
			zap.Error(res.Err()),
		)
	}
	logger.Info("Ingestion finished",
		zap.Int("categories", len(report.Results())),
		zap.Int("failed", len(report.Failed())),
		zap.Int("total_inserted", report.TotalInserted()),
	)

	st, err := statsuc.New(repo, schema).Get(ctx)
	if err != nil {
		logger.Warn("Failed to read statistics", zap.Error(err))
		return
	}
	logger.Info("Collection statistics",
		zap.String("database", st.Database),
		zap.String("collection", st.Collection),
		zap.Int("entity_count", st.EntityCount),
	)
}

// crawledPlace is the record layout of the crawler dump files.
type crawledPlace struct {
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	SubType           string     `json:"sub_type"`
	Location          string     `json:"location"`
	Address           string     `json:"address"`
	Description       string     `json:"description"`
	PriceRange        string     `json:"price_range"`
	PriceMin          float64    `json:"price_min"`
	PriceMax          float64    `json:"price_max"`
	OpeningHours      string     `json:"opening_hours"`
	ImageURLs         stringList `json:"image_urls"`
	Rating            float64    `json:"rating"`
	ViewCount         int64      `json:"view_count"`
	URL               string     `json:"url"`
	DescriptionVector []float32  `json:"description_vector"`
	ImageVector       []float32  `json:"image_vector"`
}

// stringList tolerates both a JSON array and a JSON-encoded array string;
// older crawler dumps serialized the URL list as a string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		*l = urls
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("image_urls: %w", err)
	}
	if raw == "" {
		*l = nil
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		// Plain URL without JSON framing.
		*l = []string{raw}
		return nil
	}
	*l = urls
	return nil
}

// fileSource reads crawler output from <dir>/<category>.json.
type fileSource struct {
	dir string
}

func newFileSource(dir string) *fileSource {
	return &fileSource{dir: dir}
}

func (f *fileSource) Fetch(_ context.Context, category string) ([]place.Place, error) {
	path := filepath.Join(f.dir, category+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var crawled []crawledPlace
	if err := json.Unmarshal(data, &crawled); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	items := make([]place.Place, len(crawled))
	for i, c := range crawled {
		items[i] = place.Place{
			Name:              c.Name,
			Type:              c.Type,
			SubType:           c.SubType,
			Location:          c.Location,
			Address:           c.Address,
			Description:       c.Description,
			PriceRange:        c.PriceRange,
			PriceMin:          c.PriceMin,
			PriceMax:          c.PriceMax,
			OpeningHours:      c.OpeningHours,
			ImageURLs:         c.ImageURLs,
			Rating:            c.Rating,
			ViewCount:         c.ViewCount,
			URL:               c.URL,
			DescriptionVector: c.DescriptionVector,
			ImageVector:       c.ImageVector,
		}
		if items[i].Type == "" {
			items[i].Type = category
		}
	}
	return items, nil
}
