// Package place persists tourism records in the vector store. It owns the
// schema constraints: every batch is validated in full before the first write.
package place

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/halong-cloud/tourvex/internal/db"
	"github.com/halong-cloud/tourvex/internal/domain"
	"github.com/halong-cloud/tourvex/internal/domain/collection"
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
)

// store is the consumer interface for record persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchFilter(ctx context.Context, index, query string, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	Flush(ctx context.Context) error
}

// HNSWConfig tunes the vector index built by EnsureIndex.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo maps Place records to and from the store's flat field representation.
type Repo struct {
	store  store
	schema collection.Schema
	hnsw   HNSWConfig
}

// New creates a record repository for one collection variant.
func New(s store, schema collection.Schema) *Repo {
	return &Repo{store: s, schema: schema}
}

// WithHNSW overrides index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Schema returns the collection variant this repository serves.
func (r *Repo) Schema() collection.Schema { return r.schema }

// EnsureIndex creates the collection index if it does not exist yet
// (create-or-load semantics).
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.indexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", name, storeErr(err))
	}
	if exists {
		return nil
	}

	def := r.indexDefinition()
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", name, storeErr(err))
	}
	return nil
}

// Insert validates the whole batch, writes all records in one pipeline, then
// flushes. No record is written if any record is invalid. Returns the primary
// keys in input order.
func (r *Repo) Insert(ctx context.Context, batch []domplace.Place) ([]int64, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	for i := range batch {
		if err := r.validate(&batch[i]); err != nil {
			return nil, err
		}
	}

	items := make([]db.HashSetItem, len(batch))
	ids := make([]int64, len(batch))
	for i := range batch {
		items[i] = db.HashSetItem{
			Key:    r.recordKey(batch[i].ID),
			Fields: buildHashFields(&batch[i], r.schema),
		}
		ids[i] = batch[i].ID
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return nil, fmt.Errorf("insert %d records into %s: %w", len(batch), r.schema.Name(), storeErr(err))
	}
	if err := r.store.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush %s: %w", r.schema.Name(), storeErr(err))
	}

	return ids, nil
}

// GetByID returns one record, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id int64) (domplace.Place, error) {
	fields, err := r.store.HGetAll(ctx, r.recordKey(id))
	if err != nil {
		return domplace.Place{}, fmt.Errorf("get record %d: %w", id, storeErr(err))
	}
	if len(fields) == 0 {
		return domplace.Place{}, domain.ErrNotFound
	}
	return parseHashFields(fields), nil
}

// QueryByType returns records of one tourism category. No ranking; result
// order is store-defined.
func (r *Repo) QueryByType(ctx context.Context, typ string, limit int) ([]domplace.Place, error) {
	return r.queryByTag(ctx, collection.FieldType, typ, limit)
}

// QueryByLocation returns records at an exact location.
func (r *Repo) QueryByLocation(ctx context.Context, location string, limit int) ([]domplace.Place, error) {
	return r.queryByTag(ctx, collection.FieldLocation, location, limit)
}

func (r *Repo) queryByTag(ctx context.Context, field, value string, limit int) ([]domplace.Place, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("@%s:{%s}", field, escapeTag(value))

	sr, err := r.store.SearchFilter(ctx, r.indexName(), query, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s=%q: %w", r.schema.Name(), field, value, storeErr(err))
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]domplace.Place, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, parseHashFields(entry.Fields))
	}
	return out, nil
}

// SearchVector runs a nearest-neighbor query against one of the schema's
// vector fields and converts raw distances into similarity scores. Filter is
// an opaque predicate string forwarded to the store.
func (r *Repo) SearchVector(
	ctx context.Context, vectorField string, vec []float32, k int, filter string,
) ([]result.Scored, error) {
	vf, ok := r.schema.VectorByName(vectorField)
	if !ok {
		return nil, fmt.Errorf("no vector field %q in %s: %w",
			vectorField, r.schema.Name(), domain.ErrImageSearchNotSupported)
	}
	if len(vec) != vf.Dim {
		return nil, fmt.Errorf("query vector for %s: got %d, want %d: %w",
			vectorField, len(vec), vf.Dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   r.indexName(),
		VectorField: vectorField,
		Vector:      vec,
		K:           k,
		Filter:      filter,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s by %s: %w", r.schema.Name(), vectorField, storeErr(err))
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]result.Scored, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, result.NewScored(parseHashFields(entry.Fields), entry.Distance))
	}
	return out, nil
}

// Count returns the persisted entity count.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.schema.Name(), storeErr(err))
	}
	return n, nil
}

// Drop removes the index and every record of the collection. Administrative.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil {
		return fmt.Errorf("drop index %s: %w", r.indexName(), storeErr(err))
	}

	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", r.schema.Name(), storeErr(err))
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, storeErr(err))
		}
	}

	if err := r.store.Flush(ctx); err != nil {
		return fmt.Errorf("flush after drop %s: %w", r.schema.Name(), storeErr(err))
	}
	return nil
}

// storeErr lifts transport-level store failures into the domain taxonomy so
// the API can answer 503 instead of a generic 500.
func storeErr(err error) error {
	if errors.Is(err, db.ErrUnavailable) {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return err
}

func (r *Repo) keyPrefix() string {
	return domain.KeyPrefix + r.schema.Name() + ":"
}

func (r *Repo) recordKey(id int64) string {
	return r.keyPrefix() + strconv.FormatInt(id, 10)
}

func (r *Repo) indexName() string {
	return domain.KeyPrefix + r.schema.Name() + ":idx"
}

func (r *Repo) indexDefinition() *db.IndexDefinition {
	fields := []db.IndexField{
		{Name: collection.FieldType, Type: db.IndexFieldTag},
		{Name: collection.FieldSubType, Type: db.IndexFieldTag},
		{Name: collection.FieldLocation, Type: db.IndexFieldTag},
		{Name: collection.FieldPriceMin, Type: db.IndexFieldNumeric},
		{Name: collection.FieldPriceMax, Type: db.IndexFieldNumeric},
		{Name: collection.FieldRating, Type: db.IndexFieldNumeric},
		{Name: collection.FieldViewCount, Type: db.IndexFieldNumeric},
	}

	for _, vf := range r.schema.Vectors() {
		fields = append(fields, db.IndexField{
			Name:              vf.Name,
			Type:              db.IndexFieldVector,
			VectorAlgo:        db.VectorHNSW,
			VectorDim:         vf.Dim,
			VectorDistance:    db.DistanceMetric(vf.Metric),
			VectorM:           r.hnsw.M,
			VectorEFConstruct: r.hnsw.EFConstruct,
		})
	}

	return &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix()},
		Fields:   fields,
	}
}
