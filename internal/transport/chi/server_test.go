package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/halong-cloud/tourvex/internal/domain"
	"github.com/halong-cloud/tourvex/internal/domain/collection"
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
	healthuc "github.com/halong-cloud/tourvex/internal/usecase/health"
	searchuc "github.com/halong-cloud/tourvex/internal/usecase/search"
	statsuc "github.com/halong-cloud/tourvex/internal/usecase/stats"
)

type mockRecords struct {
	inserted  [][]domplace.Place
	insertErr error
	place     domplace.Place
	getErr    error
	queried   []domplace.Place
}

func (m *mockRecords) Insert(_ context.Context, batch []domplace.Place) ([]int64, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserted = append(m.inserted, batch)
	ids := make([]int64, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID
	}
	return ids, nil
}

func (m *mockRecords) GetByID(context.Context, int64) (domplace.Place, error) {
	if m.getErr != nil {
		return domplace.Place{}, m.getErr
	}
	return m.place, nil
}

func (m *mockRecords) QueryByType(context.Context, string, int) ([]domplace.Place, error) {
	return m.queried, nil
}

func (m *mockRecords) QueryByLocation(context.Context, string, int) ([]domplace.Place, error) {
	return m.queried, nil
}

// mockSearchRepo serves canned hits per vector field.
type mockSearchRepo struct {
	hits map[string][]result.Scored
}

func (m *mockSearchRepo) SearchVector(
	_ context.Context, vectorField string, _ []float32, _ int, _ string,
) ([]result.Scored, error) {
	return m.hits[vectorField], nil
}

type mockCounter struct {
	n   int
	err error
}

func (m *mockCounter) Count(context.Context) (int, error) { return m.n, m.err }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

type serverFixture struct {
	records *mockRecords
	srepo   *mockSearchRepo
	pinger  *mockPinger
	handler http.Handler
}

func newFixture(schema collection.Schema) *serverFixture {
	f := &serverFixture{
		records: &mockRecords{},
		srepo:   &mockSearchRepo{hits: map[string][]result.Scored{}},
		pinger:  &mockPinger{},
	}
	srv := NewServer(
		f.records,
		searchuc.New(f.srepo, schema, nil),
		statsuc.New(&mockCounter{n: 3}, schema),
		healthuc.New(f.pinger, nil),
		zap.NewNop(),
	)
	f.handler = srv.Routes()
	return f
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestInsertPlaces(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/places", insertRequest{
			Places: []placeRequest{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
		}
		resp := decodeBody[insertResponse](t, rr)
		if resp.Inserted != 2 || len(resp.IDs) != 2 {
			t.Errorf("response %+v", resp)
		}
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/places", insertRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})

	t.Run("validation error names record and field", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.records.insertErr = domain.NewValidationError(2, collection.FieldDescriptionVector, "dimension 0, want 768")

		rr := doJSON(t, f.handler, "POST", "/api/v1/places", insertRequest{
			Places: []placeRequest{{ID: 1}, {ID: 2}},
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
		body := decodeBody[map[string]any](t, rr)
		if body["code"] != string(codeValidationFailed) {
			t.Errorf("code %v", body["code"])
		}
		if body["record_id"] != float64(2) || body["field"] != collection.FieldDescriptionVector {
			t.Errorf("violation detail %v", body)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		req := httptest.NewRequest("POST", "/api/v1/places", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})
}

func TestGetPlace(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.records.place = domplace.Place{
			ID:   7,
			Name: "Sun World",
			Type: domplace.TypeDestination,
			ImageURLs: []string{
				"https://img.example/cable-car.jpg",
				"https://img.example/park.jpg",
			},
		}

		rr := doJSON(t, f.handler, "GET", "/api/v1/places/7", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rr.Code)
		}
		resp := decodeBody[placeResponse](t, rr)
		if resp.ID != 7 || resp.Name != "Sun World" {
			t.Errorf("response %+v", resp)
		}
		if resp.PrimaryImage != "https://img.example/cable-car.jpg" {
			t.Errorf("primary_image = %q", resp.PrimaryImage)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.records.getErr = domain.ErrNotFound

		rr := doJSON(t, f.handler, "GET", "/api/v1/places/42", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rr.Code)
		}
		resp := decodeBody[errorResponse](t, rr)
		if resp.Code != codeNotFound {
			t.Errorf("code %s, want %s", resp.Code, codeNotFound)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "GET", "/api/v1/places/abc", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})
}

func TestListPlaces(t *testing.T) {
	t.Run("by type", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.records.queried = []domplace.Place{{ID: 1, Type: "tour"}}

		rr := doJSON(t, f.handler, "GET", "/api/v1/places?type=tour", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rr.Code)
		}
		resp := decodeBody[placeListResponse](t, rr)
		if resp.Total != 1 || resp.Items[0].ID != 1 {
			t.Errorf("response %+v", resp)
		}
	})

	t.Run("both filters rejected", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "GET", "/api/v1/places?type=tour&location=x", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})

	t.Run("no filter rejected", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "GET", "/api/v1/places", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})
}

func TestSearchDescription(t *testing.T) {
	t.Run("by vector", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.srepo.hits[collection.FieldDescriptionVector] = []result.Scored{
			result.NewScored(domplace.Place{ID: 1}, 0.25),
		}

		rr := doJSON(t, f.handler, "POST", "/api/v1/search/description",
			descriptionSearchRequest{Vector: []float32{1, 2, 3}})
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rr.Code, rr.Body.String())
		}
		resp := decodeBody[scoredListResponse](t, rr)
		if resp.Total != 1 || resp.Items[0].ID != 1 {
			t.Fatalf("response %+v", resp)
		}
		if math.Abs(resp.Items[0].Score-0.8) > 1e-9 {
			t.Errorf("score %g, want 0.8", resp.Items[0].Score)
		}
	})

	t.Run("query without embedder", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/search/description",
			descriptionSearchRequest{Query: "beach"})
		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("status %d, want 501", rr.Code)
		}
	})

	t.Run("vector and query both given", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/search/description",
			descriptionSearchRequest{Vector: []float32{1}, Query: "beach"})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})

	t.Run("neither given", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/search/description",
			descriptionSearchRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})
}

func TestSearchImage_UnifiedVariant(t *testing.T) {
	f := newFixture(collection.Unified())
	rr := doJSON(t, f.handler, "POST", "/api/v1/search/image",
		imageSearchRequest{Vector: []float32{1, 2}})
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status %d, want 501", rr.Code)
	}
	resp := decodeBody[errorResponse](t, rr)
	if resp.Code != codeNotImplemented {
		t.Errorf("code %s, want %s", resp.Code, codeNotImplemented)
	}
}

func TestSearchHybrid(t *testing.T) {
	t.Run("default weights", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.srepo.hits[collection.FieldDescriptionVector] = []result.Scored{
			{Place: domplace.Place{ID: 1}, Score: 0.9},
		}
		f.srepo.hits[collection.FieldImageVector] = []result.Scored{
			{Place: domplace.Place{ID: 2}, Score: 0.8},
		}

		rr := doJSON(t, f.handler, "POST", "/api/v1/search/hybrid", hybridSearchRequest{
			TextVector:  []float32{1},
			ImageVector: []float32{2},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rr.Code, rr.Body.String())
		}
		resp := decodeBody[fusedListResponse](t, rr)
		if resp.Total != 2 {
			t.Fatalf("response %+v", resp)
		}
		// text 0.9*0.7 = 0.63 outranks image 0.8*0.3 = 0.24
		if resp.Items[0].ID != 1 || math.Abs(resp.Items[0].CombinedScore-0.63) > 1e-9 {
			t.Errorf("first item %+v", resp.Items[0])
		}
	})

	t.Run("negative weight", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		w := -0.5
		rr := doJSON(t, f.handler, "POST", "/api/v1/search/hybrid", hybridSearchRequest{
			TextVector: []float32{1},
			TextWeight: &w,
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
		resp := decodeBody[errorResponse](t, rr)
		if resp.Code != codeInvalidWeight {
			t.Errorf("code %s, want %s", resp.Code, codeInvalidWeight)
		}
	})

	t.Run("no vectors", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "POST", "/api/v1/search/hybrid", hybridSearchRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rr.Code)
		}
	})
}

func TestGetStats(t *testing.T) {
	f := newFixture(collection.Multimodal())
	rr := doJSON(t, f.handler, "GET", "/api/v1/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rr.Code)
	}
	resp := decodeBody[statsResponse](t, rr)
	if resp.Collection != "tourism_places" || resp.EntityCount != 3 {
		t.Errorf("response %+v", resp)
	}
	if resp.VectorDims["description_vector"] != 768 || resp.VectorDims["image_vector"] != 512 {
		t.Errorf("vector dims %v", resp.VectorDims)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		rr := doJSON(t, f.handler, "GET", "/health", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rr.Code)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		f := newFixture(collection.Multimodal())
		f.pinger.err = errors.New("connection refused")
		rr := doJSON(t, f.handler, "GET", "/health", nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status %d, want 503", rr.Code)
		}
		resp := decodeBody[healthResponse](t, rr)
		if resp.Status != "degraded" || resp.Checks["database"] != "error" {
			t.Errorf("response %+v", resp)
		}
	})
}

func TestStoreUnreachableAnswers503(t *testing.T) {
	f := newFixture(collection.Multimodal())
	connErr := fmt.Errorf("get record 1: %w", domain.ErrConnection)

	t.Run("get place", func(t *testing.T) {
		f.records.getErr = connErr
		rr := doJSON(t, f.handler, http.MethodGet, "/api/v1/places/1", nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rr.Code)
		}
		body := decodeBody[errorResponse](t, rr)
		if body.Code != codeConnectionError {
			t.Errorf("code = %q, want %q", body.Code, codeConnectionError)
		}
	})

	t.Run("insert", func(t *testing.T) {
		f.records.insertErr = fmt.Errorf("insert 1 records into tourism_places: %w", domain.ErrConnection)
		rr := doJSON(t, f.handler, http.MethodPost, "/api/v1/places", insertRequest{
			Places: []placeRequest{{ID: 1, Type: "tour", Description: "x"}},
		})
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rr.Code)
		}
		body := decodeBody[errorResponse](t, rr)
		if body.Code != codeConnectionError {
			t.Errorf("code = %q, want %q", body.Code, codeConnectionError)
		}
	})
}
