// Package chi exposes the HTTP API: record ingestion and lookup, the three
// search endpoints, statistics, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/halong-cloud/tourvex/internal/domain"
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
	"github.com/halong-cloud/tourvex/internal/metrics"
	healthuc "github.com/halong-cloud/tourvex/internal/usecase/health"
	searchuc "github.com/halong-cloud/tourvex/internal/usecase/search"
	statsuc "github.com/halong-cloud/tourvex/internal/usecase/stats"
)

const (
	defaultBatchLimit = 500
	defaultTopK       = 5
	defaultListLimit  = 20
	maxListLimit      = 100
)

// errorCode is the machine-readable code in error responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeNotFound          errorCode = "not_found"
	codeInvalidWeight     errorCode = "invalid_weight"
	codeVectorDimMismatch errorCode = "vector_dim_mismatch"
	codeNotImplemented    errorCode = "not_implemented"
	codeConnectionError   errorCode = "connection_error"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// Records is the record store surface the API needs.
type Records interface {
	Insert(ctx context.Context, batch []domplace.Place) ([]int64, error)
	GetByID(ctx context.Context, id int64) (domplace.Place, error)
	QueryByType(ctx context.Context, placeType string, limit int) ([]domplace.Place, error)
	QueryByLocation(ctx context.Context, location string, limit int) ([]domplace.Place, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	records       Records
	search        *searchuc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	batchLimit    int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	records Records,
	search *searchuc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		records:    records,
		search:     search,
		stats:      stats,
		health:     health,
		logger:     logger,
		batchLimit: defaultBatchLimit,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidWeight, http.StatusBadRequest, codeInvalidWeight),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrImageSearchNotSupported, http.StatusNotImplemented, codeNotImplemented),
		sentinelHandler(domain.ErrEmbedderNotConfigured, http.StatusNotImplemented, codeNotImplemented),
		sentinelHandler(domain.ErrConnection, http.StatusServiceUnavailable, codeConnectionError),
	}
	return s
}

// WithBatchLimit overrides the maximum insert batch size.
func (s *Server) WithBatchLimit(limit int) *Server {
	if limit > 0 {
		s.batchLimit = limit
	}
	return s
}

// Routes builds the routing table. Middleware is attached by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/places", s.insertPlaces)
		r.Get("/places", s.listPlaces)
		r.Get("/places/{id}", s.getPlace)
		r.Post("/search/description", s.searchDescription)
		r.Post("/search/image", s.searchImage)
		r.Post("/search/hybrid", s.searchHybrid)
		r.Get("/stats", s.getStats)
	})
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

type insertRequest struct {
	Places []placeRequest `json:"places"`
}

type insertResponse struct {
	Inserted int     `json:"inserted"`
	IDs      []int64 `json:"ids"`
}

// insertPlaces handles POST /api/v1/places. The batch is atomic: one invalid
// record rejects the whole request.
func (s *Server) insertPlaces(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Places) == 0 || len(req.Places) > s.batchLimit {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("places count must be between 1 and %d", s.batchLimit))
		return
	}

	batch := make([]domplace.Place, len(req.Places))
	for i := range req.Places {
		batch[i] = req.Places[i].toDomain()
	}

	ids, err := s.records.Insert(r.Context(), batch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, insertResponse{Inserted: len(ids), IDs: ids})
}

// getPlace handles GET /api/v1/places/{id}.
func (s *Server) getPlace(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "id must be a positive integer")
		return
	}

	p, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, placeToResponse(p))
}

type placeListResponse struct {
	Items []placeResponse `json:"items"`
	Total int             `json:"total"`
}

// listPlaces handles GET /api/v1/places. Exactly one of the type and
// location filters must be given.
func (s *Server) listPlaces(w http.ResponseWriter, r *http.Request) {
	placeType := r.URL.Query().Get("type")
	location := r.URL.Query().Get("location")
	if (placeType == "") == (location == "") {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"exactly one of type and location is required")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, codeBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
			return
		}
		limit = n
	}

	var (
		places []domplace.Place
		err    error
	)
	if placeType != "" {
		places, err = s.records.QueryByType(r.Context(), placeType, limit)
	} else {
		places, err = s.records.QueryByLocation(r.Context(), location, limit)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]placeResponse, len(places))
	for i, p := range places {
		items[i] = placeToResponse(p)
	}
	writeJSON(w, http.StatusOK, placeListResponse{Items: items, Total: len(items)})
}

type descriptionSearchRequest struct {
	Vector []float32 `json:"vector,omitempty"`
	Query  string    `json:"query,omitempty"`
	TopK   *int      `json:"top_k,omitempty"`
	Filter string    `json:"filter,omitempty"`
}

type scoredListResponse struct {
	Items []scoredResponse `json:"items"`
	Total int              `json:"total"`
}

// searchDescription handles POST /api/v1/search/description. Accepts either a
// precomputed vector or raw query text to embed.
func (s *Server) searchDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Vector) == 0 && req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "vector or query is required")
		return
	}
	if len(req.Vector) > 0 && req.Query != "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "vector and query are mutually exclusive")
		return
	}

	k := derefIntDefault(req.TopK, defaultTopK)

	start := time.Now()
	var scored []result.Scored
	var err error
	if req.Query != "" {
		scored, err = s.search.SearchByQuery(r.Context(), req.Query, k, req.Filter)
	} else {
		scored, err = s.search.SearchByDescription(r.Context(), req.Vector, k, req.Filter)
	}
	observeSearch("description", start, err)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	hits := scoredToResponse(scored)
	writeJSON(w, http.StatusOK, scoredListResponse{Items: hits, Total: len(hits)})
}

type imageSearchRequest struct {
	Vector []float32 `json:"vector"`
	TopK   *int      `json:"top_k,omitempty"`
	Filter string    `json:"filter,omitempty"`
}

// searchImage handles POST /api/v1/search/image.
func (s *Server) searchImage(w http.ResponseWriter, r *http.Request) {
	var req imageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Vector) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "vector is required")
		return
	}

	k := derefIntDefault(req.TopK, defaultTopK)

	start := time.Now()
	scored, err := s.search.SearchByImage(r.Context(), req.Vector, k, req.Filter)
	observeSearch("image", start, err)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	hits := scoredToResponse(scored)
	writeJSON(w, http.StatusOK, scoredListResponse{Items: hits, Total: len(hits)})
}

type hybridSearchRequest struct {
	TextVector  []float32 `json:"text_vector,omitempty"`
	ImageVector []float32 `json:"image_vector,omitempty"`
	TextWeight  *float64  `json:"text_weight,omitempty"`
	ImageWeight *float64  `json:"image_weight,omitempty"`
	TopK        *int      `json:"top_k,omitempty"`
	Filter      string    `json:"filter,omitempty"`
}

type fusedListResponse struct {
	Items []fusedResponse `json:"items"`
	Total int             `json:"total"`
}

// searchHybrid handles POST /api/v1/search/hybrid. Either vector may be
// omitted; the missing modality contributes nothing to the fused score.
func (s *Server) searchHybrid(w http.ResponseWriter, r *http.Request) {
	var req hybridSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.TextVector) == 0 && len(req.ImageVector) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"at least one of text_vector and image_vector is required")
		return
	}

	opts := searchuc.HybridOptions{
		TextWeight:  derefFloatDefault(req.TextWeight, searchuc.DefaultTextWeight),
		ImageWeight: derefFloatDefault(req.ImageWeight, searchuc.DefaultImageWeight),
		TopK:        derefIntDefault(req.TopK, defaultTopK),
		Filter:      req.Filter,
	}

	start := time.Now()
	fused, err := s.search.HybridSearch(r.Context(), req.TextVector, req.ImageVector, opts)
	observeSearch("hybrid", start, err)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	hits := fusedToResponse(fused)
	writeJSON(w, http.StatusOK, fusedListResponse{Items: hits, Total: len(hits)})
}

type statsResponse struct {
	Database    string         `json:"database"`
	Collection  string         `json:"collection"`
	EntityCount int            `json:"entity_count"`
	VectorDims  map[string]int `json:"vector_dims"`
}

// getStats handles GET /api/v1/stats.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Get(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Database:    st.Database,
		Collection:  st.Collection,
		EntityCount: st.EntityCount,
		VectorDims:  st.VectorDims,
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func observeSearch(modality string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(modality, status).Inc()
	metrics.SearchDuration.WithLabelValues(modality).Observe(time.Since(start).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrInvalidWeight,
		domain.ErrVectorDimMismatch,
		domain.ErrImageSearchNotSupported,
		domain.ErrEmbedderNotConfigured,
		domain.ErrConnection,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports which record and field failed validation.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":      codeValidationFailed,
			"message":   ve.Error(),
			"record_id": ve.RecordID,
			"field":     ve.Field,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func derefIntDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloatDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
