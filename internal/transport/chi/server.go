// Package chi exposes the HTTP API: hybrid search, RAG answers, record
// ingestion and the operational endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/record"
	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
	answeruc "github.com/terralab/georag/internal/usecase/answer"
	healthuc "github.com/terralab/georag/internal/usecase/health"
	ingestuc "github.com/terralab/georag/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchService runs the hybrid retrieval pipeline.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, weights request.Weights) ([]result.Result, error)
}

// AnswerService synthesizes grounded answers.
type AnswerService interface {
	Ask(ctx context.Context, question string, topK int, weights request.Weights) (answeruc.Answer, error)
}

// IngestService drives the tri-store write path.
type IngestService interface {
	Ingest(ctx context.Context, rec record.Record) error
	Delete(ctx context.Context, id string) error
	Reconcile(ctx context.Context) (ingestuc.Report, error)
	Resume()
}

// RecordReader reads single records for the GET endpoint.
type RecordReader interface {
	Get(ctx context.Context, id string) (record.Record, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search        SearchService
	answer        AnswerService
	ingest        IngestService
	records       RecordReader
	health        HealthService
	defaults      request.Weights
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Requests that carry no explicit
// blend weights fall back to defaultWeights.
func NewServer(
	search SearchService,
	answer AnswerService,
	ingest IngestService,
	records RecordReader,
	health HealthService,
	defaultWeights request.Weights,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		answer:   answer,
		ingest:   ingest,
		records:  records,
		health:   health,
		defaults: defaultWeights,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidWeights, http.StatusBadRequest, codeInvalidWeights),
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeRecordNotFound),
		sentinelHandler(domain.ErrIngestionHalted, http.StatusConflict, codeIngestionHalted),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrGenerationUnavailable, http.StatusBadGateway, codeGenerationUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeRetrievalUnavailable),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeDeadlineExceeded),
	}
	return s
}

// NewRouter assembles the route table with the supplied middleware chain.
func NewRouter(s *Server, middlewares ...func(http.Handler) http.Handler) gochi.Router {
	r := gochi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/search", s.Search)
		r.Post("/ask", s.Ask)
		r.Put("/records/{id}", s.UpsertRecord)
		r.Get("/records/{id}", s.GetRecord)
		r.Delete("/records/{id}", s.DeleteRecord)
		r.Post("/admin/reconcile", s.Reconcile)
		r.Post("/admin/resume", s.Resume)
	})

	return r
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	weights, err := s.resolveWeights(req.VectorWeight, req.LexicalWeight)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	results, err := s.search.Search(r.Context(), req.Query, topK, weights)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchHit, len(results))
	for i := range results {
		items[i] = resultToHit(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	weights, err := s.resolveWeights(req.VectorWeight, req.LexicalWeight)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ans, err := s.answer.Ask(r.Context(), req.Question, req.TopK, weights)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ans)
}

// UpsertRecord handles PUT /api/v1/records/{id}.
func (s *Server) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	var req upsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := recordFromUpsert(id, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	if err := s.ingest.Ingest(r.Context(), rec); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordResponse{ID: rec.ID(), recordBody: *recordToBody(&rec)})
}

// GetRecord handles GET /api/v1/records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordResponse{ID: rec.ID(), recordBody: *recordToBody(&rec)})
}

// DeleteRecord handles DELETE /api/v1/records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	if err := s.ingest.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reconcile handles POST /api/v1/admin/reconcile. The sweep runs
// synchronously and reports what it repaired.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingest.Reconcile(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Resume handles POST /api/v1/admin/resume. It lifts an ingestion halt
// after the operator has resolved the dimension skew.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	s.ingest.Resume()
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

const defaultTopK = 10

// resolveWeights turns the optional per-request weight overrides into a
// validated pair. A single supplied weight implies its complement.
func (s *Server) resolveWeights(vec, lex *float64) (request.Weights, error) {
	switch {
	case vec == nil && lex == nil:
		return s.defaults, nil
	case vec != nil && lex != nil:
		return request.NewWeights(*vec, *lex)
	case vec != nil:
		return request.NewWeights(*vec, 1-*vec)
	default:
		return request.NewWeights(1-*lex, *lex)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidWeights,
		domain.ErrEmptyInput,
		domain.ErrRecordNotFound,
		domain.ErrIngestionHalted,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingUnavailable,
		domain.ErrGenerationUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrRetrievalUnavailable,
		context.DeadlineExceeded,
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

// dimensionMismatchHandler surfaces the observed dimensions so the operator
// can see the skew without reading server logs.
func dimensionMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var dme *domain.DimensionMismatchError
	if errors.As(err, &dme) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":            codeDimensionMismatch,
			"message":         msg,
			"got_dimensions":  dme.Got,
			"want_dimensions": dme.Want,
		})
		return true
	}
	writeError(w, http.StatusInternalServerError, codeDimensionMismatch, msg)
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
