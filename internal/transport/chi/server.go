package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/logger"
	"github.com/kailas-cloud/seqclass/internal/version"
	classifyuc "github.com/kailas-cloud/seqclass/internal/usecase/classify"
	evaluateuc "github.com/kailas-cloud/seqclass/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/seqclass/internal/usecase/health"
)

const maxRequestBytes = 64 << 20

// DatabaseResolver maps requested database names to configured databases.
// An empty name list selects every configured database.
type DatabaseResolver interface {
	SelectDatabases(names []string) ([]database.Database, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the classification HTTP API.
type Server struct {
	classify      *classifyuc.Service
	evaluate      *evaluateuc.Service
	health        *healthuc.Service
	databases     DatabaseResolver
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	classify *classifyuc.Service,
	evaluate *evaluateuc.Service,
	health *healthuc.Service,
	databases DatabaseResolver,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		classify:  classify,
		evaluate:  evaluate,
		health:    health,
		databases: databases,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		invalidInputHandler,
		sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest, ErrorCodeInvalidConfig),
		sentinelHandler(domain.ErrDatabaseNotFound, http.StatusNotFound, ErrorCodeDatabaseNotFound),
		sentinelHandler(domain.ErrRunNotFound, http.StatusNotFound, ErrorCodeRunNotFound),
		sentinelHandler(domain.ErrSearchFailed, http.StatusBadGateway, ErrorCodeSearchFailed),
		sentinelHandler(domain.ErrDatabaseBuild, http.StatusBadGateway, ErrorCodeDatabaseBuild),
	}
	return s
}

// Routes registers API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/classify", s.Classify)
	r.Post("/classify/hits", s.ClassifyHits)
	r.Post("/select-best", s.SelectBest)
	r.Post("/evaluate", s.Evaluate)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/compare", s.CompareRuns)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/version", s.Version)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Classify handles POST /classify: searches the queries and classifies the hits.
func (s *Server) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	queries, err := req.records()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	dbs, err := s.databases.SelectDatabases(req.Databases)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if len(dbs) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "no databases configured")
		return
	}

	set, err := s.classify.Search(r.Context(), queries, dbs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out, err := s.classify.ClassifyResults(r.Context(), set, req.apply(s.classify.Thresholds()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToResponse(out))
}

// ClassifyHits handles POST /classify/hits: classifies precomputed hits.
func (s *Server) ClassifyHits(w http.ResponseWriter, r *http.Request) {
	var req ClassifyHitsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	set, err := resultSetFromItems(req.Results)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out, err := s.classify.ClassifyResults(r.Context(), set, req.apply(s.classify.Thresholds()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToResponse(out))
}

// SelectBest handles POST /select-best.
func (s *Server) SelectBest(w http.ResponseWriter, r *http.Request) {
	var req SelectBestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hits, err := hitsFromItems("", req.Hits)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	best, ok, err := s.classify.SelectBest(hits, req.apply(s.classify.Thresholds()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := SelectBestResponse{Found: ok, Label: classification.Unclassified}
	if ok {
		item := scoredToItem(best)
		resp.Best = &item
		resp.Label = classification.ResolveLabel(best.Hit)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Evaluate handles POST /evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	run, err := s.evaluate.Evaluate(r.Context(), req.Params, req.Predictions, req.Truth)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/runs/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	runs, err := s.evaluate.ListRuns(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if runs == nil {
		runs = []evaluation.RunSummary{}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Items: runs})
}

// CompareRuns handles GET /runs/compare?by=<dimension>.
func (s *Server) CompareRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	d := evaluation.Dimension(r.URL.Query().Get("by"))
	if d == "" {
		d = evaluation.ByAll
	}

	effects, err := s.evaluate.Compare(r.Context(), d, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CompareResponse{Dimension: d, Effects: effects})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.evaluate.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.evaluate.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}

// numericHitFields are the HitItem fields whose wrong JSON type is reported
// as a validation failure, like any other malformed hit value.
var numericHitFields = map[string]struct{}{
	"bit_score": {},
	"e_value":   {},
	"identity":  {},
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field[strings.LastIndexByte(typeErr.Field, '.')+1:]
		if _, ok := numericHitFields[field]; ok {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				fmt.Sprintf("%s: %s: must be a number, got %s", domain.ErrInvalidInput, typeErr.Field, typeErr.Value))
			return false
		}
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
	return false
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidConfig,
		domain.ErrDatabaseNotFound,
		domain.ErrDatabaseBuild,
		domain.ErrSearchFailed,
		domain.ErrRunNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidInputHandler reports the full message, which names the offending query and field.
func invalidInputHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
