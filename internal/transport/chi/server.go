// Package chi implements the HTTP API: matching runs, shortlist reads,
// staleness invalidation, profile ingestion and rule config management.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
	"github.com/hirelens/matchdex/internal/logger"
	healthuc "github.com/hirelens/matchdex/internal/usecase/health"
	ingestuc "github.com/hirelens/matchdex/internal/usecase/ingest"
	matchuc "github.com/hirelens/matchdex/internal/usecase/match"
)

const maxBodyBytes = 4 << 20 // 4 MiB

// errorCode is a machine-readable error tag in API error responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeJobNotFound       errorCode = "job_not_found"
	codeCandidateNotFound errorCode = "candidate_not_found"
	codeShortlistNotFound errorCode = "shortlist_not_found"
	codeRulesNotFound     errorCode = "rules_version_not_found"
	codeRulesExists       errorCode = "rules_version_exists"
	codeInvalidRules      errorCode = "invalid_rule_config"
	codeRetrievalTimeout  errorCode = "retrieval_timeout"
	codeProviderError     errorCode = "embedding_provider_error"
	codeInternalError     errorCode = "internal_error"
)

// errorResponse is the uniform API error body.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// RulesStore manages immutable rule config versions over the API.
type RulesStore interface {
	Put(ctx context.Context, raw []byte) (*domrules.Config, error)
	GetRaw(ctx context.Context, version string) ([]byte, error)
}

// Server is the HTTP API server.
type Server struct {
	match         *matchuc.Service
	ingest        *ingestuc.Service
	rules         RulesStore
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Handlers log through the
// request-scoped logger placed in the context by the logging middleware.
func NewServer(
	match *matchuc.Service,
	ingest *ingestuc.Service,
	rules RulesStore,
	health *healthuc.Service,
) *Server {
	s := &Server{
		match:  match,
		ingest: ingest,
		rules:  rules,
		health: health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, codeJobNotFound),
		sentinelHandler(domain.ErrCandidateNotFound, http.StatusNotFound, codeCandidateNotFound),
		sentinelHandler(domain.ErrShortlistNotFound, http.StatusNotFound, codeShortlistNotFound),
		sentinelHandler(domain.ErrEmbeddingNotFound, http.StatusNotFound, codeJobNotFound),
		sentinelHandler(domain.ErrRulesVersionNotFound, http.StatusNotFound, codeRulesNotFound),
		sentinelHandler(domain.ErrRulesVersionExists, http.StatusConflict, codeRulesExists),
		sentinelHandler(domain.ErrUnknownRuleType, http.StatusBadRequest, codeInvalidRules),
		sentinelHandler(domain.ErrInvalidRuleConfig, http.StatusBadRequest, codeInvalidRules),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRetrievalTimeout, http.StatusGatewayTimeout, codeRetrievalTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes mounts every API route on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/jobs/{jobID}/match", s.runMatch)
	r.Get("/jobs/{jobID}/shortlist", s.getShortlist)
	r.Post("/jobs/{jobID}/invalidate", s.invalidate)
	r.Put("/jobs/{jobID}", s.upsertJob)
	r.Delete("/jobs/{jobID}", s.deleteJob)
	r.Put("/candidates/{candidateID}", s.upsertCandidate)
	r.Delete("/candidates/{candidateID}", s.deleteCandidate)
	r.Put("/rules/{version}", s.putRules)
	r.Get("/rules/{version}", s.getRules)
	r.Get("/healthz", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
}

// matchRequest is the POST /jobs/{jobID}/match body.
type matchRequest struct {
	RulesVersion string `json:"rules_version"`
	TopK         int    `json:"top_k,omitempty"`
	TopN         int    `json:"top_n,omitempty"`
}

func (s *Server) runMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sl, err := s.match.Run(r.Context(), chi.URLParam(r, "jobID"), matchuc.Params{
		RulesVersion: req.RulesVersion,
		TopK:         req.TopK,
		TopN:         req.TopN,
	})
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) getShortlist(w http.ResponseWriter, r *http.Request) {
	sl, err := s.match.GetShortlist(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.match.Invalidate(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		s.handleDomainError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upsertJobRequest is the PUT /jobs/{jobID} body. A precomputed vector skips
// the embedding provider; model_version must then accompany it.
type upsertJobRequest struct {
	profile.Job
	Vector       []float32 `json:"vector,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
}

func (s *Server) upsertJob(w http.ResponseWriter, r *http.Request) {
	var req upsertJobRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Job.ID = chi.URLParam(r, "jobID")

	created, err := s.ingest.UpsertJob(r.Context(), req.Job, req.Vector, req.ModelVersion)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]string{"id": req.Job.ID})
}

// upsertCandidateRequest is the PUT /candidates/{candidateID} body.
type upsertCandidateRequest struct {
	profile.Candidate
	Vector       []float32 `json:"vector,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
}

func (s *Server) upsertCandidate(w http.ResponseWriter, r *http.Request) {
	var req upsertCandidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Candidate.ID = chi.URLParam(r, "candidateID")

	created, err := s.ingest.UpsertCandidate(r.Context(), req.Candidate, req.Vector, req.ModelVersion)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]string{"id": req.Candidate.ID})
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.DeleteJob(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		s.handleDomainError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.DeleteCandidate(r.Context(), chi.URLParam(r, "candidateID")); err != nil {
		s.handleDomainError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putRules(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Read request body: "+err.Error())
		return
	}

	// The body's version is authoritative for the stored key; reject a
	// mismatched path before anything is written.
	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if probe.Version != chi.URLParam(r, "version") {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"version in body does not match version in path")
		return
	}

	cfg, err := s.rules.Put(r.Context(), raw)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"version": cfg.Version})
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	raw, err := s.rules.GetRaw(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.StatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(dst)
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

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrJobNotFound,
		domain.ErrCandidateNotFound,
		domain.ErrShortlistNotFound,
		domain.ErrEmbeddingNotFound,
		domain.ErrRulesVersionNotFound,
		domain.ErrRulesVersionExists,
		domain.ErrUnknownRuleType,
		domain.ErrInvalidRuleConfig,
		domain.ErrInvalidArgument,
		domain.ErrRetrievalTimeout,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
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

func (s *Server) handleDomainError(r *http.Request, w http.ResponseWriter, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
