// Package chi is the HTTP adapter of the daemon.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/logger"
	"github.com/kailas-cloud/searchd/internal/sphinxql"
	healthuc "github.com/kailas-cloud/searchd/internal/usecase/health"
	sqluc "github.com/kailas-cloud/searchd/internal/usecase/sql"
)

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest  = "bad_request"
	CodeParseError  = "parse_error"
	CodeMaintenance = "maintenance"
	CodeInternal    = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// SQLResponse is the body of a successful POST /sql.
type SQLResponse struct {
	Statements []sphinxql.Stmt `json:"statements"`
	Scheduled  int             `json:"scheduled,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server serves the query endpoint.
type Server struct {
	sql          *sqluc.Service
	health       *healthuc.Service
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewServer creates an HTTP API server.
func NewServer(sql *sqluc.Service, health *healthuc.Service, maxBodyBytes int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sql: sql, health: health, logger: logger, maxBodyBytes: maxBodyBytes}
}

// ExecuteSQL handles POST /sql. The query is the raw body, or the "query"
// field of a form-encoded body.
func (s *Server) ExecuteSQL(w http.ResponseWriter, r *http.Request) {
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	text, err := readQuery(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request")
		return
	}

	res, err := s.sql.Execute(r.Context(), text)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SQLResponse{
		Statements: res.Statements,
		Scheduled:  res.Scheduled,
		Warnings:   res.Warnings,
	})
}

func readQuery(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", err //nolint:wrapcheck // classified by the caller
		}
		return r.PostForm.Get("query"), nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err //nolint:wrapcheck // classified by the caller
	}
	return strings.TrimSpace(string(body)), nil
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

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// handleError reports parse errors verbatim; anything else is internal.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *sphinxql.Error
	if errors.As(err, &perr) {
		writeError(w, http.StatusBadRequest, CodeParseError, perr.Msg)
		return
	}
	logger.FromContextOr(r.Context(), s.logger).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
