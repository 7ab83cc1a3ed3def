package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/metrics"
	healthuc "github.com/kailas-cloud/searchd/internal/usecase/health"
)

// RouterConfig holds what NewRouter needs beyond the server.
type RouterConfig struct {
	Maintenance        *healthuc.Maintenance
	MaintenanceMessage string
	Logger             *zap.Logger
}

// NewRouter mounts the server's endpoints with the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(log))
	r.Use(metrics.Middleware())

	r.With(Maintenance(cfg.Maintenance, cfg.MaintenanceMessage)).Post("/sql", s.ExecuteSQL)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
