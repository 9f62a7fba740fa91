package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Zone       *ZoneHandler
	Attendance *AttendanceHandler
	Health     *HealthHandler
	Metrics    http.Handler
	Recorder   HTTPRecorder
	Logger     *slog.Logger
	Timeout    time.Duration
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the API under /api/v1 plus the operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, cfg.Recorder))
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		newResponder(logger).writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{
			Title:   http.StatusText(http.StatusNotFound),
			Message: "The requested resource does not exist.",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		newResponder(logger).writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{
			Title:   http.StatusText(http.StatusMethodNotAllowed),
			Message: "The method is not allowed for this resource.",
		})
	})

	if cfg.Health != nil {
		r.Method(http.MethodGet, "/healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(timeout))
		if cfg.Zone != nil {
			cfg.Zone.Register(api)
		}
		if cfg.Attendance != nil {
			cfg.Attendance.Register(api)
		}
	})

	return r
}
