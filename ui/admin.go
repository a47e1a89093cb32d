package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qqewq/harmonized-mind/internal"
)

// Pinger is satisfied by *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdminApp serves metrics, health and pprof on a separate listener
type AdminApp struct {
	router *chi.Mux
	db     Pinger
	port   string
	logger *internal.Logger
}

// NewAdminApp creates the admin router. db may be nil when history is disabled.
func NewAdminApp(port string, db Pinger, logger *internal.Logger) *AdminApp {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	a := &AdminApp{router: chi.NewRouter(), db: db, port: port, logger: logger}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *AdminApp) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the admin routes
func (a *AdminApp) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	a.router.Mount("/debug", middleware.Profiler())
}

// Handler exposes the router, e.g. for httptest
func (a *AdminApp) Handler() http.Handler { return a.router }

// Start serves until ctx is cancelled
func (a *AdminApp) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serveUntilDone(ctx, srv, "Admin", a.logger)
}

func (a *AdminApp) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, history := http.StatusOK, "disabled"
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			a.logger.Warn("[Admin] history ping failed: %v", err)
			status, history = http.StatusServiceUnavailable, "down"
		} else {
			history = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  http.StatusText(status),
		"history": history,
	})
}
