package ui

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/qqewq/harmonized-mind/app"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/config"
	"github.com/qqewq/harmonized-mind/internal/resonance"
	"github.com/qqewq/harmonized-mind/ui/middleware"
)

// Version is reported by the info endpoint
const Version = "1.0"

// Server is the JSON API server
type Server struct {
	router    *gin.Engine
	service   *app.AnalysisService
	assembler *resonance.Assembler
	catalog   *hre.Catalog
	validate  *validator.Validate
	cfg       config.ServerConfig
	logger    *internal.Logger
}

// NewServer creates the API server and registers its routes
func NewServer(cfg config.ServerConfig, service *app.AnalysisService, catalog *hre.Catalog, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		assembler: resonance.NewAssembler(),
		catalog:   catalog,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		cfg:       cfg,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		s.router.Use(gin.Logger())
	}
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.CORS())
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.HandleInfo())

	api := s.router.Group("/api")
	api.Use(middleware.RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst, s.logger))
	api.Use(middleware.Timeout(s.cfg.RequestTimeout))
	{
		api.GET("/domains", s.HandleDomains())
		api.POST("/run-gra", s.HandleRunGRA())

		analyses := api.Group("/analyses")
		analyses.POST("", s.HandleCreateAnalysis())
		analyses.GET("", s.HandleListAnalyses())
		analyses.GET("/:id", s.HandleGetAnalysis())
		analyses.DELETE("/:id", s.HandleDeleteAnalysis())
		analyses.GET("/:id/export", s.HandleExportAnalysis())
	}
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serveUntilDone(ctx, srv, "API", s.logger)
}

func serveUntilDone(ctx context.Context, srv *http.Server, name string, logger *internal.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[%s] listening on %s", name, srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server failed: %w", name, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("[%s] shutting down", name)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown failed: %w", name, err)
		}
		return nil
	}
}
