package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/qqewq/harmonized-mind/adapters/excel"
	"github.com/qqewq/harmonized-mind/adapters/postgres"
	"github.com/qqewq/harmonized-mind/adapters/report"
	"github.com/qqewq/harmonized-mind/app"
	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/config"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/migration"
	"github.com/qqewq/harmonized-mind/internal/resonance"
	"github.com/qqewq/harmonized-mind/ports"
	"github.com/qqewq/harmonized-mind/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Engine
	Policy resonance.Policy
	Engine *resonance.Engine

	// Repositories (data access layer); nil when history is disabled
	AnalysisRepo ports.AnalysisRepository

	// Services
	Exporters       []ports.Exporter
	AnalysisService *app.AnalysisService
}

// New creates a container with the engine and exporters. History is wired by
// InitWithDatabase or InitHistory.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	engine, err := resonance.NewEngine(policy, logger)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to build engine")
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Policy:    policy,
		Engine:    engine,
		Exporters: []ports.Exporter{excel.NewXLSXExporter()},
	}
	for _, format := range []string{"json", "txt", "md", "html"} {
		c.Exporters = append(c.Exporters, report.Exporters()[format])
	}
	c.initServices()
	return c, nil
}

// InitHistory opens the configured database and wires the history repository. It is a no-op
// when history is disabled.
func (c *Container) InitHistory(ctx context.Context) error {
	if !c.Config.History.Enabled {
		c.Logger.Info("[Container] history disabled; runs will not be persisted")
		return nil
	}
	db, err := OpenDatabase(ctx, c.Config.Database)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase migrates db and wires the history repository onto it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.AnalysisRepo = postgres.NewAnalysisRepository(db)
	c.initServices()
	c.Logger.Info("[Container] history store ready (%s)", db.DriverName())
	return nil
}

func (c *Container) initServices() {
	c.AnalysisService = app.NewAnalysisService(c.Engine, c.AnalysisRepo, c.Exporters, c.Logger)
}

// APIServer builds the gin API server
func (c *Container) APIServer() *ui.Server {
	return ui.NewServer(c.Config.Server, c.AnalysisService, c.Engine.Catalog(), c.Logger)
}

// AdminApp builds the metrics/health/pprof router
func (c *Container) AdminApp() *ui.AdminApp {
	var pinger ui.Pinger
	if c.DB != nil {
		pinger = c.DB
	}
	return ui.NewAdminApp(c.Config.Admin.Port, pinger, c.Logger)
}

// Shutdown releases the database and flushes the logger
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			firstErr = errors.DatabaseError("failed to close database", err)
		}
	}
	_ = c.Logger.Sync()
	return firstErr
}

// OpenDatabase connects with the driver named in cfg. SQLite is limited to one connection
// so in-memory databases keep their schema.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported DB_DRIVER %q", driver))
	}
	db, err := sqlx.ConnectContext(ctx, driver, cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
