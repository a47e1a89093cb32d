package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/qqewq/harmonized-mind/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The statements are portable between
// PostgreSQL and SQLite: JSON payloads are TEXT and timestamps are unix milliseconds.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysesTable(ctx, db); err != nil {
		return errors.Wrap(errors.DatabaseError("create analyses", err), "failed to create analyses table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(errors.DatabaseError("create indexes", err), "failed to create indexes")
	}

	if err := r.recordVersion(ctx, db); err != nil {
		return errors.Wrap(errors.DatabaseError("record version", err), "failed to record schema version")
	}

	return nil
}

func (r *MigrationRunner) createAnalysesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			task TEXT NOT NULL,
			goal TEXT NOT NULL,
			constraints TEXT NOT NULL DEFAULT '',
			domains TEXT NOT NULL,
			domain_keys TEXT NOT NULL,
			lang TEXT NOT NULL,
			prompt TEXT NOT NULL DEFAULT '',
			gate_decision TEXT NOT NULL,
			gate_reason TEXT NOT NULL DEFAULT '',
			gate TEXT NOT NULL,
			gamma_foam DOUBLE PRECISION,
			p_total DOUBLE PRECISION,
			d_fractal DOUBLE PRECISION NOT NULL DEFAULT 0,
			top_amplitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			recommendation TEXT NOT NULL DEFAULT '',
			solution TEXT NOT NULL DEFAULT '',
			hypotheses TEXT NOT NULL,
			stress_test TEXT,
			foam TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_fingerprint ON analyses (fingerprint)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY
		)
	`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO schema_version (version) VALUES (?)
		ON CONFLICT (version) DO NOTHING`), r.version)
	return err
}
