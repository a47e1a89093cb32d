package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/joho/godotenv"

	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/config"
	"github.com/qqewq/harmonized-mind/internal/container"
)

// bootstrap loads .env and configuration, then builds the container. withHistory forces the
// history store on or off regardless of HISTORY_ENABLED.
func bootstrap(ctx context.Context, withHistory *bool) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if withHistory != nil {
		cfg.History.Enabled = *withHistory
	}

	level := cfg.Log.Level
	if level == "" || level == "INFO" {
		level = "WARN"
	}
	logger := internal.NewLogger(internal.ParseLogLevel(level), "console")

	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.InitHistory(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

func boolPtr(b bool) *bool { return &b }

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
