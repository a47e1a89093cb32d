package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/resonance"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "DB_DRIVER", "DATABASE_URL", "REQUEST_TIMEOUT",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "HISTORY_ENABLED", "ADMIN_ENABLED", "HRE_POLICY_FILE"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 20.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 40, cfg.Server.RateLimitBurst)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabaseURL, cfg.Database.URL)
	assert.True(t, cfg.History.Enabled)
	assert.True(t, cfg.Admin.Enabled)
	assert.Empty(t, cfg.PolicyFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/hre?sslmode=disable")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("HISTORY_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.History.Enabled)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestParsePolicy_Overlay(t *testing.T) {
	policy, err := ParsePolicy([]byte(`
gate:
  min_p_total: 0.75
selector:
  top_k: 5
stress:
  inverter: goal_negation
`))
	require.NoError(t, err)

	def := resonance.DefaultPolicy()
	assert.Equal(t, 0.75, policy.Gate.MinPTotal)
	assert.Equal(t, def.Gate.MinGammaFoam, policy.Gate.MinGammaFoam)
	assert.Equal(t, 5, policy.Selector.TopK)
	assert.Equal(t, resonance.InverterGoalNegation, policy.Stress.Inverter)
	assert.Equal(t, def.Scorer, policy.Scorer)
}

func TestParsePolicy_Errors(t *testing.T) {
	_, err := ParsePolicy([]byte("selector:\n  top_k: 0\n"))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte("selector:\n  topk: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")

	policy, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, resonance.DefaultPolicy(), policy)
}

func TestLoadPolicy_File(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, resonance.DefaultPolicy(), policy)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scorer:\n  d_base: 3\n"), 0o600))
	policy, err = LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, policy.Scorer.DBase)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
