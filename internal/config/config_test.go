package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultCohortSize, cfg.CohortSize)
	assert.Equal(t, int64(DefaultCohortSeed), cfg.CohortSeed)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("COHORT_SIZE", "500")
	t.Setenv("COHORT_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 500, cfg.CohortSize)
	assert.Equal(t, int64(7), cfg.CohortSeed)
}

func TestLoad_IgnoresUnparseableInt(t *testing.T) {
	t.Setenv("COHORT_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultCohortSize, cfg.CohortSize)
}

func TestValidate_RejectsTinyCohort(t *testing.T) {
	cfg := &Config{CohortSize: 1, RateLimitRPM: 60}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroRateLimit(t *testing.T) {
	cfg := &Config{CohortSize: 100, RateLimitRPM: 0}
	assert.Error(t, cfg.Validate())
}

func TestEnvHelpers(t *testing.T) {
	cfg := &Config{CohortSize: 100, RateLimitRPM: 60, Env: "production"}
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
