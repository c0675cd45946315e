package config_test

import (
	"testing"
	"time"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "600-M", cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.JWTExpiryDuration)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 1, cfg.ProcessorLanes)
}

func TestLoadConfig_InvalidRateLimitRejected(t *testing.T) {
	t.Setenv("RATE_LIMIT", "not-a-rate")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoadConfig_ProcessorLanesFloorIsOne(t *testing.T) {
	t.Setenv("PROCESSOR_LANES", "-3")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ProcessorLanes)
}
