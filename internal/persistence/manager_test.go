package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDisabledSkipsConnection(t *testing.T) {
	mgr, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, mgr.IsEnabled())
	assert.Nil(t, mgr.Repository())
	assert.NoError(t, mgr.Close())
}

func TestNewManagerEnabledRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	_, err := NewManager(cfg)
	require.Error(t, err)
}

func TestHealthCheckerDisabledReportsHealthy(t *testing.T) {
	h := &healthChecker{enabled: false}
	check := h.Health(context.Background())
	assert.True(t, check.Healthy)
	assert.NotEmpty(t, check.Errors)

	require.NoError(t, h.Ping(context.Background()))

	stats := h.Stats(context.Background())
	assert.Equal(t, false, stats["enabled"])
}
