package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventLogInMemoryWhenDSNEmpty(t *testing.T) {
	events, err := newEventLog(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, events)
	assert.Equal(t, 0, events.Len())
}

func TestResolvePostgresDSNPrefersFlagOverEnv(t *testing.T) {
	t.Setenv("LEDGER_POSTGRES_DSN", "postgres://env-value")
	dsn := resolvePostgresDSN(context.Background(), "postgres://flag-value")
	assert.Equal(t, "postgres://flag-value", dsn)
}

func TestResolvePostgresDSNFallsBackToEnv(t *testing.T) {
	t.Setenv("LEDGER_POSTGRES_DSN", "postgres://env-value")
	dsn := resolvePostgresDSN(context.Background(), "")
	assert.Equal(t, "postgres://env-value", dsn)
}

func TestResolvePostgresDSNEmptyWhenUnset(t *testing.T) {
	dsn := resolvePostgresDSN(context.Background(), "")
	assert.Empty(t, dsn)
}
