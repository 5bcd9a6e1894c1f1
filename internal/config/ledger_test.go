package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLedgerConfigPassesValidate(t *testing.T) {
	cfg := DefaultLedgerConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(100), cfg.MaxLeverage)
	assert.Equal(t, 1000, cfg.Ingestion.BatchSize)
}

func TestLoadLedgerConfigOverridesDefaultsPartially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_leverage: 50\nscheduler:\n  batch_max: 25\n"), 0o644))

	cfg, err := LoadLedgerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.MaxLeverage)
	assert.Equal(t, 25, cfg.Scheduler.BatchMax)
	// Untouched fields keep their hard-coded default.
	assert.Equal(t, int64(1_400_000), cfg.Scheduler.CUMax)
	assert.Equal(t, int64(200), cfg.AMM.PriceClampBps)
}

func TestLedgerConfigValidateRejectsOutOfRangeLeverage(t *testing.T) {
	cfg := DefaultLedgerConfig()
	cfg.MaxLeverage = 5000
	assert.Error(t, cfg.Validate())
}

func TestLedgerConfigValidateRejectsOversizedIngestionBatch(t *testing.T) {
	cfg := DefaultLedgerConfig()
	cfg.Ingestion.BatchSize = 5000
	assert.Error(t, cfg.Validate())
}
