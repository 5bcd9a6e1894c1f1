package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LedgerConfig is the enumerated configuration surface of the core:
// one struct field per named knob, hard defaults baked into
// DefaultLedgerConfig and overridable from YAML.
type LedgerConfig struct {
	MaxLeverage int64 `yaml:"max_leverage"`

	AMM struct {
		PriceClampBps int64 `yaml:"price_clamp_bps"`
		LiqCapBps     int64 `yaml:"liq_cap_bps"`
	} `yaml:"amm"`

	Router struct {
		CUPerChild int64 `yaml:"cu_per_child"`
	} `yaml:"router"`

	Scheduler struct {
		BatchMax int   `yaml:"batch_max"`
		CUMax    int64 `yaml:"cu_max"`
	} `yaml:"scheduler"`

	AntiMEV struct {
		WindowSlots uint64 `yaml:"window_slots"`
	} `yaml:"antimev"`

	Liquidation struct {
		CloseFactorBps   int64 `yaml:"close_factor_bps"`
		PenaltyBps       int64 `yaml:"penalty_bps"`
		LiqBonusBps      int64 `yaml:"liq_bonus_bps"`
		ProtocolFeeBps   int64 `yaml:"protocol_fee_bps"`
	} `yaml:"liquidation"`

	Funding struct {
		PeriodSlots uint64 `yaml:"period_slots"`
		CapBps      int64  `yaml:"cap_bps"`
	} `yaml:"funding"`

	Chain struct {
		MaxDepth int `yaml:"max_depth"`
	} `yaml:"chain"`

	Safety struct {
		BootstrapTarget int64 `yaml:"bootstrap_target"`
		CoverageMinBps  int64 `yaml:"coverage_min_bps"`
	} `yaml:"safety"`

	Ingestion struct {
		BatchSize           int    `yaml:"batch_size"`
		FetchIntervalSlots  uint64 `yaml:"fetch_interval_slots"`
	} `yaml:"ingestion"`

	Reward struct {
		SeasonSlots     uint64            `yaml:"season_slots"`
		SeasonAllocation int64            `yaml:"season_allocation"`
		CategoryCaps    map[string]int64  `yaml:"category_caps"`
	} `yaml:"reward"`
}

// DefaultLedgerConfig holds the hard-coded defaults for the
// configuration surface, as a plain constructor function rather than
// zero-value struct literals scattered across call sites.
func DefaultLedgerConfig() *LedgerConfig {
	c := &LedgerConfig{MaxLeverage: 100}
	c.AMM.PriceClampBps = 200
	c.AMM.LiqCapBps = 400
	c.Router.CUPerChild = 3_000
	c.Scheduler.BatchMax = 50
	c.Scheduler.CUMax = 1_400_000
	c.AntiMEV.WindowSlots = 100
	c.Liquidation.CloseFactorBps = 5000
	c.Liquidation.PenaltyBps = 1000
	c.Liquidation.LiqBonusBps = 500
	c.Liquidation.ProtocolFeeBps = 100
	c.Funding.PeriodSlots = 9000
	c.Funding.CapBps = 75
	c.Chain.MaxDepth = 32
	c.Safety.BootstrapTarget = 10_000
	c.Safety.CoverageMinBps = 5000
	c.Ingestion.BatchSize = 1000
	c.Ingestion.FetchIntervalSlots = 8
	c.Reward.SeasonSlots = 432_000
	c.Reward.SeasonAllocation = 1_000_000
	c.Reward.CategoryCaps = map[string]int64{}
	return c
}

// LoadLedgerConfig reads the config file over the defaults — fields
// the YAML omits keep their default value since yaml.Unmarshal only
// overwrites keys it finds.
func LoadLedgerConfig(path string) (*LedgerConfig, error) {
	cfg := DefaultLedgerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ledger config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}
	return cfg, nil
}

// Validate enforces the hard caps that protect correctness if an
// operator misconfigures the file; most fields are trusted once
// parsed since they're operator-controlled, not caller input.
func (c *LedgerConfig) Validate() error {
	if c.MaxLeverage <= 0 || c.MaxLeverage > 1000 {
		return fmt.Errorf("max_leverage must be in (0, 1000], got %d", c.MaxLeverage)
	}
	if c.Scheduler.BatchMax <= 0 {
		return fmt.Errorf("scheduler.batch_max must be positive, got %d", c.Scheduler.BatchMax)
	}
	if c.Ingestion.BatchSize <= 0 || c.Ingestion.BatchSize > 1000 {
		return fmt.Errorf("ingestion.batch_size must be in (0, 1000], got %d", c.Ingestion.BatchSize)
	}
	if c.Safety.CoverageMinBps <= 0 || c.Safety.CoverageMinBps > 10_000 {
		return fmt.Errorf("safety.coverage_min_bps must be in (0, 10000], got %d", c.Safety.CoverageMinBps)
	}
	return nil
}
