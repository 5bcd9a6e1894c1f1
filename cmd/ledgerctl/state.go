package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/ingestion"
)

// ControlState is the CLI's persisted view of the protocol: enough to
// let independent ledgerctl invocations (admin pause, then report,
// then step) agree on the current safety posture and open positions
// without a running daemon process between them. A long-lived
// deployment backs this with internal/persistence instead; ledgerctl
// uses a flat JSON snapshot for operator convenience.
type ControlState struct {
	Safety    domain.SafetyState
	Season    *domain.SeasonEmission
	Positions []*domain.Position

	// Ingestion carries only the error/backoff/throughput cursor —
	// the market/verse store itself is rebuilt fresh each invocation
	// from whatever snapshots this run supplies, since domain.MarketID
	// keys can't round-trip through JSON object keys.
	Ingestion *ingestion.State
}

// loadState reads path, or returns a fresh bootstrap state if the
// file does not exist yet.
func loadState(path string) (*ControlState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var s ControlState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return &s, nil
}

// saveState writes s to path as indented JSON.
func saveState(path string, s *ControlState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func defaultState() *ControlState {
	return &ControlState{
		Safety: domain.SafetyState{
			PauseLevel:      domain.PauseNone,
			CategoryBitmask: map[domain.Category]bool{},
			Recovery:        domain.RecoveryNormal,
			BootstrapVault:  fixedpoint.FromInt64(0),
			CoverageRatio:   fixedpoint.FromInt64(0),
		},
		Ingestion: &ingestion.State{},
	}
}
