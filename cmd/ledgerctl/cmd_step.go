package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gary322/flashbets-ledger/internal/config"
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/ledger"
)

// stepCmd runs one manual RunStep tick against the persisted safety
// state and open positions, with no pending orders or chains — useful
// for exercising funding/liquidation/safety gating against the
// current state without a live order flow.
func stepCmd(configPath, stateFile *string) *cobra.Command {
	var slot uint64

	cmd := &cobra.Command{
		Use:   "step",
		Short: "run one manual ledger step against the persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultLedgerConfig()
			if *configPath != "" {
				loaded, err := config.LoadLedgerConfig(*configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}

			// No live price oracle is wired into this CLI-only mode:
			// mark price falls back to each position's own entry price
			// and funding falls back to zero, so a manual step is safe
			// to run without a running price feed but won't trigger a
			// real liquidation or charge real funding.
			markPriceOf := func(market domain.MarketID) fixedpoint.Q64 {
				for _, p := range state.Positions {
					if p.Key.Market == market {
						return p.EntryPrice
					}
				}
				return fixedpoint.FromInt64(0)
			}
			fundingRate := func(pos *domain.Position) (fixedpoint.Q64, error) {
				return fixedpoint.FromInt64(0), nil
			}

			engine := ledger.NewEngine(&state.Safety, cfg.Scheduler.CUMax)
			result, err := engine.RunStep(ledger.StepInput{
				Slot:        slot,
				Positions:   state.Positions,
				MarkPriceOf: markPriceOf,
				FundingRate: fundingRate,
			})
			if err != nil {
				return fmt.Errorf("run step: %w", err)
			}

			if err := saveState(*stateFile, state); err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&slot, "slot", 0, "slot number for this step")
	return cmd
}
