package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/reward"
)

var pauseLevelByName = map[string]domain.PauseLevel{
	"none":    domain.PauseNone,
	"partial": domain.PausePartial,
	"full":    domain.PauseFull,
	"freeze":  domain.PauseFreeze,
}

// adminPauseCmd sets the persisted safety state's pause level, the
// CLI-operated equivalent of the safety supervisor's own automatic
// circuit-breaker trips.
func adminPauseCmd(stateFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin-pause [none|partial|full|freeze]",
		Short: "set the protocol's global pause level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, ok := pauseLevelByName[args[0]]
			if !ok {
				return fmt.Errorf("unknown pause level %q (want one of: none, partial, full, freeze)", args[0])
			}

			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}
			previous := state.Safety.PauseLevel
			state.Safety.PauseLevel = level
			if err := saveState(*stateFile, state); err != nil {
				return err
			}

			fmt.Printf("pause level: %d -> %d\n", previous, level)
			return nil
		},
	}
	return cmd
}

// adminSeasonCmd starts a new reward-emission season, or rolls the
// current one over if it has already reached its end slot.
func adminSeasonCmd(stateFile *string) *cobra.Command {
	var (
		allocation int64
		startSlot  uint64
		endSlot    uint64
		currentSlot uint64
	)

	cmd := &cobra.Command{
		Use:   "admin-season",
		Short: "start a new reward season, or roll over the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}

			if state.Season == nil {
				season := reward.NewSeason(1, fixedpoint.FromInt64(allocation), startSlot, endSlot)
				state.Season = season
				fmt.Printf("started season %d: allocation=%d start=%d end=%d\n",
					season.Season, allocation, startSlot, endSlot)
			} else {
				rolled, err := reward.EndSeason(state.Season, currentSlot, fixedpoint.FromInt64(allocation), endSlot)
				if err != nil {
					return fmt.Errorf("end season: %w", err)
				}
				state.Season = rolled
				fmt.Printf("rolled over to season %d: allocation=%d end=%d\n",
					rolled.Season, allocation, endSlot)
			}

			return saveState(*stateFile, state)
		},
	}
	cmd.Flags().Int64Var(&allocation, "allocation", 1_000_000, "season allocation (whole units)")
	cmd.Flags().Uint64Var(&startSlot, "start-slot", 0, "season start slot (only used when starting the first season)")
	cmd.Flags().Uint64Var(&endSlot, "end-slot", 432_000, "season end slot")
	cmd.Flags().Uint64Var(&currentSlot, "current-slot", 0, "current slot, required to roll an existing season over")
	return cmd
}
