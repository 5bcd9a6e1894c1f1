package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute builds and runs the ledgerctl command tree.
func Execute(ctx context.Context) error {
	var (
		configPath string
		stateFile  string
	)

	root := &cobra.Command{Use: "ledgerctl", Short: "operator CLI for the ledger core"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to ledger config YAML (defaults baked in if omitted)")
	root.PersistentFlags().StringVar(&stateFile, "state-file", "ledgerctl_state.json", "path to the persisted safety-state snapshot")

	root.AddCommand(stepCmd(&configPath, &stateFile))
	root.AddCommand(ingestCmd(&stateFile))
	root.AddCommand(adminPauseCmd(&stateFile))
	root.AddCommand(adminSeasonCmd(&stateFile))
	root.AddCommand(reportPositionsCmd(&stateFile))
	root.AddCommand(serveCmd(&configPath, &stateFile))

	log.Info().Msg("ledgerctl starting")
	return root.Execute()
}
