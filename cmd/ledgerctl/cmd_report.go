package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// reportPositionsCmd prints the persisted open positions as JSON, for
// a quick operator read without standing up the HTTP surface.
func reportPositionsCmd(stateFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report-positions",
		Short: "print the current open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(state.Positions, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
