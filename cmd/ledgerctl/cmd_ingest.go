package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gary322/flashbets-ledger/internal/ingestion"
	"github.com/gary322/flashbets-ledger/internal/verse"
)

// ingestCmd reads a JSON array of ingestion.Snapshot from a file (or
// stdin with "-") and applies it as one batch.
func ingestCmd(stateFile *string) *cobra.Command {
	var (
		slot uint64
		file string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "apply a batch of market snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file == "-" {
				data, err = readAllStdin()
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read snapshots: %w", err)
			}

			var snapshots []ingestion.Snapshot
			if err := json.Unmarshal(data, &snapshots); err != nil {
				return fmt.Errorf("parse snapshots: %w", err)
			}

			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}
			if state.Ingestion == nil {
				state.Ingestion = &ingestion.State{}
			}

			store := ingestion.NewStore()
			classifier := verse.NewClassifier(verse.DefaultKeywords(), 64)

			accepted, err := ingestion.IngestBatch(state.Ingestion, store, snapshots, classifier.Classify, time.Now(), slot)
			if err != nil {
				return fmt.Errorf("ingest batch: %w", err)
			}

			if err := saveState(*stateFile, state); err != nil {
				return err
			}

			fmt.Printf("accepted %d of %d snapshots (verses: %d)\n", accepted, len(snapshots), len(store.Verses))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&slot, "slot", 0, "current slot")
	cmd.Flags().StringVar(&file, "file", "-", "path to a JSON array of snapshots, or - for stdin")
	return cmd
}

func readAllStdin() ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}
