// Command ledgerctl is the operator CLI for the ledger core: manual
// step ticks, ingestion batch apply, safety-state administration, and
// read-only position/event reporting.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if err := Execute(context.Background()); err != nil {
		log.Error().Err(err).Msg("ledgerctl failed")
		os.Exit(1)
	}
}
