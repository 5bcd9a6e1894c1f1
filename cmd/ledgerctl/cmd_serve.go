package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gary322/flashbets-ledger/internal/httpinternal"
	"github.com/gary322/flashbets-ledger/internal/ledger"
	"github.com/gary322/flashbets-ledger/internal/persistence"
	"github.com/gary322/flashbets-ledger/internal/secrets"
	"github.com/gary322/flashbets-ledger/internal/telemetry"
)

// serveCmd starts the read-only operator HTTP surface in front of the
// persisted safety state, backed by a real Prometheus registry. With
// --postgres-dsn set, the egress event log resumes from and mirrors
// into a durable Postgres event store instead of living purely
// in-memory for the process lifetime.
func serveCmd(configPath, stateFile *string) *cobra.Command {
	var (
		host        string
		port        int
		postgresDSN string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the health/safety/metrics HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(*stateFile)
			if err != nil {
				return err
			}

			// Registering against the default registerer wires these
			// metrics into the default gatherer promhttp.Handler()
			// scrapes in httpinternal, without threading the registry
			// through the HTTP layer.
			telemetry.NewRegistry(prometheus.DefaultRegisterer)

			dsn := resolvePostgresDSN(cmd.Context(), postgresDSN)
			events, err := newEventLog(cmd.Context(), dsn)
			if err != nil {
				return err
			}

			httpCfg := httpinternal.DefaultConfig()
			if host != "" {
				httpCfg.Host = host
			}
			if port != 0 {
				httpCfg.Port = port
			}

			srv, err := httpinternal.New(httpCfg, &state.Safety, events)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil {
					errCh <- err
				}
			}()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down ledgerctl serve")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override listen host")
	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "durable event store DSN (in-memory only if unset)")
	return cmd
}

// resolvePostgresDSN prefers the --postgres-dsn flag, falling back to
// LEDGER_POSTGRES_DSN so a deployment can wire the credential through
// its secret store instead of a process argument. The resolved value
// is logged redacted, never in the clear.
func resolvePostgresDSN(ctx context.Context, flagValue string) string {
	dsn := flagValue
	if dsn == "" {
		if secret, err := secrets.NewEnvProvider("LEDGER").GetSecret(ctx, "postgres_dsn"); err == nil {
			dsn = secret.String()
		}
	}
	if dsn != "" {
		log.Info().Str("postgres_dsn", secrets.NewRedactor().RedactString(dsn)).Msg("durable event store configured")
	}
	return dsn
}

// newEventLog builds the egress log, resuming from and mirroring into
// a Postgres event store when dsn is non-empty.
func newEventLog(ctx context.Context, dsn string) (*ledger.EventLog, error) {
	if dsn == "" {
		return ledger.NewEventLog(), nil
	}

	cfg := persistence.DefaultConfig()
	cfg.Enabled = true
	cfg.DSN = dsn

	mgr, err := persistence.NewManager(cfg)
	if err != nil {
		return nil, err
	}

	lastSeq, err := mgr.Repository().Events.LatestSeq(ctx)
	if err != nil {
		return nil, err
	}

	events := ledger.NewEventLogFrom(lastSeq)
	events.SetSink(newDurableSink(mgr.Repository().Events))
	return events, nil
}
