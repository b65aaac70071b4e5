package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeenalAppSphere/sprintd/internal/config"
	"github.com/MeenalAppSphere/sprintd/internal/daemon"
	"github.com/MeenalAppSphere/sprintd/internal/httpapi"
	otelx "github.com/MeenalAppSphere/sprintd/internal/otel"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/internal/store/postgres"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

func newServeCmd() *cobra.Command {
	var (
		addr         string
		dbPath       string
		dbURL        string
		apiKey       string
		dev          bool
		enableOtel   bool
		sweepSeconds int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sprintd HTTP server and background sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := openStore(ctx, dbPath, dbURL)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			opts := httpapi.Options{
				Addr:   addr,
				APIKey: apiKey,
				Dev:    dev,
			}
			if enableOtel {
				registry, err := otelx.InitMeterProvider()
				if err != nil {
					slog.Warn("otel init failed, metrics disabled", "err", err)
				} else {
					opts.EnableOTel = true
					opts.Registry = registry
				}
			}

			app := httpapi.New(st, opts)
			sweeper := daemon.NewSweeper(st, app.Manager(), app.Hub(), slog.Default(),
				time.Duration(sweepSeconds)*time.Second, nil)

			slog.Info("sprintd starting", "addr", addr, "otel", opts.EnableOTel)
			errCh := make(chan error, 1)
			go func() {
				go sweeper.Run(ctx)
				errCh <- app.Start()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = app.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if err == nil || errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8876", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: <home>/protected/db.sqlite)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL URL; overrides --db (env: SPRINTD_DATABASE_URL)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Require X-API-Key on all routes except /health and /metrics")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable permissive CORS for local frontend work")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics at /metrics")
	cmd.Flags().IntVar(&sweepSeconds, "sweep-interval", models.DefaultSweepIntervalSec, "Overdue-sprint sweep interval (seconds)")

	return cmd
}

// openStore prefers postgres when a URL is given, otherwise SQLite under
// the sprintd home.
func openStore(ctx context.Context, dbPath, dbURL string) (store.Store, error) {
	if dbURL != "" {
		ps, err := postgres.Open(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		return ps, nil
	}
	if dbPath != "" {
		return store.OpenDSN(dbPath)
	}
	home, err := config.EnsureHome(ctx)
	if err != nil {
		return nil, err
	}
	return store.Open(home)
}
