package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaronsela1/productivity-bot/internal/config"
	"github.com/yaronsela1/productivity-bot/internal/di"
	"github.com/yaronsela1/productivity-bot/internal/handler/api"
	"github.com/yaronsela1/productivity-bot/internal/handler/oauth"
	"github.com/yaronsela1/productivity-bot/internal/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server with the sign-in flow, the JSON API, /metrics and
/health. Set SCHEDULER_ENABLED=true to also trigger dispatch runs in-process
instead of relying on an external scheduler calling /api/cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	if cfg.CronSecret == "" {
		slog.Warn("CRON_SECRET is not set: /api/cron is open and scheduled checks cannot read stored tokens")
	}

	apiHandler := api.NewAPIHandler(
		container.NotificationService,
		container.DispatchService,
		container.AccountService,
		cfg.CronSecret,
	)
	oauthHandler := oauth.NewGoogleOAuthHandler(container.AccountService, di.SecureCookies(cfg))

	mux := http.NewServeMux()
	apiHandler.Register(mux, metrics.Instrument)
	oauthHandler.Register(mux)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", server.Addr, "db_driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.SchedulerEnabled {
		container.Scheduler.Start(ctx)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	container.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("shutdown completed")
	return nil
}
