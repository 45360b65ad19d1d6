package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jadwalpoli/internal/api"
	"jadwalpoli/internal/bot"
	"jadwalpoli/internal/database"
	"jadwalpoli/internal/metrics"
)

func serveCmd(load loader, logger *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the monitoring endpoints",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Monitoring.HealthCheckPort == 0 {
				cfg.Monitoring.HealthCheckPort = 8090
			}
			checks := []api.ReadinessCheck{{Name: "db", Check: a.db.PingContext}}
			if a.rdb != nil {
				checks = append(checks, api.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
					return a.rdb.Ping(ctx).Err()
				}})
			}
			go serveHTTP(ctx, "health", cfg.Monitoring.HealthCheckPort, api.HealthHandler(checks...), logger)

			if cfg.Monitoring.PrometheusEnabled {
				if cfg.Monitoring.PrometheusPort == 0 {
					cfg.Monitoring.PrometheusPort = 9090
				}
				metrics.Register()
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				go serveHTTP(ctx, "metrics", cfg.Monitoring.PrometheusPort, mux, logger)
			}

			backup := database.NewBackupService(a.db, database.BackupConfig{
				Enabled:       cfg.Backup.Enabled,
				Interval:      cfg.BackupInterval(),
				StoragePath:   cfg.Backup.Path,
				RetentionDays: cfg.Backup.RetentionDays,
			}, logger)
			go backup.Start(ctx)

			if cfg.HTTP.Enabled {
				srv := api.NewHTTPServer(api.Options{
					Port:         cfg.HTTP.Port,
					APIKey:       cfg.HTTP.APIKey,
					MinDaysAhead: cfg.Booking.MinDaysAhead,
					MaxDaysAhead: cfg.Booking.MaxDaysAhead,
					Location:     cfg.Location(),
				}, a.directory, a.poller, logger)
				go func() {
					if err := srv.Start(); err != nil {
						logger.Error().Err(err).Msg("HTTP API error")
						stop()
					}
				}()
				defer func() {
					ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctxShutdown)
				}()
			}

			if cfg.Telegram.Enabled {
				if cfg.Telegram.BotToken == "" {
					return fmt.Errorf("set telegram.bot_token in config")
				}
				b, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, a.directory, a.poller,
					bot.BookingRules{MinDaysAhead: cfg.Booking.MinDaysAhead, MaxDaysAhead: cfg.Booking.MaxDaysAhead},
					cfg.Location(), logger)
				if err != nil {
					return fmt.Errorf("create bot: %w", err)
				}
				go b.Start(ctx)
			}

			logger.Info().Msg("jadwalpoli started")
			<-ctx.Done()
			logger.Info().Int("active_watches", a.poller.Active()).Msg("shutting down")
			return nil
		},
	}
}

func serveHTTP(ctx context.Context, name string, port int, handler http.Handler, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
