package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jadwalpoli/internal/config"
)

func main() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	var configPath string
	rootCmd := &cobra.Command{
		Use:           "jadwalpoli",
		Short:         "Doctor schedules, booking calendar and live clinic queues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config.yaml")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(serveCmd(load, &logger))
	rootCmd.AddCommand(scheduleCmd(load, &logger))
	rootCmd.AddCommand(queueCmd(load, &logger))

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("JADWAL_CONFIG_PATH"); p != "" {
		return p
	}
	return config.DefaultPath
}
