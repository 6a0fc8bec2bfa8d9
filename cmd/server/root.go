package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkeye/Handoff/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Permit-gated room coordinator for one-shot payload hand-off",
	Long: `Handoff pairs a sender holding a permit code with a receiver holding a room link,
relays one payload between them over websockets and records the redemption.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("store", "", "store driver (memory, badger, postgres)")
	pf.String("badger-path", "", "badger data directory")
	pf.String("postgres-url", "", "postgres connection string")
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("store.driver", pf.Lookup("store"))
	_ = v.BindPFlag("store.badger_path", pf.Lookup("badger-path"))
	_ = v.BindPFlag("store.postgres_url", pf.Lookup("postgres-url"))

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, sendCmd, receiveCmd)
}

// loadConfig reads the config and applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return cfg, nil
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		cancel()
		os.Exit(1)
	}
}
