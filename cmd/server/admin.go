package main

import (
	"errors"
	"fmt"

	"github.com/dkeye/Handoff/internal/adapters/store"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.PostgresURL == "" {
			return errors.New("store.postgres_url is not set")
		}
		if err := store.Migrate(cmd.Context(), cfg.Store.PostgresURL); err != nil {
			return err
		}
		log.Info().Str("module", "cmd").Msg("migrations applied")
		return nil
	},
}

var (
	flagSeedID    int64
	flagSeedCode  string
	flagSeedTotal int
	flagSeedUsed  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or replace a permit",
	Long: `Create or replace a permit in the configured store.

Examples:
  handoff seed --code ROOM42 --total 5
  handoff seed --store badger --id 7 --code SPRING --total 1`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagSeedCode == "" || flagSeedTotal <= 0 {
			return errors.New("--code and a positive --total are required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), store.Options{
			Driver:      cfg.Store.Driver,
			BadgerPath:  cfg.Store.BadgerPath,
			PostgresURL: cfg.Store.PostgresURL,
			Migrate:     true,
		})
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.SavePermit(cmd.Context(), domain.Permit{
			ID:    domain.PermitID(flagSeedID),
			Code:  flagSeedCode,
			Used:  flagSeedUsed,
			Total: flagSeedTotal,
		})
		if err != nil {
			return fmt.Errorf("save permit: %w", err)
		}
		log.Info().Str("module", "cmd").Int64("id", int64(p.ID)).Str("code", p.Code).Int("total", p.Total).Msg("permit saved")
		fmt.Fprintf(cmd.OutOrStdout(), "permit %d code=%s used=%d/%d\n", p.ID, p.Code, p.Used, p.Total)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.Int64Var(&flagSeedID, "id", 0, "permit id (0 assigns one)")
	f.StringVar(&flagSeedCode, "code", "", "permit code")
	f.IntVar(&flagSeedTotal, "total", 1, "allowed redemptions")
	f.IntVar(&flagSeedUsed, "used", 0, "redemptions already spent")
}
