package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	router "github.com/dkeye/Handoff/internal/adapters/http"
	"github.com/dkeye/Handoff/internal/adapters/signal"
	"github.com/dkeye/Handoff/internal/adapters/store"
	"github.com/dkeye/Handoff/internal/app"
	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/app/orch"
	"github.com/dkeye/Handoff/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signal server and the presence monitor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func timing(cfg *config.Config) orch.Timing {
	return orch.Timing{
		RoomExpiry:      cfg.RoomExpiry,
		LivenessTimeout: cfg.LivenessTimeout,
		SweepInterval:   cfg.SweepInterval,
		OrphanGrace:     cfg.OrphanGrace,
		ProbeTimeout:    cfg.ProbeTimeout,
		ReplayWindow:    cfg.ReplayWindow,
		SettleGrace:     cfg.SettleGrace,
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		BadgerPath:  cfg.Store.BadgerPath,
		PostgresURL: cfg.Store.PostgresURL,
		Migrate:     true,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	emitter := delivery.NewEmitter(delivery.Policy{Attempts: cfg.Delivery.Attempts, Timeout: cfg.Delivery.Timeout})
	o := orch.New(app.NewRegistry(), st, emitter, nil, timing(cfg))
	defer o.Shutdown()

	limiter := signal.NewHandshakeLimiter(cfg.HandshakeLimit, cfg.HandshakeWindow, nil)

	g, gctx := errgroup.WithContext(ctx)
	r := router.SetupRouter(gctx, cfg, o, limiter)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Handoff server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(o.RunMonitor(gctx)) })
	g.Go(func() error { return ignoreCanceled(limiter.Run(gctx)) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
