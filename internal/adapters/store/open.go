package store

import (
	"context"
	"fmt"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/rs/zerolog/log"
)

const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Options selects and configures the durable store.
type Options struct {
	Driver      string
	BadgerPath  string
	PostgresURL string
	// Migrate applies the postgres schema before use.
	Migrate bool
}

func Open(ctx context.Context, opts Options) (core.Store, error) {
	log.Info().Str("module", "store").Str("driver", opts.Driver).Msg("opening store")
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverBadger:
		return OpenBadger(opts.BadgerPath)
	case DriverPostgres:
		if opts.Migrate {
			if err := Migrate(ctx, opts.PostgresURL); err != nil {
				return nil, err
			}
		}
		return NewPostgres(ctx, opts.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
