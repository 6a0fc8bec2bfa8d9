package orch

import (
	"context"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SweepResult counts what one monitor pass removed.
type SweepResult struct {
	Orphans   int
	Expired   int
	Reclaimed int
}

// RunMonitor sweeps every SweepInterval until ctx is done.
func (o *Orchestrator) RunMonitor(ctx context.Context) error {
	t := o.Clock.NewTicker(o.Timing.SweepInterval)
	defer t.Stop()
	log.Info().Str("module", "orch.monitor").Dur("interval", o.Timing.SweepInterval).Msg("monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.monitor").Msg("monitor stopped")
			return ctx.Err()
		case <-t.Chan():
			o.Sweep(ctx)
		}
	}
}

// Sweep runs one pass: durable orphans first, then expired rooms, then idle ones.
func (o *Orchestrator) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	now := o.now()

	n, err := o.Store.DeleteRoomsNotIn(ctx, o.Registry.IDs(), now.Add(-o.Timing.OrphanGrace))
	if err != nil {
		log.Error().Str("module", "orch.monitor").Err(err).Msg("reconcile failed")
	}
	res.Orphans = n

	var expired, idle []*core.RoomSession
	for _, s := range o.Registry.ListAll() {
		switch {
		case s.Expire(now, o.Timing.RoomExpiry):
			expired = append(expired, s)
		case s.Reclaim(now):
			idle = append(idle, s)
		}
	}

	var g errgroup.Group
	g.SetLimit(8)
	for _, s := range expired {
		g.Go(func() error {
			o.expire(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	res.Expired = len(expired)

	for _, s := range idle {
		if err := o.forget(ctx, s); err != nil {
			log.Error().Str("module", "orch.monitor").Stringer("room", s.ID()).Err(err).Msg("delete idle room failed")
		}
	}
	res.Reclaimed = len(idle)

	if res != (SweepResult{}) {
		log.Info().
			Str("module", "orch.monitor").
			Int("orphans", res.Orphans).
			Int("expired", res.Expired).
			Int("reclaimed", res.Reclaimed).
			Msg("sweep done")
	}
	return res
}

// expire tells each live peer the room is gone, waits for the ack, then drops
// the room and disables its permit.
func (o *Orchestrator) expire(ctx context.Context, s *core.RoomSession) {
	sender, receiver := s.Connections()
	notice := protocol.ExpiredNotice{RoomID: s.ID()}

	var g errgroup.Group
	for _, c := range []core.PeerConnection{sender, receiver} {
		if c == nil || c.Closed() {
			continue
		}
		g.Go(func() error {
			_, _ = o.Emitter.Emit(ctx, c, protocol.EventRoomExpired, notice, nil)
			c.Close()
			return nil
		})
	}
	_ = g.Wait()

	if err := o.forget(ctx, s); err != nil {
		log.Error().Str("module", "orch.monitor").Stringer("room", s.ID()).Err(err).Msg("delete expired room failed")
	}
	if err := o.Store.DisablePermit(ctx, s.PermitID()); err != nil {
		log.Error().Str("module", "orch.monitor").Stringer("room", s.ID()).Err(err).Msg("disable permit failed")
	}
	log.Info().Str("module", "orch.monitor").Stringer("room", s.ID()).Msg("room expired")
}
