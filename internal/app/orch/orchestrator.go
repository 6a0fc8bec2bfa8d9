package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Handoff/internal/app"
	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Timing holds the windows that drive room lifecycles.
type Timing struct {
	RoomExpiry      time.Duration
	LivenessTimeout time.Duration
	SweepInterval   time.Duration
	OrphanGrace     time.Duration
	ProbeTimeout    time.Duration
	ReplayWindow    time.Duration
	SettleGrace     time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		RoomExpiry:      30 * time.Minute,
		LivenessTimeout: 60 * time.Second,
		SweepInterval:   10 * time.Second,
		OrphanGrace:     10 * time.Minute,
		ProbeTimeout:    time.Second,
		ReplayWindow:    60 * time.Second,
		SettleGrace:     3 * time.Second,
	}
}

// Orchestrator drives the exchange protocol between the two peers of every room
// and runs the presence monitor.
type Orchestrator struct {
	Registry *app.Registry
	Store    core.Store
	Permits  *app.PermitValidator
	Emitter  *delivery.Emitter
	Policy   app.Policy
	Clock    clockwork.Clock
	Timing   Timing

	tasks  *scheduler
	routes map[string]route
}

func New(reg *app.Registry, store core.Store, emitter *delivery.Emitter, clock clockwork.Clock, timing Timing) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	o := &Orchestrator{
		Registry: reg,
		Store:    store,
		Permits:  app.NewPermitValidator(store),
		Emitter:  emitter,
		Policy:   app.SimplePolicy{},
		Clock:    clock,
		Timing:   timing,
		tasks:    newScheduler(clock),
	}
	o.routes = o.buildRoutes()
	return o
}

// Shutdown cancels pending teardowns.
func (o *Orchestrator) Shutdown() {
	o.tasks.Stop()
}

func (o *Orchestrator) now() time.Time { return o.Clock.Now() }

// RoomExists reports whether a receiver may connect to id.
func (o *Orchestrator) RoomExists(ctx context.Context, id domain.RoomID) (bool, error) {
	if o.Registry.Contains(id) {
		return true, nil
	}
	_, err := o.Store.FindRoom(ctx, id)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// session returns the live session for id, restoring it from the store after a restart.
// create allows a missing room to be started for permit.
func (o *Orchestrator) session(ctx context.Context, id domain.RoomID, permit domain.PermitID, create bool) (*core.RoomSession, error) {
	if s, ok := o.Registry.Get(id); ok {
		if s.Closed() {
			return nil, domain.ErrRoomNotFound
		}
		return s, nil
	}

	now := o.now()
	var build *core.RoomSession
	rec, err := o.Store.FindRoom(ctx, id)
	switch {
	case err == nil:
		build = core.RestoreRoomSession(rec, now, o.Timing.LivenessTimeout)
	case errors.Is(err, domain.ErrRoomNotFound) && create:
		build = core.NewRoomSession(id, permit, now, o.Timing.LivenessTimeout)
	case errors.Is(err, domain.ErrRoomNotFound):
		return nil, domain.ErrRoomNotFound
	default:
		return nil, fmt.Errorf("find room %s: %w", id, err)
	}

	s, created, err := o.Registry.GetOrCreate(id, func() (*core.RoomSession, error) { return build, nil })
	if err != nil {
		return nil, err
	}
	if created {
		if err := o.persist(ctx, s); err != nil {
			o.Registry.RemoveIf(s)
			return nil, err
		}
	}
	return s, nil
}

func (o *Orchestrator) persist(ctx context.Context, s *core.RoomSession) error {
	if err := o.Store.UpsertRoom(ctx, s.Record(o.now())); err != nil {
		return fmt.Errorf("upsert room %s: %w", s.ID(), err)
	}
	return nil
}

// touchStore refreshes the durable snapshot without failing the caller.
func (o *Orchestrator) touchStore(ctx context.Context, s *core.RoomSession) {
	if err := o.persist(ctx, s); err != nil {
		log.Warn().Str("module", "orch").Stringer("room", s.ID()).Err(err).Msg("snapshot not persisted")
	}
}

// notify enqueues event on target and applies the backpressure policy when its
// buffer is full.
func (o *Orchestrator) notify(s *core.RoomSession, target core.PeerConnection, event string, data any) {
	if target == nil {
		return
	}
	err := target.Notify(event, data)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrBackpressure) && o.Policy != nil {
		switch o.Policy.OnBackPressure(s, target, event) {
		case app.KickPeer:
			log.Warn().Str("module", "orch").Stringer("room", s.ID()).Str("conn", string(target.ID())).Str("event", event).Msg("slow peer kicked")
			target.Close()
			return
		case app.DropEvent, app.NoAction:
		}
	}
	log.Debug().Str("module", "orch").Stringer("room", s.ID()).Str("event", event).Err(err).Msg("notify failed")
}

// teardown removes a room from the registry and the store and drops both peers.
func (o *Orchestrator) teardown(ctx context.Context, s *core.RoomSession) {
	s.Close()
	sender, receiver := s.Connections()
	for _, c := range []core.PeerConnection{sender, receiver} {
		if c != nil {
			c.Close()
		}
	}
	if err := o.forget(ctx, s); err != nil {
		log.Error().Str("module", "orch").Stringer("room", s.ID()).Err(err).Msg("delete room failed")
		return
	}
	log.Info().Str("module", "orch").Stringer("room", s.ID()).Msg("room torn down")
}

// forget deletes the durable record of a closed session, then drops it from the
// registry. While registered, the closed session answers lookups with
// ErrRoomNotFound instead of being restored from the record.
func (o *Orchestrator) forget(ctx context.Context, s *core.RoomSession) error {
	defer o.Registry.RemoveIf(s)
	if err := o.Store.DeleteRoom(ctx, s.ID()); err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return err
	}
	return nil
}
