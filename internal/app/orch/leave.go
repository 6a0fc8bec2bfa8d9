package orch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
)

var leftEvents = map[domain.Role]string{
	domain.RoleSender:   protocol.EventAdminLeft,
	domain.RoleReceiver: protocol.EventUserLeft,
}

// handleSenderLeft tears down the sender's connection only. The durable record is
// left for the sweep so a quick reconnect finds the room.
func (o *Orchestrator) handleSenderLeft(ctx context.Context, c core.PeerConnection, _ json.RawMessage) (Reply, error) {
	p := c.Peer()
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{}, err
	}
	other, ok := s.Leave(domain.RoleSender, c)
	if !ok {
		return Reply{}, domain.ErrRoleMismatch
	}
	o.notify(s, other, protocol.EventAdminLeft, protocol.Empty{})
	o.touchStore(ctx, s)
	log.Info().Str("module", "orch").Stringer("room", s.ID()).Str("conn", string(c.ID())).Msg("sender left")
	return Reply{Data: protocol.Empty{}, After: c.Close}, nil
}

// handleReceiverLeft clears the receiver's slot and drops the room once nobody is left.
func (o *Orchestrator) handleReceiverLeft(ctx context.Context, c core.PeerConnection, _ json.RawMessage) (Reply, error) {
	p := c.Peer()
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{}, err
	}
	other, ok := s.Leave(domain.RoleReceiver, c)
	if !ok {
		return Reply{}, domain.ErrRoleMismatch
	}
	o.notify(s, other, protocol.EventUserLeft, protocol.Empty{})
	if s.Vacant() {
		o.teardown(ctx, s)
	} else {
		o.touchStore(ctx, s)
	}
	log.Info().Str("module", "orch").Stringer("room", s.ID()).Str("conn", string(c.ID())).Msg("receiver left")
	return Reply{Data: protocol.Empty{}}, nil
}

// OnDisconnect runs when a connection goes away for any reason. It clears the slot
// the connection held, if any, and tells the other side.
func (o *Orchestrator) OnDisconnect(c core.PeerConnection) {
	p := c.Peer()
	if p == nil {
		return
	}
	s, ok := o.Registry.Get(p.Room)
	if !ok {
		return
	}
	other, cleared := s.Leave(p.Role, c)
	if !cleared {
		return
	}
	log.Info().
		Str("module", "orch").
		Stringer("room", s.ID()).
		Str("conn", string(c.ID())).
		Str("role", string(p.Role)).
		Msg("peer disconnected")
	if s.Closed() {
		return
	}
	o.notify(s, other, leftEvents[p.Role], protocol.Empty{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.touchStore(ctx, s)
}
