package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleSenderJoin(ctx context.Context, c core.PeerConnection, _ json.RawMessage) (Reply, error) {
	p := c.Peer()
	id := domain.PermitRoom(p.Permit)
	ack := protocol.SenderJoinAck{RoomID: id, RoomExpiryMs: o.Timing.RoomExpiry.Milliseconds()}

	chk, err := o.Permits.ValidateID(ctx, p.Permit)
	ack.Used, ack.Total = chk.Used, chk.Total
	if err != nil {
		return Reply{Data: ack}, err
	}

	s, err := o.session(ctx, id, p.Permit, true)
	if err != nil {
		return Reply{Data: ack}, err
	}
	other, err := s.Join(domain.RoleSender, c, o.now())
	if err != nil {
		return Reply{Data: ack}, err
	}
	o.touchStore(ctx, s)
	o.notify(s, other, protocol.EventSenderJoin, protocol.PeerJoined{RoomID: id})

	ack.RoomCreatedAt = s.CreatedAt()
	ack.Online, ack.Ready = o.probe(ctx, s, domain.RoleReceiver)
	log.Info().
		Str("module", "orch").
		Stringer("room", id).
		Str("conn", string(c.ID())).
		Bool("receiver_online", ack.Online).
		Msg("sender joined")
	return Reply{Data: ack}, nil
}

func (o *Orchestrator) handleReceiverJoin(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error) {
	p := c.Peer()
	ack := protocol.ReceiverJoinAck{RoomID: p.Room}

	req, err := decode[protocol.ReceiverJoinRequest](data)
	if err != nil {
		return Reply{Data: ack}, err
	}
	if req.RoomID != p.Room {
		return Reply{Data: ack}, domain.ErrRoleMismatch
	}

	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{Data: ack}, err
	}
	now := o.now()
	other, err := s.Join(domain.RoleReceiver, c, now)
	if err != nil {
		return Reply{Data: ack}, err
	}
	o.touchStore(ctx, s)
	o.notify(s, other, protocol.EventReceiverJoin, protocol.PeerJoined{RoomID: p.Room})

	if permit, err := o.Store.FindPermit(ctx, s.PermitID()); err == nil {
		ack.Used, ack.Total = permit.Used, permit.Total
	} else {
		log.Warn().Str("module", "orch").Stringer("room", p.Room).Err(err).Msg("permit lookup failed")
	}
	ack.Online, ack.Ready = o.probe(ctx, s, domain.RoleSender)

	if text, ok, expired := s.Replay(now, o.Timing.ReplayWindow); ok {
		ack.Payload = text
		s.MarkDelivered(text)
	} else {
		ack.Expired = expired
	}
	log.Info().
		Str("module", "orch").
		Stringer("room", p.Room).
		Str("conn", string(c.ID())).
		Bool("replayed", ack.Payload != "").
		Bool("expired", ack.Expired).
		Msg("receiver joined")
	return Reply{Data: ack}, nil
}

// probe asks the role's peer for its readiness with a single short attempt.
// No answer means offline, whatever the last-active timestamp says.
func (o *Orchestrator) probe(ctx context.Context, s *core.RoomSession, role domain.Role) (online, ready bool) {
	target := s.Conn(role)
	if target == nil {
		return false, false
	}
	p := delivery.Policy{Attempts: 1, Timeout: o.Timing.ProbeTimeout}
	raw, err := o.Emitter.EmitWith(ctx, p, target, protocol.EventStatus, nil, nil)
	if err != nil {
		log.Debug().Str("module", "orch").Stringer("room", s.ID()).Err(domain.ErrStatusProbeTimeout).Msg("peer reported offline")
		return false, false
	}
	var reply protocol.StatusReply
	if json.Unmarshal(raw, &reply) != nil {
		reply = protocol.StatusReply{}
	}
	_ = s.Touch(role, target, o.now())
	s.ObserveReady(role, reply.Ready)
	return s.IsOnline(role, o.now()), reply.Ready
}
