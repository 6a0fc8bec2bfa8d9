package orch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
)

var readyEvents = map[domain.Role]string{
	domain.RoleSender:   protocol.EventAdminReady,
	domain.RoleReceiver: protocol.EventUserReady,
}

func (o *Orchestrator) handleReady(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error) {
	p := c.Peer()
	ready, err := decode[bool](data)
	if err != nil {
		return Reply{}, err
	}
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{}, err
	}
	echo, other, err := s.SetReady(p.Role, c, ready)
	if err != nil {
		return Reply{}, err
	}
	_ = s.Touch(p.Role, c, o.now())
	o.notify(s, other, readyEvents[p.Role], echo)
	return Reply{Data: echo}, nil
}

// handleHeartbeat refreshes liveness. Its ack is a plain bool; failures read as false.
func (o *Orchestrator) handleHeartbeat(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error) {
	p := c.Peer()
	req, err := decode[protocol.HeartbeatRequest](data)
	if err != nil || req.RoomID != p.Room {
		return Reply{Data: false}, nil
	}
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{Data: false}, nil
	}
	if err := s.Touch(p.Role, c, o.now()); err != nil {
		return Reply{Data: false}, nil
	}
	o.touchStore(ctx, s)
	return Reply{Data: true}, nil
}

// handleSend relays the payload to the receiver. The sender learns the usage it
// will reach once the exchange settles; nothing is committed here.
func (o *Orchestrator) handleSend(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error) {
	p := c.Peer()
	ack := protocol.SendAck{Used: -1}

	text, err := decode[string](data)
	if err != nil {
		return Reply{Data: ack}, err
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Data: ack}, domain.ErrBadPayload
	}
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{Data: ack}, err
	}
	if !s.Holds(domain.RoleSender, c) {
		return Reply{Data: ack}, domain.ErrRoleMismatch
	}

	chk, err := o.Permits.ValidateID(ctx, s.PermitID())
	ack.Total = chk.Total
	if err != nil {
		return Reply{Data: ack}, err
	}

	receiver, err := s.BeginSend(c, text, o.now())
	if err != nil {
		return Reply{Data: ack}, err
	}
	o.touchStore(ctx, s)
	if receiver == nil {
		return Reply{Data: ack}, fmt.Errorf("room %s has no receiver: %w", s.ID(), domain.ErrNotAcknowledged)
	}

	next := chk.Used + 1
	relay := protocol.Delivery{Payload: text, Used: next, Total: chk.Total}
	if _, err := o.Emitter.Emit(ctx, receiver, protocol.EventAdminSend, relay, receiver.Close); err != nil {
		return Reply{Data: ack}, fmt.Errorf("relay to %s: %w: %w", receiver.ID(), domain.ErrNotAcknowledged, err)
	}
	s.MarkDelivered(text)

	log.Info().
		Str("module", "orch").
		Stringer("room", s.ID()).
		Int("used", next).
		Int("total", chk.Total).
		Int("bytes", len(text)).
		Msg("payload delivered")
	return Reply{Data: protocol.SendAck{Used: next, Total: chk.Total}}, nil
}

func (o *Orchestrator) handleReceiverSuccess(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error) {
	success, err := decode[bool](data)
	if err != nil {
		return Reply{Data: protocol.SettleAck{}}, err
	}
	return o.settle(ctx, c, success, protocol.EventReceiverSuccess)
}

func (o *Orchestrator) handleSenderSuccess(ctx context.Context, c core.PeerConnection, _ json.RawMessage) (Reply, error) {
	return o.settle(ctx, c, true, protocol.EventSenderSuccess)
}

// settle closes the exchange. Success commits one use through the store's
// conditional increment; only one settlement per epoch reaches the store.
// Failure only tells the other side, leaving the epoch open for a retry.
func (o *Orchestrator) settle(ctx context.Context, c core.PeerConnection, success bool, event string) (Reply, error) {
	p := c.Peer()
	ack := protocol.SettleAck{}
	s, err := o.session(ctx, p.Room, 0, false)
	if err != nil {
		return Reply{Data: ack}, err
	}
	if !s.Holds(p.Role, c) {
		return Reply{Data: ack}, domain.ErrRoleMismatch
	}
	other := s.Conn(p.Role.Other())

	if !success {
		if permit, err := o.Store.FindPermit(ctx, s.PermitID()); err == nil {
			ack.Used = permit.Used
		}
		o.notify(s, other, event, protocol.SettleNotice{Used: ack.Used, Success: false})
		return Reply{Data: ack}, nil
	}

	prev, won := s.ClaimSettlement()
	if !won {
		permit, err := o.Store.FindPermit(ctx, s.PermitID())
		if err != nil {
			return Reply{Data: ack}, fmt.Errorf("load permit: %w", err)
		}
		ack.Used = permit.Used
		return Reply{Data: ack}, nil
	}

	used, committed, err := o.Store.CommitUsage(ctx, s.PermitID())
	if err != nil {
		s.RestoreArm(prev)
		return Reply{Data: ack}, fmt.Errorf("commit usage: %w", err)
	}
	ack.Used, ack.Committed = used, committed
	o.touchStore(ctx, s)
	o.notify(s, other, event, protocol.SettleNotice{Used: used, Success: true})
	o.scheduleTeardown(s)

	log.Info().
		Str("module", "orch").
		Stringer("room", s.ID()).
		Str("by", string(p.Role)).
		Int("used", used).
		Bool("committed", committed).
		Msg("exchange settled")
	return Reply{Data: ack}, nil
}

// scheduleTeardown drops both peers after the settle grace so their UIs can show
// the result, then removes the room unless a new epoch was armed meanwhile.
func (o *Orchestrator) scheduleTeardown(s *core.RoomSession) {
	sender, receiver := s.Connections()
	o.tasks.After(o.Timing.SettleGrace, func() {
		for _, c := range []core.PeerConnection{sender, receiver} {
			if c != nil {
				c.Close()
			}
		}
		if _, rearmed := s.ArmedAt(); rearmed {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.teardown(ctx, s)
	})
}
