package client

import (
	"context"
	"time"

	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
)

// HeartbeatPolicy is one retry with a three second timeout per attempt.
var HeartbeatPolicy = delivery.Policy{Attempts: 2, Timeout: 3 * time.Second}

func (c *Client) SenderJoin(ctx context.Context) (protocol.SenderJoinAck, error) {
	ack, err := call[protocol.SenderJoinAck](ctx, c, protocol.EventSenderJoin, nil)
	if err == nil {
		c.room = ack.RoomID
	}
	return ack, err
}

func (c *Client) ReceiverJoin(ctx context.Context) (protocol.ReceiverJoinAck, error) {
	return call[protocol.ReceiverJoinAck](ctx, c, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: c.room})
}

// Ready announces readiness to the other side. Status probes answer with the
// same value from then on.
func (c *Client) Ready(ctx context.Context, ready bool) (bool, error) {
	event := protocol.EventUserReady
	if c.role == domain.RoleSender {
		event = protocol.EventAdminReady
	}
	c.ready.Store(ready)
	return call[bool](ctx, c, event, ready)
}

func (c *Client) Send(ctx context.Context, payload string) (protocol.SendAck, error) {
	return call[protocol.SendAck](ctx, c, protocol.EventAdminSend, payload)
}

// Settle reports the outcome of the exchange. Senders always report success.
func (c *Client) Settle(ctx context.Context, success bool) (protocol.SettleAck, error) {
	if c.role == domain.RoleSender {
		return call[protocol.SettleAck](ctx, c, protocol.EventSenderSuccess, nil)
	}
	return call[protocol.SettleAck](ctx, c, protocol.EventReceiverSuccess, success)
}

func (c *Client) Leave(ctx context.Context) error {
	event := protocol.EventUserLeft
	if c.role == domain.RoleSender {
		event = protocol.EventAdminLeft
	}
	_, err := call[protocol.Empty](ctx, c, event, nil)
	return err
}

func (c *Client) Heartbeat(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.EventHeartbeat, protocol.HeartbeatRequest{RoomID: c.room})
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := call[string](ctx, c, protocol.EventPing, nil)
	return err
}

// RunHeartbeat sends a heartbeat every interval through e, normally built with
// HeartbeatPolicy. It stops when ctx is done or when a heartbeat exhausts its
// retries, closing the connection.
func (c *Client) RunHeartbeat(ctx context.Context, interval time.Duration, e *delivery.Emitter) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return domain.ErrConnectionClosed
		case <-t.C:
			if _, err := e.Emit(ctx, c, protocol.EventHeartbeat,
				protocol.HeartbeatRequest{RoomID: c.room}, c.Close); err != nil {
				log.Warn().Err(err).Str("module", "client").Stringer("room", c.room).Msg("heartbeat lost")
				return err
			}
		}
	}
}
