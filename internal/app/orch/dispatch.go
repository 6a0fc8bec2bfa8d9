package orch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Reply is the outcome of one inbound event. Data becomes the ack; After runs
// once the ack has been queued.
type Reply struct {
	Data  any
	After func()
}

type handler func(ctx context.Context, c core.PeerConnection, data json.RawMessage) (Reply, error)

type route struct {
	role   domain.Role // empty accepts both sides
	handle handler
}

func (o *Orchestrator) buildRoutes() map[string]route {
	return map[string]route{
		protocol.EventSenderJoin:      {domain.RoleSender, o.handleSenderJoin},
		protocol.EventReceiverJoin:    {domain.RoleReceiver, o.handleReceiverJoin},
		protocol.EventAdminReady:      {domain.RoleSender, o.handleReady},
		protocol.EventUserReady:       {domain.RoleReceiver, o.handleReady},
		protocol.EventAdminSend:       {domain.RoleSender, o.handleSend},
		protocol.EventReceiverSuccess: {domain.RoleReceiver, o.handleReceiverSuccess},
		protocol.EventSenderSuccess:   {domain.RoleSender, o.handleSenderSuccess},
		protocol.EventHeartbeat:       {"", o.handleHeartbeat},
		protocol.EventAdminLeft:       {domain.RoleSender, o.handleSenderLeft},
		protocol.EventUserLeft:        {domain.RoleReceiver, o.handleReceiverLeft},
	}
}

// Dispatch routes one inbound event to its handler and shapes the ack.
// Failures never escape as errors; they are carried in the ack.
func (o *Orchestrator) Dispatch(ctx context.Context, c core.PeerConnection, event string, data json.RawMessage) Reply {
	r, ok := o.routes[event]
	if !ok {
		return Reply{Data: protocol.ErrorAck{Error: domain.CodeBadPayload}}
	}
	p := c.Peer()
	if p == nil || (r.role != "" && p.Role != r.role) {
		return Reply{Data: protocol.ErrorAck{Error: domain.CodeRoleMismatch}}
	}

	reply, err := r.handle(ctx, c, data)
	if err == nil {
		return reply
	}

	code := domain.Code(err)
	ev := log.Info()
	if code == domain.CodeInternal {
		ev = log.Error()
	}
	ev.Str("module", "orch").
		Str("event", event).
		Str("conn", string(c.ID())).
		Stringer("room", p.Room).
		Str("code", code).
		Err(err).
		Msg("event rejected")

	if f, ok := reply.Data.(protocol.Failer); ok {
		reply.Data = f.Fail(code)
	} else {
		reply.Data = protocol.ErrorAck{Error: code}
	}
	return reply
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, domain.ErrBadPayload
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(domain.ErrBadPayload, err)
	}
	return v, nil
}
