package delivery

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/rs/zerolog/log"
)

// Emitter sends events that must be acknowledged by the peer.
type Emitter struct {
	Policy Policy
}

func NewEmitter(p Policy) *Emitter { return &Emitter{Policy: p} }

// Emit delivers event to target under the emitter's policy.
func (e *Emitter) Emit(ctx context.Context, target core.PeerConnection, event string, data any, onExhausted func()) (json.RawMessage, error) {
	return e.EmitWith(ctx, e.Policy, target, event, data, onExhausted)
}

// EmitWith is Emit with an explicit policy. Each attempt is a new request, so the
// peer sees a fresh event id. onExhausted runs once when every attempt failed.
func (e *Emitter) EmitWith(ctx context.Context, p Policy, target core.PeerConnection, event string, data any, onExhausted func()) (json.RawMessage, error) {
	ack, err := Retry(ctx, p, func(actx context.Context) (json.RawMessage, error) {
		return target.Request(actx, event, data)
	})
	if err != nil {
		log.Warn().
			Str("module", "delivery").
			Str("event", event).
			Str("conn", string(target.ID())).
			Int("attempts", p.attempts()).
			Err(err).
			Msg("delivery failed")
		if onExhausted != nil {
			onExhausted()
		}
		return nil, err
	}
	return ack, nil
}
