package signal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newTestConn(buffer int) *WsSignalConn {
	opts := DefaultOptions()
	opts.SendBuffer = buffer
	return newWsSignalConn(nil, domain.NewPeer("c1", domain.RoleSender, 42), opts)
}

func TestHandshakeLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClock()
	rl := NewHandshakeLimiter(2, time.Minute, clock)

	// Given two attempts inside the window
	req.True(rl.Allow("10.0.0.1"))
	clock.Advance(10 * time.Second)
	req.True(rl.Allow("10.0.0.1"))

	// Then a third is refused while other keys are unaffected
	req.False(rl.Allow("10.0.0.1"))
	req.True(rl.Allow("10.0.0.2"))

	// When the first attempt leaves the window
	clock.Advance(51 * time.Second)
	req.True(rl.Allow("10.0.0.1"))
	req.False(rl.Allow("10.0.0.1"))

	// Then keys idle for a full window are pruned
	clock.Advance(2 * time.Minute)
	req.Equal(2, rl.Prune())
}

func TestHandshakeLimiter_DisabledWhenNilOrZero(t *testing.T) {
	var rl *HandshakeLimiter
	require.True(t, rl.Allow("x"))
	require.True(t, NewHandshakeLimiter(0, time.Minute, nil).Allow("x"))
}

func TestWsSignalConn_BackpressureAndClose(t *testing.T) {
	req := require.New(t)
	c := newTestConn(1)

	req.NoError(c.Notify(protocol.EventUserReady, true))
	req.ErrorIs(c.Notify(protocol.EventUserReady, true), domain.ErrBackpressure)

	c.Close()
	c.Close()
	req.True(c.Closed())
	req.ErrorIs(c.Notify(protocol.EventUserReady, true), domain.ErrConnectionClosed)
	_, err := c.Request(context.Background(), protocol.EventStatus, nil)
	req.ErrorIs(err, domain.ErrConnectionClosed)
}

func TestWsSignalConn_RequestResolvesByID(t *testing.T) {
	req := require.New(t)
	c := newTestConn(4)

	// Given a peer that acks whatever it receives
	go func() {
		b := <-c.send
		f, err := protocol.Decode(b)
		if err != nil {
			return
		}
		c.resolve(f.ID+100, json.RawMessage(`"stray"`))
		c.resolve(f.ID, json.RawMessage(`{"ready":true}`))
	}()

	// When requesting status
	ack, err := c.Request(context.Background(), protocol.EventStatus, nil)

	// Then only the matching ack answers it
	req.NoError(err)
	req.JSONEq(`{"ready":true}`, string(ack))
	req.Empty(c.pending)
}

func TestWsSignalConn_RequestTimesOut(t *testing.T) {
	c := newTestConn(4)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Request(ctx, protocol.EventStatus, nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, c.resolve(1, json.RawMessage(`true`)))
}
