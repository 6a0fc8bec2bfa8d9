package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump resolves acks inline and hands events to the dispatch pump, so a
// handler waiting on another ack never stalls this loop.
func (ctl *SignalWSController) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		c.Close()
		close(c.inbox)
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		f, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad json")
			continue
		}
		switch f.Kind {
		case protocol.KindAck:
			if !c.resolve(f.ID, f.Data) {
				log.Debug().Str("module", "signal").Str("conn", string(c.id)).Uint64("id", f.ID).Msg("late ack")
			}
		case protocol.KindEvent:
			ctl.enqueue(c, f)
		default:
			log.Warn().Str("module", "signal").Str("kind", string(f.Kind)).Msg("unknown frame")
		}
	}
}

func (ctl *SignalWSController) enqueue(c *WsSignalConn, f protocol.Frame) {
	if !c.limiter.Allow() {
		ctl.reject(c, f, domain.CodeRateLimited)
		return
	}
	select {
	case c.inbox <- f:
	default:
		ctl.reject(c, f, domain.CodeRateLimited)
	}
}

// dispatchPump runs events one at a time in arrival order, writes each ack, and
// reports the disconnect once the read side is gone.
func (ctl *SignalWSController) dispatchPump(ctx context.Context, c *WsSignalConn) {
	defer ctl.Orch.OnDisconnect(c)

	for f := range c.inbox {
		if c.Closed() {
			continue
		}
		if ctl.handleControl(c, f) {
			continue
		}
		reply := ctl.Orch.Dispatch(ctx, c, f.Event, f.Data)
		ctl.ack(c, f.ID, reply.Data)
		if reply.After != nil {
			reply.After()
		}
	}
}

func (ctl *SignalWSController) ack(c *WsSignalConn, id uint64, data any) {
	if id == 0 {
		return
	}
	b, err := protocol.EncodeAck(id, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ack marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		if errors.Is(err, domain.ErrBackpressure) {
			log.Warn().Str("module", "signal").Str("conn", string(c.id)).Msg("ack dropped, closing slow peer")
			c.Close()
		}
	}
}

func (ctl *SignalWSController) reject(c *WsSignalConn, f protocol.Frame, code string) {
	log.Info().Str("module", "signal").Str("conn", string(c.id)).Str("event", f.Event).Str("code", code).Msg("event dropped")
	ctl.ack(c, f.ID, protocol.ErrorAck{Error: code})
}
