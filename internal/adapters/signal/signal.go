package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Handoff/internal/app/orch"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options tune every signal connection.
type Options struct {
	SendBuffer int
	ReadLimit  int64
	PingPeriod time.Duration
	EventRate  rate.Limit
	EventBurst int
}

func DefaultOptions() Options {
	return Options{
		SendBuffer: 32,
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
		EventRate:  20,
		EventBurst: 40,
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *HandshakeLimiter
	opts    Options
}

func NewSignalWSController(o *orch.Orchestrator, limiter *HandshakeLimiter, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultOptions().PingPeriod
	}
	if opts.EventRate <= 0 {
		opts.EventRate, opts.EventBurst = DefaultOptions().EventRate, DefaultOptions().EventBurst
	}
	return &SignalWSController{Orch: o, Limiter: limiter, opts: opts}
}

// WsSignalConn is one peer's websocket. It implements core.PeerConnection.
type WsSignalConn struct {
	id      domain.ConnID
	peer    *domain.Peer
	conn    *websocket.Conn
	send    chan []byte
	inbox   chan protocol.Frame
	limiter *rate.Limiter
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	nextID  atomic.Uint64
	ackMu   sync.Mutex
	pending map[uint64]chan json.RawMessage
}

func newWsSignalConn(ws *websocket.Conn, peer *domain.Peer, opts Options) *WsSignalConn {
	return &WsSignalConn{
		id:      peer.ConnID,
		peer:    peer,
		conn:    ws,
		send:    make(chan []byte, opts.SendBuffer),
		inbox:   make(chan protocol.Frame, 16),
		limiter: rate.NewLimiter(opts.EventRate, opts.EventBurst),
		done:    make(chan struct{}),
		pending: make(map[uint64]chan json.RawMessage),
	}
}

func (c *WsSignalConn) ID() domain.ConnID  { return c.id }
func (c *WsSignalConn) Peer() *domain.Peer { return c.peer }

func (c *WsSignalConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrConnectionClosed
	}
	select {
	case c.send <- b:
	default:
		return domain.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Notify(event string, data any) error {
	b, err := protocol.EncodeEvent(0, event, data)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

// Request sends event with a fresh id and waits for the matching ack.
func (c *WsSignalConn) Request(ctx context.Context, event string, data any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	b, err := protocol.EncodeEvent(id, event, data)
	if err != nil {
		return nil, err
	}

	ch := make(chan json.RawMessage, 1)
	c.ackMu.Lock()
	c.pending[id] = ch
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.pending, id)
		c.ackMu.Unlock()
	}()

	if err := c.TrySend(b); err != nil {
		return nil, err
	}
	select {
	case ack := <-ch:
		return ack, nil
	case <-c.done:
		return nil, domain.ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *WsSignalConn) resolve(id uint64, data json.RawMessage) bool {
	c.ackMu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.ackMu.Unlock()
	if ok {
		ch <- data
	}
	return ok
}

// Close stops accepting frames. The write pump flushes what is queued and then
// closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
	c.mu.Unlock()
}

func (c *WsSignalConn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	peer, status, reason := ctl.authorize(c)
	if peer == nil {
		log.Info().Str("module", "signal").Str("ip", c.ClientIP()).Int("status", status).Str("reason", reason).Msg("handshake rejected")
		c.AbortWithStatusJSON(status, gin.H{"error": reason})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	peer.ConnID = domain.ConnID(uuid.NewString())
	peer.ClientToken = c.GetString("client_token")
	peer.RemoteAddr = c.ClientIP()
	conn := newWsSignalConn(ws, peer, ctl.opts)

	log.Info().
		Str("module", "signal").
		Str("conn", string(conn.id)).
		Str("role", string(peer.Role)).
		Stringer("room", peer.Room).
		Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.dispatchPump(ctx, conn)
	go ctl.readPump(ctx, conn)
}
