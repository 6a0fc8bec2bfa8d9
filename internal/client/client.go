// Package client is a Go peer for the signal endpoint, used by the CLI and tests.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const receiverToken = "receiver"

// HandshakeError is returned when the server refuses the websocket upgrade.
type HandshakeError struct {
	StatusCode int
	Reason     string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected: %d %s", e.StatusCode, e.Reason)
}

// RemoteError carries the error code of a failed acknowledgement.
type RemoteError struct {
	Event string
	Code  string
}

func (e *RemoteError) Error() string { return e.Event + ": " + e.Code }

// Event is a server event seen by the client.
type Event struct {
	Name string
	Data json.RawMessage
}

type Config struct {
	// URL of the signal endpoint, e.g. ws://host:8080/api/ws/signal.
	URL    string
	Token  string
	RoomID domain.RoomID
	Header http.Header
}

// Client implements core.PeerConnection from the peer's side, so the reliable
// emitter can drive it.
type Client struct {
	id   domain.ConnID
	role domain.Role
	room domain.RoomID
	ws   *websocket.Conn

	writeMu sync.Mutex
	nextID  atomic.Uint64
	ackMu   sync.Mutex
	pending map[uint64]chan json.RawMessage

	ready  atomic.Bool
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Dial opens the signal connection. A token equal to "receiver" joins as receiver
// of cfg.RoomID; any other token is a permit code.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("token", cfg.Token)
	if cfg.RoomID != 0 {
		q.Set("roomId", strconv.FormatInt(int64(cfg.RoomID), 10))
	}
	u.RawQuery = q.Encode()

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, handshakeError(resp)
		}
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	role := domain.RoleSender
	if cfg.Token == receiverToken {
		role = domain.RoleReceiver
	}
	c := &Client{
		id:      domain.ConnID(uuid.NewString()),
		role:    role,
		room:    cfg.RoomID,
		ws:      ws,
		pending: make(map[uint64]chan json.RawMessage),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func handshakeError(resp *http.Response) error {
	defer resp.Body.Close()
	var body struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(b, &body)
	return &HandshakeError{StatusCode: resp.StatusCode, Reason: body.Error}
}

func (c *Client) ID() domain.ConnID { return c.id }

// Peer describes the local side; the connection id is client-local.
func (c *Client) Peer() *domain.Peer { return domain.NewPeer(c.id, c.role, c.room) }

func (c *Client) Role() domain.Role { return c.role }

// Events yields every server event in arrival order. Closed with the connection.
func (c *Client) Events() <-chan Event { return c.events }

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Notify(event string, data any) error {
	b, err := protocol.EncodeEvent(0, event, data)
	if err != nil {
		return err
	}
	return c.write(b)
}

func (c *Client) Request(ctx context.Context, event string, data any) (json.RawMessage, error) {
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

	if err := c.write(b); err != nil {
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

func (c *Client) Close() {
	c.once.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) write(b []byte) error {
	if c.Closed() {
		return domain.ErrConnectionClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectionClosed, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.events)
		_ = c.ws.Close()
	}()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		f, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("bad frame")
			continue
		}
		switch f.Kind {
		case protocol.KindAck:
			c.ackMu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.ackMu.Unlock()
			if ok {
				ch <- f.Data
			}
		case protocol.KindEvent:
			c.answer(f)
			select {
			case c.events <- Event{Name: f.Event, Data: f.Data}:
			default:
				log.Warn().Str("module", "client").Str("event", f.Event).Msg("event dropped")
			}
		}
	}
}

// answer acks server requests: status reports readiness, anything else is accepted.
func (c *Client) answer(f protocol.Frame) {
	if f.ID == 0 {
		return
	}
	var data any = true
	if f.Event == protocol.EventStatus {
		data = protocol.StatusReply{Ready: c.ready.Load()}
	}
	b, err := protocol.EncodeAck(f.ID, data)
	if err != nil {
		return
	}
	if err := c.write(b); err != nil {
		log.Debug().Err(err).Str("module", "client").Str("event", f.Event).Msg("ack not sent")
	}
}

// call sends event and decodes its ack into T. An ack with an error code becomes
// a *RemoteError alongside the decoded value.
func call[T any](ctx context.Context, c *Client, event string, data any) (T, error) {
	var out T
	raw, err := c.Request(ctx, event, data)
	if err != nil {
		return out, err
	}
	var fail protocol.ErrorAck
	if json.Unmarshal(raw, &fail) == nil && fail.Error != "" {
		_ = json.Unmarshal(raw, &out)
		return out, &RemoteError{Event: event, Code: fail.Error}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s ack: %w", event, err)
	}
	return out, nil
}

// IsCode reports whether err is a RemoteError with code.
func IsCode(err error, code string) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == code
}
