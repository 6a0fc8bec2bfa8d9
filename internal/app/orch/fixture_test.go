package orch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Handoff/internal/adapters/store"
	"github.com/dkeye/Handoff/internal/app"
	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type notice struct {
	event string
	data  any
}

type fakeConn struct {
	id   domain.ConnID
	peer *domain.Peer

	// reply answers server requests; nil acks status with ready and everything else with true.
	reply   func(ctx context.Context, event string, data any) (json.RawMessage, error)
	ready   atomic.Bool
	full    atomic.Bool
	onClose func()

	mu       sync.Mutex
	notices  []notice
	requests []notice
	closed   atomic.Bool
}

func (c *fakeConn) ID() domain.ConnID  { return c.id }
func (c *fakeConn) Peer() *domain.Peer { return c.peer }

func (c *fakeConn) Notify(event string, data any) error {
	if c.closed.Load() {
		return domain.ErrConnectionClosed
	}
	if c.full.Load() {
		return domain.ErrBackpressure
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice{event, data})
	return nil
}

func (c *fakeConn) Request(ctx context.Context, event string, data any) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, domain.ErrConnectionClosed
	}
	c.mu.Lock()
	c.requests = append(c.requests, notice{event, data})
	c.mu.Unlock()
	if c.reply != nil {
		return c.reply(ctx, event, data)
	}
	if event == "status" {
		return json.Marshal(map[string]bool{"ready": c.ready.Load()})
	}
	return json.RawMessage(`true`), nil
}

func (c *fakeConn) Close() {
	if c.closed.CompareAndSwap(false, true) && c.onClose != nil {
		c.onClose()
	}
}

func (c *fakeConn) Closed() bool { return c.closed.Load() }

func (c *fakeConn) noticed(event string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, n := range c.notices {
		if n.event == event {
			out = append(out, n.data)
		}
	}
	return out
}

func (c *fakeConn) requested(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.requests {
		if r.event == event {
			n++
		}
	}
	return n
}

type fixture struct {
	t      *testing.T
	o      *Orchestrator
	store  *store.Memory
	clock  *clockwork.FakeClock
	permit domain.Permit
	room   domain.RoomID
}

func newFixture(t *testing.T, used, total int) *fixture {
	t.Helper()
	st := store.NewMemory()
	p, err := st.SavePermit(context.Background(), domain.Permit{ID: 42, Code: "ROOM42", Used: used, Total: total})
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(t0)
	timing := DefaultTiming()
	timing.ProbeTimeout = 50 * time.Millisecond
	emitter := delivery.NewEmitter(delivery.Policy{Attempts: 2, Timeout: 100 * time.Millisecond})

	o := New(app.NewRegistry(), st, emitter, clock, timing)
	t.Cleanup(o.Shutdown)
	return &fixture{t: t, o: o, store: st, clock: clock, permit: p, room: domain.PermitRoom(p.ID)}
}

func (f *fixture) conn(id domain.ConnID, role domain.Role) *fakeConn {
	p := domain.NewPeer(id, role, f.room)
	if role == domain.RoleSender {
		p.Permit = f.permit.ID
	}
	c := &fakeConn{id: id, peer: p}
	c.onClose = func() { f.o.OnDisconnect(c) }
	return c
}

func (f *fixture) do(c *fakeConn, event string, data any) Reply {
	f.t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(f.t, err)
		raw = b
	}
	return f.o.Dispatch(context.Background(), c, event, raw)
}

func (f *fixture) used() int {
	f.t.Helper()
	p, err := f.store.FindPermit(context.Background(), f.permit.ID)
	require.NoError(f.t, err)
	return p.Used
}

// hookedStore runs onDelete before a room record is deleted.
type hookedStore struct {
	*store.Memory
	onDelete func()
}

func (s *hookedStore) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	if s.onDelete != nil {
		s.onDelete()
	}
	return s.Memory.DeleteRoom(ctx, id)
}
