package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	id     domain.ConnID
	closed bool
}

func (c *stubConn) ID() domain.ConnID                 { return c.id }
func (c *stubConn) Peer() *domain.Peer                { return nil }
func (c *stubConn) Notify(string, any) error          { return nil }
func (c *stubConn) Close()                            { c.closed = true }
func (c *stubConn) Closed() bool                      { return c.closed }
func (c *stubConn) Request(context.Context, string, any) (json.RawMessage, error) {
	return nil, nil
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newSession() *RoomSession {
	return NewRoomSession(42, 42, t0, time.Minute)
}

func TestJoin_SenderArmsRoomAndReturnsPeer(t *testing.T) {
	req := require.New(t)
	s := newSession()
	recv := &stubConn{id: "r1"}
	send := &stubConn{id: "s1"}

	// Given a receiver waiting in the room
	other, err := s.Join(domain.RoleReceiver, recv, t0)
	req.NoError(err)
	req.Nil(other)
	req.Equal(domain.StateWaitingForPeer, s.State())

	// When the sender joins
	other, err = s.Join(domain.RoleSender, send, t0.Add(time.Second))

	// Then the receiver is returned for notification and the room is armed
	req.NoError(err)
	req.Equal(recv, other)
	at, armed := s.ArmedAt()
	req.True(armed)
	req.Equal(t0.Add(time.Second), at)
	req.Equal(domain.StateBothPresent, s.State())
}

func TestJoin_RejectsSecondLiveHolder(t *testing.T) {
	req := require.New(t)
	s := newSession()
	first := &stubConn{id: "s1"}
	_, err := s.Join(domain.RoleSender, first, t0)
	req.NoError(err)

	_, err = s.Join(domain.RoleSender, &stubConn{id: "s2"}, t0)
	req.ErrorIs(err, domain.ErrRoleOccupied)
	req.True(s.Holds(domain.RoleSender, first))

	// A closed holder is replaceable.
	first.closed = true
	_, err = s.Join(domain.RoleSender, &stubConn{id: "s2"}, t0)
	req.NoError(err)
}

func TestJoin_SameConnectionRejoinResetsReady(t *testing.T) {
	req := require.New(t)
	s := newSession()
	c := &stubConn{id: "r1"}
	_, _ = s.Join(domain.RoleReceiver, c, t0)
	_, _, err := s.SetReady(domain.RoleReceiver, c, true)
	req.NoError(err)
	req.True(s.Ready(domain.RoleReceiver))

	_, err = s.Join(domain.RoleReceiver, c, t0)
	req.NoError(err)
	req.False(s.Ready(domain.RoleReceiver))
}

func TestLeave_NeverClearsAnotherHolder(t *testing.T) {
	req := require.New(t)
	s := newSession()
	holder := &stubConn{id: "r1"}
	_, _ = s.Join(domain.RoleReceiver, holder, t0)

	_, ok := s.Leave(domain.RoleReceiver, &stubConn{id: "r0"})
	req.False(ok)
	req.Equal(holder, s.Conn(domain.RoleReceiver))

	_, ok = s.Leave(domain.RoleReceiver, holder)
	req.True(ok)
	req.Nil(s.Conn(domain.RoleReceiver))
	req.True(s.Vacant())
}

func TestSetReady_RoleMismatch(t *testing.T) {
	s := newSession()
	_, _ = s.Join(domain.RoleSender, &stubConn{id: "s1"}, t0)

	_, _, err := s.SetReady(domain.RoleSender, &stubConn{id: "x"}, true)
	require.ErrorIs(t, err, domain.ErrRoleMismatch)
}

func TestClaimSettlement_OnlyOneWinner(t *testing.T) {
	req := require.New(t)
	s := newSession()
	send := &stubConn{id: "s1"}
	_, _ = s.Join(domain.RoleSender, send, t0)
	_, _ = s.Join(domain.RoleReceiver, &stubConn{id: "r1"}, t0)
	_, err := s.BeginSend(send, "https://example.com", t0)
	req.NoError(err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.ClaimSettlement(); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	req.Equal(1, wins)
	_, armed := s.ArmedAt()
	req.False(armed)
	req.Equal(domain.StateSettled, s.State())
	_, ok, _ := s.Replay(t0, time.Minute)
	req.False(ok)
}

func TestRestoreArm_ReopensEpoch(t *testing.T) {
	req := require.New(t)
	s := newSession()
	_, _ = s.Join(domain.RoleSender, &stubConn{id: "s1"}, t0)

	prev, ok := s.ClaimSettlement()
	req.True(ok)
	s.RestoreArm(prev)

	at, armed := s.ArmedAt()
	req.True(armed)
	req.Equal(t0, at)
	_, ok = s.ClaimSettlement()
	req.True(ok)
}

func TestReplay_WithinAndOutsideWindow(t *testing.T) {
	req := require.New(t)
	s := newSession()
	send := &stubConn{id: "s1"}
	_, _ = s.Join(domain.RoleSender, send, t0)
	recv, err := s.BeginSend(send, "secret", t0)
	req.NoError(err)
	req.Nil(recv)

	text, ok, expired := s.Replay(t0.Add(30*time.Second), time.Minute)
	req.True(ok)
	req.False(expired)
	req.Equal("secret", text)

	_, ok, expired = s.Replay(t0.Add(2*time.Minute), time.Minute)
	req.False(ok)
	req.True(expired)
}

func TestIsOnline_RequiresConnectionAndRecentActivity(t *testing.T) {
	req := require.New(t)
	s := newSession()
	c := &stubConn{id: "r1"}

	req.False(s.IsOnline(domain.RoleReceiver, t0))

	_, _ = s.Join(domain.RoleReceiver, c, t0)
	req.True(s.IsOnline(domain.RoleReceiver, t0.Add(59*time.Second)))
	req.False(s.IsOnline(domain.RoleReceiver, t0.Add(61*time.Second)))

	req.NoError(s.Touch(domain.RoleReceiver, c, t0.Add(61*time.Second)))
	req.True(s.IsRoomOnline(t0.Add(90 * time.Second)))
}

func TestReclaimable_SkipsArmedRooms(t *testing.T) {
	req := require.New(t)
	s := newSession()
	later := t0.Add(5 * time.Minute)

	req.True(s.Reclaimable(later))

	send := &stubConn{id: "s1"}
	_, _ = s.Join(domain.RoleSender, send, t0)
	_, _ = s.Leave(domain.RoleSender, send)
	req.False(s.Reclaimable(later))
	req.True(s.Expired(t0.Add(31*time.Minute), 30*time.Minute))
}

func TestClose_CondemnsSession(t *testing.T) {
	req := require.New(t)
	s := newSession()

	req.True(s.Close())
	req.False(s.Close())

	_, err := s.Join(domain.RoleReceiver, &stubConn{id: "r1"}, t0)
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestRestoreRoomSession_KeepsArmTime(t *testing.T) {
	req := require.New(t)
	armed := t0.Add(-time.Minute)
	rec := domain.RoomRecord{ID: 7, PermitID: 7, CreatedAt: t0.Add(-time.Hour), ArmedAt: &armed}

	s := RestoreRoomSession(rec, t0, time.Minute)

	at, ok := s.ArmedAt()
	req.True(ok)
	req.Equal(armed, at)
	req.Equal(rec, s.Snapshot())
	req.Equal(domain.RoomID(7), s.Record(t0).ID)
	req.NotNil(s.Record(t0).ArmedAt)
}

func TestExpireAndReclaim_CondemnOnce(t *testing.T) {
	req := require.New(t)
	armed := newSession()
	_, _ = armed.Join(domain.RoleSender, &stubConn{id: "s1"}, t0)

	req.False(armed.Expire(t0.Add(29*time.Minute), 30*time.Minute))
	req.True(armed.Expire(t0.Add(31*time.Minute), 30*time.Minute))
	req.False(armed.Expire(t0.Add(31*time.Minute), 30*time.Minute))
	req.True(armed.Closed())

	idle := newSession()
	req.False(idle.Reclaim(t0.Add(30 * time.Second)))
	req.True(idle.Reclaim(t0.Add(2 * time.Minute)))
	req.False(idle.Reclaim(t0.Add(2 * time.Minute)))
}
