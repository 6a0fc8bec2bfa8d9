package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/stretchr/testify/require"
)

func join(f *fixture, sender, receiver *fakeConn) {
	f.t.Helper()
	if sender != nil {
		ack := f.do(sender, protocol.EventSenderJoin, nil).Data.(protocol.SenderJoinAck)
		require.Empty(f.t, ack.Error)
	}
	if receiver != nil {
		ack := f.do(receiver, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: f.room}).Data.(protocol.ReceiverJoinAck)
		require.Empty(f.t, ack.Error)
	}
}

func TestExchange_FullRedemption(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)

	// Given a sender on permit 42 with 2 of 5 uses spent
	sjoin := f.do(sender, protocol.EventSenderJoin, nil).Data.(protocol.SenderJoinAck)
	req.Empty(sjoin.Error)
	req.Equal(domain.RoomID(42), sjoin.RoomID)
	req.Equal(2, sjoin.Used)
	req.Equal(5, sjoin.Total)
	req.Equal((30 * time.Minute).Milliseconds(), sjoin.RoomExpiryMs)
	req.False(sjoin.Online)

	// And a receiver that joins the room
	sender.ready.Store(true)
	rjoin := f.do(receiver, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: 42}).Data.(protocol.ReceiverJoinAck)
	req.Empty(rjoin.Error)
	req.True(rjoin.Online)
	req.True(rjoin.Ready)
	req.Equal(2, rjoin.Used)
	req.Len(sender.noticed(protocol.EventReceiverJoin), 1)

	// And both sides ready
	req.Equal(true, f.do(sender, protocol.EventAdminReady, true).Data)
	req.Equal(true, f.do(receiver, protocol.EventUserReady, true).Data)
	req.Equal([]any{true}, receiver.noticed(protocol.EventAdminReady))
	req.Equal([]any{true}, sender.noticed(protocol.EventUserReady))

	// When the sender sends
	send := f.do(sender, protocol.EventAdminSend, "hello").Data.(protocol.SendAck)

	// Then the ack carries the would-be usage without committing it
	req.Equal(protocol.SendAck{Used: 3, Total: 5}, send)
	req.Equal(1, receiver.requested(protocol.EventAdminSend))
	req.Equal(2, f.used())

	// When the receiver settles
	settle := f.do(receiver, protocol.EventReceiverSuccess, true).Data.(protocol.SettleAck)

	// Then usage is committed once and the sender hears about it
	req.Equal(protocol.SettleAck{Used: 3, Committed: true}, settle)
	req.Equal(3, f.used())
	req.Equal([]any{protocol.SettleNotice{Used: 3, Success: true}}, sender.noticed(protocol.EventReceiverSuccess))

	// And both peers are dropped after the grace period
	req.False(sender.Closed())
	f.clock.Advance(3 * time.Second)
	req.Eventually(func() bool { return sender.Closed() && receiver.Closed() }, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool { return !f.o.Registry.Contains(42) }, time.Second, 5*time.Millisecond)
	_, err := f.store.FindRoom(context.Background(), 42)
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestSend_ExhaustedPermitIsRejectedWithoutRelay(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 4, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)

	// Given the last use was spent elsewhere
	_, err := f.store.SavePermit(context.Background(), domain.Permit{ID: 42, Code: "ROOM42", Used: 5, Total: 5})
	req.NoError(err)

	ack := f.do(sender, protocol.EventAdminSend, "hello").Data.(protocol.SendAck)

	req.Equal(domain.CodePermitExhausted, ack.Error)
	req.Equal(-1, ack.Used)
	req.Equal(5, ack.Total)
	req.Zero(receiver.requested(protocol.EventAdminSend))
	req.Equal(5, f.used())
}

func TestSend_DisabledPermitIsInvalid(t *testing.T) {
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	join(f, sender, nil)
	require.NoError(t, f.store.DisablePermit(context.Background(), 42))

	ack := f.do(sender, protocol.EventAdminSend, "hello").Data.(protocol.SendAck)

	require.Equal(t, domain.CodePermitInvalid, ack.Error)
	require.Equal(t, -1, ack.Used)
}

func TestSend_WithoutReceiverIsNotAcknowledged(t *testing.T) {
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	join(f, sender, nil)

	ack := f.do(sender, protocol.EventAdminSend, "hello").Data.(protocol.SendAck)

	require.Equal(t, domain.CodeNotAcknowledged, ack.Error)
	require.Equal(t, 0, f.used())
}

func TestReceiverJoin_ConcurrentOnlyOneWins(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	join(f, f.conn("s1", domain.RoleSender), nil)

	conns := []*fakeConn{f.conn("r1", domain.RoleReceiver), f.conn("r2", domain.RoleReceiver)}
	acks := make([]protocol.ReceiverJoinAck, len(conns))
	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acks[i] = f.o.Dispatch(context.Background(), c, protocol.EventReceiverJoin, json.RawMessage(`{"roomId":42}`)).Data.(protocol.ReceiverJoinAck)
		}()
	}
	wg.Wait()

	codes := []string{acks[0].Error, acks[1].Error}
	req.ElementsMatch([]string{"", domain.CodeRoleOccupied}, codes)
}

func TestSettle_ConcurrentSuccessCommitsOnce(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)
	f.do(sender, protocol.EventAdminSend, "hello")

	var (
		wg   sync.WaitGroup
		acks [2]protocol.SettleAck
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		acks[0] = f.do(receiver, protocol.EventReceiverSuccess, true).Data.(protocol.SettleAck)
	}()
	go func() {
		defer wg.Done()
		acks[1] = f.do(sender, protocol.EventSenderSuccess, nil).Data.(protocol.SettleAck)
	}()
	wg.Wait()

	req.Equal(3, f.used())
	req.NotEqual(acks[0].Committed, acks[1].Committed)
}

func TestSettle_FailureLeavesEpochOpen(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)

	ack := f.do(receiver, protocol.EventReceiverSuccess, false).Data.(protocol.SettleAck)

	req.False(ack.Committed)
	req.Equal(2, f.used())
	req.Equal([]any{protocol.SettleNotice{Used: 2, Success: false}}, sender.noticed(protocol.EventReceiverSuccess))
	s, _ := f.o.Registry.Get(42)
	_, armed := s.ArmedAt()
	req.True(armed)

	ack = f.do(receiver, protocol.EventReceiverSuccess, true).Data.(protocol.SettleAck)
	req.True(ack.Committed)
	req.Equal(3, f.used())
}

func TestSettle_CommitFailureRestoresArm(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2, 5)
	sender := f.conn("s1", domain.RoleSender)
	join(f, sender, nil)
	s, _ := f.o.Registry.Get(42)

	f.o.Store = failingCommit{Store: f.o.Store}
	ack := f.do(sender, protocol.EventSenderSuccess, nil).Data.(protocol.SettleAck)

	req.Equal(domain.CodeInternal, ack.Error)
	_, armed := s.ArmedAt()
	req.True(armed)
}

func TestReceiverJoin_ReplaysUnsettledPayload(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	flaky := f.conn("r1", domain.RoleReceiver)
	flaky.reply = func(ctx context.Context, event string, _ any) (json.RawMessage, error) {
		if event == protocol.EventAdminSend {
			return nil, context.DeadlineExceeded
		}
		return json.RawMessage(`{"ready":false}`), nil
	}
	join(f, sender, flaky)

	// Given a relay that was never acknowledged
	ack := f.do(sender, protocol.EventAdminSend, "https://example.com/x").Data.(protocol.SendAck)
	req.Equal(domain.CodeNotAcknowledged, ack.Error)
	req.Equal(2, flaky.requested(protocol.EventAdminSend))
	req.True(flaky.Closed())
	req.Len(sender.noticed(protocol.EventUserLeft), 1)

	// When a receiver reconnects within the freshness window
	f.clock.Advance(30 * time.Second)
	back := f.conn("r2", domain.RoleReceiver)
	rejoin := f.do(back, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: 42}).Data.(protocol.ReceiverJoinAck)

	// Then the payload is replayed
	req.Empty(rejoin.Error)
	req.Equal("https://example.com/x", rejoin.Payload)
	req.False(rejoin.Expired)
}

func TestReceiverJoin_StalePayloadIsReportedExpired(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	join(f, sender, nil)
	f.do(sender, protocol.EventAdminSend, "hello")

	f.clock.Advance(61 * time.Second)
	rejoin := f.do(f.conn("r1", domain.RoleReceiver), protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: 42}).Data.(protocol.ReceiverJoinAck)

	req.Empty(rejoin.Payload)
	req.True(rejoin.Expired)
}

func TestProbe_TimeoutReportsOffline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	join(f, sender, nil)

	// Given a receiver that joined moments ago but never answers status
	silent := f.conn("r1", domain.RoleReceiver)
	silent.reply = func(ctx context.Context, event string, _ any) (json.RawMessage, error) {
		if event == protocol.EventStatus {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return json.RawMessage(`true`), nil
	}
	join(f, nil, silent)
	s, _ := f.o.Registry.Get(42)
	req.True(s.IsOnline(domain.RoleReceiver, f.clock.Now()))

	// When the sender rejoins on a new connection
	sender.Close()
	ack := f.do(f.conn("s2", domain.RoleSender), protocol.EventSenderJoin, nil).Data.(protocol.SenderJoinAck)

	// Then the receiver is reported offline
	req.Empty(ack.Error)
	req.False(ack.Online)
	req.False(ack.Ready)
}

func TestDispatch_RejectsForeignEvents(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)

	req.Equal(protocol.ErrorAck{Error: domain.CodeRoleMismatch}, f.do(receiver, protocol.EventAdminSend, "x").Data)
	req.Equal(protocol.ErrorAck{Error: domain.CodeRoleMismatch}, f.do(sender, protocol.EventUserReady, true).Data)
	req.Equal(protocol.ErrorAck{Error: domain.CodeBadPayload}, f.do(sender, "join-room", nil).Data)

	// A connection that no longer holds the slot is refused.
	stale := f.conn("s0", domain.RoleSender)
	req.Equal(protocol.ErrorAck{Error: domain.CodeRoleMismatch}, f.do(stale, protocol.EventAdminReady, true).Data)
}

func TestReceiverJoin_WrongRoomOrMissingRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	r := f.conn("r1", domain.RoleReceiver)

	ack := f.do(r, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: 42}).Data.(protocol.ReceiverJoinAck)
	req.Equal(domain.CodeRoomNotFound, ack.Error)

	join(f, f.conn("s1", domain.RoleSender), nil)
	ack = f.do(r, protocol.EventReceiverJoin, protocol.ReceiverJoinRequest{RoomID: 7}).Data.(protocol.ReceiverJoinAck)
	req.Equal(domain.CodeRoleMismatch, ack.Error)
}

func TestHeartbeat(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, f.conn("s1", domain.RoleSender), receiver)

	f.clock.Advance(50 * time.Second)
	req.Equal(true, f.do(receiver, protocol.EventHeartbeat, protocol.HeartbeatRequest{RoomID: 42}).Data)
	req.Equal(false, f.do(receiver, protocol.EventHeartbeat, protocol.HeartbeatRequest{RoomID: 9}).Data)
	req.Equal(false, f.do(f.conn("r9", domain.RoleReceiver), protocol.EventHeartbeat, protocol.HeartbeatRequest{RoomID: 42}).Data)

	s, _ := f.o.Registry.Get(42)
	req.True(s.IsOnline(domain.RoleReceiver, f.clock.Now().Add(30*time.Second)))
}

func TestLeave_SenderDefersDeletionToSweep(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)

	reply := f.do(sender, protocol.EventAdminLeft, nil)
	req.Equal(protocol.Empty{}, reply.Data)
	req.NotNil(reply.After)
	reply.After()

	req.True(sender.Closed())
	req.Len(receiver.noticed(protocol.EventAdminLeft), 1)
	_, err := f.store.FindRoom(context.Background(), 42)
	req.NoError(err)
	req.True(f.o.Registry.Contains(42))
}

func TestLeave_LastReceiverRemovesRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)
	sender.Close()

	req.Equal(protocol.Empty{}, f.do(receiver, protocol.EventUserLeft, nil).Data)

	req.False(f.o.Registry.Contains(42))
	_, err := f.store.FindRoom(context.Background(), 42)
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestDisconnect_ClearsOnlyOwnSlotAndNotifies(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)
	f.do(receiver, protocol.EventUserReady, true)

	receiver.Close()

	s, _ := f.o.Registry.Get(42)
	req.Nil(s.Conn(domain.RoleReceiver))
	req.False(s.Ready(domain.RoleReceiver))
	req.Equal(sender, s.Conn(domain.RoleSender))
	req.Len(sender.noticed(protocol.EventUserLeft), 1)
	_, armed := s.ArmedAt()
	req.True(armed)
}

func TestNotify_BackpressureKicksSlowPeer(t *testing.T) {
	f := newFixture(t, 0, 5)
	sender := f.conn("s1", domain.RoleSender)
	receiver := f.conn("r1", domain.RoleReceiver)
	join(f, sender, receiver)

	receiver.full.Store(true)
	f.do(sender, protocol.EventAdminReady, true)

	require.True(t, receiver.Closed())
	s, _ := f.o.Registry.Get(42)
	require.Nil(t, s.Conn(domain.RoleReceiver))
}

func TestSession_RestoredAfterRestart(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 0, 5)
	armed := t0.Add(-5 * time.Minute)
	req.NoError(f.store.UpsertRoom(context.Background(), domain.RoomRecord{
		ID: 42, PermitID: 42, CreatedAt: t0.Add(-10 * time.Minute), LastActive: armed, ArmedAt: &armed,
	}))

	join(f, nil, f.conn("r1", domain.RoleReceiver))

	s, ok := f.o.Registry.Get(42)
	req.True(ok)
	at, isArmed := s.ArmedAt()
	req.True(isArmed)
	req.Equal(armed, at)
}

type failingCommit struct {
	core.Store
}

func (failingCommit) CommitUsage(context.Context, domain.PermitID) (int, bool, error) {
	return 0, false, errors.New("connection reset")
}
