package core

import (
	"sync"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
)

type slot struct {
	conn       PeerConnection
	lastActive time.Time
	ready      bool
}

type pendingPayload struct {
	text      string
	sentAt    time.Time
	delivered bool
}

// RoomSession is the in-memory state of one room.
// The mutex is held only across in-memory transitions, never across I/O.
type RoomSession struct {
	mu        sync.Mutex
	id        domain.RoomID
	permit    domain.PermitID
	createdAt time.Time
	liveness  time.Duration

	slots    map[domain.Role]*slot
	armedAt  *time.Time
	pending  *pendingPayload
	settled  bool
	closed   bool
	snapshot domain.RoomRecord
}

// NewRoomSession starts a room. The sender has never been seen, the receiver
// counts as active from creation.
func NewRoomSession(id domain.RoomID, permit domain.PermitID, now time.Time, liveness time.Duration) *RoomSession {
	s := &RoomSession{
		id:        id,
		permit:    permit,
		createdAt: now,
		liveness:  liveness,
		slots: map[domain.Role]*slot{
			domain.RoleSender:   {},
			domain.RoleReceiver: {lastActive: now},
		},
	}
	s.snapshot = s.recordLocked(now)
	return s
}

// RestoreRoomSession rebuilds a session from its durable record after a restart.
// Connections are not restored; the delivery window is.
func RestoreRoomSession(rec domain.RoomRecord, now time.Time, liveness time.Duration) *RoomSession {
	s := NewRoomSession(rec.ID, rec.PermitID, rec.CreatedAt, liveness)
	s.slots[domain.RoleReceiver].lastActive = now
	if rec.ArmedAt != nil {
		t := *rec.ArmedAt
		s.armedAt = &t
	}
	s.snapshot = rec
	return s
}

func (s *RoomSession) ID() domain.RoomID         { return s.id }
func (s *RoomSession) PermitID() domain.PermitID { return s.permit }
func (s *RoomSession) CreatedAt() time.Time      { return s.createdAt }

func (s *RoomSession) holdsLocked(role domain.Role, conn PeerConnection) bool {
	sl := s.slots[role]
	return conn != nil && sl.conn != nil && sl.conn.ID() == conn.ID()
}

// Join occupies the role's slot. A slot held by a different live connection is
// never replaced. It returns the other side's connection, if any.
func (s *RoomSession) Join(role domain.Role, conn PeerConnection, now time.Time) (PeerConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrRoomNotFound
	}
	sl := s.slots[role]
	if sl.conn != nil && sl.conn.ID() != conn.ID() && !sl.conn.Closed() {
		return nil, domain.ErrRoleOccupied
	}
	sl.conn = conn
	sl.lastActive = now
	sl.ready = false
	if role == domain.RoleSender {
		s.armLocked(now)
	}
	return s.slots[role.Other()].conn, nil
}

func (s *RoomSession) armLocked(now time.Time) {
	if s.armedAt != nil {
		return
	}
	t := now
	s.armedAt = &t
	s.settled = false
}

// SetReady records readiness and returns the echoed value and the other side.
func (s *RoomSession) SetReady(role domain.Role, conn PeerConnection, ready bool) (bool, PeerConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, nil, domain.ErrRoomNotFound
	}
	if !s.holdsLocked(role, conn) {
		return false, nil, domain.ErrRoleMismatch
	}
	s.slots[role].ready = ready
	return ready, s.slots[role.Other()].conn, nil
}

// ObserveReady stores readiness learned from a status probe.
func (s *RoomSession) ObserveReady(role domain.Role, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots[role].conn != nil {
		s.slots[role].ready = ready
	}
}

// Touch refreshes liveness of the role held by conn.
func (s *RoomSession) Touch(role domain.Role, conn PeerConnection, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrRoomNotFound
	}
	if !s.holdsLocked(role, conn) {
		return domain.ErrRoleMismatch
	}
	s.slots[role].lastActive = now
	return nil
}

// Holds reports whether conn currently occupies role.
func (s *RoomSession) Holds(role domain.Role, conn PeerConnection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.holdsLocked(role, conn)
}

// BeginSend records the payload as pending delivery and opens the delivery window
// when no epoch is armed. It returns the receiver's connection, which may be nil.
func (s *RoomSession) BeginSend(conn PeerConnection, text string, now time.Time) (PeerConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrRoomNotFound
	}
	if !s.holdsLocked(domain.RoleSender, conn) {
		return nil, domain.ErrRoleMismatch
	}
	s.armLocked(now)
	s.pending = &pendingPayload{text: text, sentAt: now}
	s.slots[domain.RoleSender].lastActive = now
	return s.slots[domain.RoleReceiver].conn, nil
}

// MarkDelivered flags the pending payload as acknowledged by the receiver.
func (s *RoomSession) MarkDelivered(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil && s.pending.text == text {
		s.pending.delivered = true
	}
}

// Replay returns the unsettled payload for a reconnecting receiver. A payload older
// than window is suppressed and reported as expired.
func (s *RoomSession) Replay(now time.Time, window time.Duration) (text string, ok bool, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return "", false, false
	}
	if now.Sub(s.pending.sentAt) > window {
		return "", false, true
	}
	return s.pending.text, true, false
}

// ClaimSettlement closes the current epoch. Only one caller per epoch wins; the
// previous arm time is returned so a failed commit can roll back.
func (s *RoomSession) ClaimSettlement() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.armedAt == nil {
		return time.Time{}, false
	}
	prev := *s.armedAt
	s.armedAt = nil
	s.pending = nil
	s.settled = true
	return prev, true
}

// RestoreArm reopens an epoch whose commit did not reach the store.
func (s *RoomSession) RestoreArm(prev time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armedAt == nil {
		s.armedAt = &prev
		s.settled = false
	}
}

// Leave clears the role's slot and readiness when conn is its holder. Slots are
// never cleared on behalf of another connection.
func (s *RoomSession) Leave(role domain.Role, conn PeerConnection) (PeerConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsLocked(role, conn) {
		return nil, false
	}
	sl := s.slots[role]
	sl.conn = nil
	sl.ready = false
	return s.slots[role.Other()].conn, true
}

func (s *RoomSession) Conn(role domain.Role) PeerConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[role].conn
}

func (s *RoomSession) Connections() (sender, receiver PeerConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[domain.RoleSender].conn, s.slots[domain.RoleReceiver].conn
}

func (s *RoomSession) Ready(role domain.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[role].ready
}

func (s *RoomSession) isOnlineLocked(role domain.Role, now time.Time) bool {
	sl := s.slots[role]
	return sl.conn != nil && sl.conn.ID() != "" && now.Sub(sl.lastActive) <= s.liveness
}

// IsOnline requires both a connection and a last-active time within the liveness window.
func (s *RoomSession) IsOnline(role domain.Role, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOnlineLocked(role, now)
}

func (s *RoomSession) IsRoomOnline(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOnlineLocked(domain.RoleSender, now) || s.isOnlineLocked(domain.RoleReceiver, now)
}

func (s *RoomSession) ArmedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armedAt == nil {
		return time.Time{}, false
	}
	return *s.armedAt, true
}

// Expired reports whether the armed epoch outlived window.
func (s *RoomSession) Expired(now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedAt != nil && now.Sub(*s.armedAt) > window
}

func (s *RoomSession) Vacant() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[domain.RoleSender].conn == nil && s.slots[domain.RoleReceiver].conn == nil
}

// Reclaimable reports an unarmed room with no connection and no activity within
// the liveness window.
func (s *RoomSession) Reclaimable(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reclaimableLocked(now)
}

func (s *RoomSession) reclaimableLocked(now time.Time) bool {
	if s.armedAt != nil {
		return false
	}
	for _, sl := range s.slots {
		if sl.conn != nil || now.Sub(sl.lastActive) <= s.liveness {
			return false
		}
	}
	return true
}

// Reclaim condemns the session if it is still reclaimable at now.
func (s *RoomSession) Reclaim(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.reclaimableLocked(now) {
		return false
	}
	s.closed = true
	return true
}

// Expire condemns the session if its armed epoch outlived window.
func (s *RoomSession) Expire(now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.armedAt == nil || now.Sub(*s.armedAt) <= window {
		return false
	}
	s.closed = true
	return true
}

// Close condemns the session; every later transition fails with ErrRoomNotFound.
// It reports whether this call closed it.
func (s *RoomSession) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

func (s *RoomSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RoomSession) State() domain.RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *RoomSession) stateLocked() domain.RoomState {
	sender, receiver := s.slots[domain.RoleSender], s.slots[domain.RoleReceiver]
	switch {
	case s.settled:
		return domain.StateSettled
	case s.pending != nil && s.pending.delivered:
		return domain.StateDelivered
	case sender.conn != nil && receiver.conn != nil && s.armedAt != nil && (sender.ready || s.pending != nil):
		return domain.StateArmed
	case sender.conn != nil && receiver.conn != nil:
		return domain.StateBothPresent
	case sender.conn != nil || receiver.conn != nil:
		return domain.StateWaitingForPeer
	default:
		return domain.StateEmpty
	}
}

// Record refreshes and returns the durable snapshot.
func (s *RoomSession) Record(now time.Time) domain.RoomRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = s.recordLocked(now)
	return s.snapshot
}

// Snapshot returns the last record produced by Record.
func (s *RoomSession) Snapshot() domain.RoomRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *RoomSession) recordLocked(now time.Time) domain.RoomRecord {
	rec := domain.RoomRecord{
		ID:         s.id,
		PermitID:   s.permit,
		Status:     s.stateLocked(),
		CreatedAt:  s.createdAt,
		LastActive: now,
	}
	if c := s.slots[domain.RoleSender].conn; c != nil {
		rec.SenderConnID = c.ID()
	}
	if c := s.slots[domain.RoleReceiver].conn; c != nil {
		rec.ReceiverConnID = c.ID()
	}
	if s.armedAt != nil {
		t := *s.armedAt
		rec.ArmedAt = &t
	}
	return rec
}
