package domain

import "time"

// Peer represents one connection's participation meta for a room.
// No transport or lifecycle logic here.
type Peer struct {
	ConnID      ConnID
	Role        Role
	Room        RoomID
	Permit      PermitID
	ClientToken string
	RemoteAddr  string
	ConnectedAt time.Time
}

// NewPeer avoids raw literals in adapters and keeps construction obvious.
func NewPeer(id ConnID, role Role, room RoomID) *Peer {
	return &Peer{ConnID: id, Role: role, Room: room, ConnectedAt: time.Now()}
}
