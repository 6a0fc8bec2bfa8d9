// Package domain contains entities without behaviour, just meta-data
package domain

import (
	"strconv"
	"time"
)

type (
	RoomID   int64
	PermitID int64
	ConnID   string
)

func (id RoomID) String() string { return strconv.FormatInt(int64(id), 10) }

// PermitRoom returns the room keyed by a sender's permit.
func PermitRoom(id PermitID) RoomID { return RoomID(id) }

// Role is the side of a room a connection speaks for.
type Role string

const (
	RoleSender   Role = "admin"
	RoleReceiver Role = "client"
)

func (r Role) Valid() bool { return r == RoleSender || r == RoleReceiver }

// Other returns the opposite side of the room.
func (r Role) Other() Role {
	if r == RoleSender {
		return RoleReceiver
	}
	return RoleSender
}

type RoomState int

const (
	StateEmpty RoomState = iota
	StateWaitingForPeer
	StateBothPresent
	StateArmed
	StateDelivered
	StateSettled
)

var stateNames = map[RoomState]string{
	StateEmpty:          "empty",
	StateWaitingForPeer: "waiting",
	StateBothPresent:    "both_present",
	StateArmed:          "armed",
	StateDelivered:      "delivered",
	StateSettled:        "settled",
}

func (s RoomState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// RoomRecord is the durable snapshot of a room. It lags the in-memory session.
type RoomRecord struct {
	ID             RoomID     `json:"id" msgpack:"id"`
	PermitID       PermitID   `json:"permit_id" msgpack:"permit_id"`
	SenderConnID   ConnID     `json:"sender_conn_id,omitempty" msgpack:"sender_conn_id"`
	ReceiverConnID ConnID     `json:"receiver_conn_id,omitempty" msgpack:"receiver_conn_id"`
	Status         RoomState  `json:"status" msgpack:"status"`
	CreatedAt      time.Time  `json:"created_at" msgpack:"created_at"`
	LastActive     time.Time  `json:"last_active" msgpack:"last_active"`
	ArmedAt        *time.Time `json:"armed_at,omitempty" msgpack:"armed_at"`
}
