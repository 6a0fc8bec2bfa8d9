package protocol

import (
	"time"

	"github.com/dkeye/Handoff/internal/domain"
)

type ReceiverJoinRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

type HeartbeatRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

type SenderJoinAck struct {
	RoomID        domain.RoomID `json:"roomId"`
	RoomCreatedAt time.Time     `json:"roomCreatedAt"`
	RoomExpiryMs  int64         `json:"roomExpiryMs"`
	Online        bool          `json:"online"`
	Ready         bool          `json:"ready"`
	Used          int           `json:"used"`
	Total         int           `json:"total"`
	Error         string        `json:"error,omitempty"`
}

func (a SenderJoinAck) Fail(code string) any { a.Error = code; return a }

type ReceiverJoinAck struct {
	RoomID  domain.RoomID `json:"roomId"`
	Online  bool          `json:"online"`
	Ready   bool          `json:"ready"`
	Used    int           `json:"used"`
	Total   int           `json:"total"`
	Payload string        `json:"payload,omitempty"`
	Expired bool          `json:"expired,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func (a ReceiverJoinAck) Fail(code string) any { a.Error = code; return a }

// SendAck reports the usage the sender would reach once the exchange settles.
// Used is -1 when the payload was not relayed.
type SendAck struct {
	Used  int    `json:"used"`
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

func (a SendAck) Fail(code string) any { a.Error = code; a.Used = -1; return a }

type SettleAck struct {
	Used      int    `json:"used"`
	Committed bool   `json:"committed"`
	Error     string `json:"error,omitempty"`
}

func (a SettleAck) Fail(code string) any { a.Error = code; return a }

type ErrorAck struct {
	Error string `json:"error"`
}

type Empty struct{}

type StatusReply struct {
	Ready bool `json:"ready"`
}

type PeerJoined struct {
	RoomID domain.RoomID `json:"roomId"`
}

type Delivery struct {
	Payload string `json:"payload"`
	Used    int    `json:"used"`
	Total   int    `json:"total"`
}

type SettleNotice struct {
	Used    int  `json:"used"`
	Success bool `json:"success"`
}

type ExpiredNotice struct {
	RoomID domain.RoomID `json:"roomId"`
}

// Failer is implemented by acks that carry their own error field.
type Failer interface {
	Fail(code string) any
}
