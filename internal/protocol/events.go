package protocol

// Peer to server.
const (
	EventSenderJoin      = "sender-join"
	EventReceiverJoin    = "receiver-join"
	EventAdminReady      = "admin-ready"
	EventUserReady       = "user-ready"
	EventAdminSend       = "admin-send"
	EventReceiverSuccess = "receiver-success"
	EventSenderSuccess   = "sender-success"
	EventHeartbeat       = "heartbeat"
	EventAdminLeft       = "admin-left"
	EventUserLeft        = "user-left"
	EventPing            = "ping"
)

// Server to peer. Join, ready, send, success and left events reuse the names above
// when relayed to the other side of the room.
const (
	EventStatus      = "status"
	EventRoomExpired = "room-expired"
	EventError       = "error"
)
