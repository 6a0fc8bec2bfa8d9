// Package protocol holds the wire shapes shared by the signal server and peer clients.
package protocol

import "encoding/json"

type FrameKind string

const (
	KindEvent FrameKind = "event"
	KindAck   FrameKind = "ack"
)

// Frame is the envelope of every message on the signal channel.
// Events carrying a non-zero ID expect an ack frame with the same ID.
type Frame struct {
	Kind  FrameKind       `json:"kind"`
	Event string          `json:"event,omitempty"`
	ID    uint64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func EncodeEvent(id uint64, event string, data any) ([]byte, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Kind: KindEvent, Event: event, ID: id, Data: raw})
}

func EncodeAck(id uint64, data any) ([]byte, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Kind: KindAck, ID: id, Data: raw})
}

func Decode(b []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(b, &f)
	return f, err
}

func marshalData(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(data)
}
