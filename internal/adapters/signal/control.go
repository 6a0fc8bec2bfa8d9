package signal

import "github.com/dkeye/Handoff/internal/protocol"

// handleControl answers transport-level events that never reach the orchestrator.
func (ctl *SignalWSController) handleControl(c *WsSignalConn, f protocol.Frame) bool {
	switch f.Event {
	case protocol.EventPing:
		ctl.ack(c, f.ID, "pong")
		return true
	}
	return false
}
