package app

import "github.com/dkeye/Handoff/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	KickPeer
)

// Policy decides what happens to a peer whose send buffer is full.
type Policy interface {
	OnBackPressure(room *core.RoomSession, peer core.PeerConnection, event string) BackpressureAction
}

// SimplePolicy kicks the slow peer so its disconnect path runs.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(*core.RoomSession, core.PeerConnection, string) BackpressureAction {
	return KickPeer
}
