//go:generate go run go.uber.org/mock/mockgen -source=signal_iface.go -destination=../mocks/mock_signal.go -package=mocks
package core

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Handoff/internal/domain"
)

// PeerConnection abstracts the live signalling transport of one peer.
// Owned by the adapter; the adapter must Close() it.
type PeerConnection interface {
	ID() domain.ConnID
	Peer() *domain.Peer
	// Notify enqueues a fire-and-forget event without blocking.
	Notify(event string, data any) error
	// Request sends a fresh event and waits for the peer's acknowledgement.
	Request(ctx context.Context, event string, data any) (json.RawMessage, error)
	Close()
	Closed() bool
}
