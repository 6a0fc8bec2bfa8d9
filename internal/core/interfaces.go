//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_store.go -package=mocks
package core

import (
	"context"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
)

// RoomStore persists room snapshots. Implementations return domain.ErrRoomNotFound
// for unknown ids.
type RoomStore interface {
	FindRoom(ctx context.Context, id domain.RoomID) (domain.RoomRecord, error)
	UpsertRoom(ctx context.Context, rec domain.RoomRecord) error
	DeleteRoom(ctx context.Context, id domain.RoomID) error
	// DeleteRoomsNotIn removes records created before olderThan whose id is not active.
	DeleteRoomsNotIn(ctx context.Context, active []domain.RoomID, olderThan time.Time) (int, error)
	ListRooms(ctx context.Context) ([]domain.RoomRecord, error)
}

// PermitStore persists permits. Implementations return domain.ErrPermitNotFound
// for unknown ids or codes.
type PermitStore interface {
	SavePermit(ctx context.Context, p domain.Permit) (domain.Permit, error)
	FindPermit(ctx context.Context, id domain.PermitID) (domain.Permit, error)
	FindPermitByCode(ctx context.Context, code string) (domain.Permit, error)
	// CommitUsage atomically increments usage when it is below total and the permit
	// is enabled. It returns the resulting usage and whether it incremented.
	CommitUsage(ctx context.Context, id domain.PermitID) (used int, committed bool, err error)
	DisablePermit(ctx context.Context, id domain.PermitID) error
}

type Store interface {
	RoomStore
	PermitStore
	Close() error
}
