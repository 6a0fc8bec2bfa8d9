package app

import (
	"sync"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Registry is the process-wide cache of live room sessions.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.RoomSession
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*core.RoomSession)}
}

func (r *Registry) Get(id domain.RoomID) (*core.RoomSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rooms[id]
	return s, ok
}

func (r *Registry) Contains(id domain.RoomID) bool {
	_, ok := r.Get(id)
	return ok
}

func (r *Registry) Upsert(s *core.RoomSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[s.ID()] = s
	log.Info().Str("module", "app.registry").Stringer("room", s.ID()).Msg("room cached")
}

// GetOrCreate returns the cached session or stores the one built by build.
// Concurrent callers for the same id observe a single session.
func (r *Registry) GetOrCreate(id domain.RoomID, build func() (*core.RoomSession, error)) (*core.RoomSession, bool, error) {
	if s, ok := r.Get(id); ok {
		return s, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rooms[id]; ok {
		return s, false, nil
	}
	s, err := build()
	if err != nil {
		return nil, false, err
	}
	r.rooms[id] = s
	log.Info().Str("module", "app.registry").Stringer("room", id).Msg("room created")
	return s, true, nil
}

func (r *Registry) Remove(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	log.Info().Str("module", "app.registry").Stringer("room", id).Msg("room removed")
}

// RemoveIf removes id only while it still maps to s, so a room recreated under
// the same id is left alone.
func (r *Registry) RemoveIf(s *core.RoomSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rooms[s.ID()]; !ok || cur != s {
		return false
	}
	delete(r.rooms, s.ID())
	log.Info().Str("module", "app.registry").Stringer("room", s.ID()).Msg("room removed")
	return true
}

func (r *Registry) ListAll() []*core.RoomSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.rooms)
}

func (r *Registry) IDs() []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.rooms)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
