// Package store holds the durable room and permit stores.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/samber/lo"
)

// Memory keeps everything in maps. Used in dev mode and tests.
type Memory struct {
	mu      sync.Mutex
	rooms   map[domain.RoomID]domain.RoomRecord
	permits map[domain.PermitID]domain.Permit
	nextID  domain.PermitID
}

func NewMemory() *Memory {
	return &Memory{
		rooms:   make(map[domain.RoomID]domain.RoomRecord),
		permits: make(map[domain.PermitID]domain.Permit),
		nextID:  1,
	}
}

func (m *Memory) FindRoom(_ context.Context, id domain.RoomID) (domain.RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rooms[id]
	if !ok {
		return domain.RoomRecord{}, domain.ErrRoomNotFound
	}
	return rec, nil
}

func (m *Memory) UpsertRoom(_ context.Context, rec domain.RoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[rec.ID] = rec
	return nil
}

func (m *Memory) DeleteRoom(_ context.Context, id domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *Memory) DeleteRoomsNotIn(_ context.Context, active []domain.RoomID, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := lo.SliceToMap(active, func(id domain.RoomID) (domain.RoomID, struct{}) { return id, struct{}{} })
	n := 0
	for id, rec := range m.rooms {
		if _, ok := keep[id]; ok || !rec.CreatedAt.Before(olderThan) {
			continue
		}
		delete(m.rooms, id)
		n++
	}
	return n, nil
}

func (m *Memory) ListRooms(_ context.Context) ([]domain.RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Values(m.rooms), nil
}

func (m *Memory) SavePermit(_ context.Context, p domain.Permit) (domain.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Code = strings.TrimSpace(p.Code)
	if p.ID == 0 {
		p.ID = m.nextID
	}
	if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.permits[p.ID] = p
	return p, nil
}

func (m *Memory) FindPermit(_ context.Context, id domain.PermitID) (domain.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return domain.Permit{}, domain.ErrPermitNotFound
	}
	return p, nil
}

func (m *Memory) FindPermitByCode(_ context.Context, code string) (domain.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := lo.Find(lo.Values(m.permits), func(p domain.Permit) bool { return p.Code == code })
	if !ok {
		return domain.Permit{}, domain.ErrPermitNotFound
	}
	return p, nil
}

func (m *Memory) CommitUsage(_ context.Context, id domain.PermitID) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return 0, false, domain.ErrPermitNotFound
	}
	if p.Disabled || p.Used >= p.Total {
		return p.Used, false, nil
	}
	p.Used++
	p.UpdatedAt = time.Now().UTC()
	m.permits[id] = p
	return p.Used, true, nil
}

func (m *Memory) DisablePermit(_ context.Context, id domain.PermitID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return domain.ErrPermitNotFound
	}
	p.Disabled = true
	p.UpdatedAt = time.Now().UTC()
	m.permits[id] = p
	return nil
}

func (m *Memory) Close() error { return nil }
