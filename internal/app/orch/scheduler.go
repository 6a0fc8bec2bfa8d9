package orch

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// scheduler tracks delayed tasks so shutdown can cancel them all.
type scheduler struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	next    uint64
	timers  map[uint64]clockwork.Timer
	stopped bool
}

func newScheduler(clock clockwork.Clock) *scheduler {
	return &scheduler{clock: clock, timers: make(map[uint64]clockwork.Timer)}
}

// After runs f once d has elapsed. The returned func cancels it.
func (s *scheduler) After(d time.Duration, f func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}
	id := s.next
	s.next++
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			f()
		}
	})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
	}
}

func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
