package debounce

import (
	"sort"
	"sync"
	"time"
)

// FakeScheduler is a manually advanced clock for tests.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*fakeTimer
}

type fakeTimer struct {
	s   *FakeScheduler
	id  int
	at  time.Duration
	fn  func()
	off bool
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// Now is the time elapsed since the scheduler was created.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := &fakeTimer{s: s, id: s.nextID, at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, running due actions in time order
// on the calling goroutine.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		due := s.nextDueLocked(target)
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.at
		due.off = true
		s.mu.Unlock()

		due.fn()
	}
}

// Pending counts scheduled actions that have neither run nor been stopped.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.off {
			n++
		}
	}
	return n
}

func (s *FakeScheduler) nextDueLocked(target time.Duration) *fakeTimer {
	var live []*fakeTimer
	for _, t := range s.timers {
		if !t.off && t.at <= target {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at != live[j].at {
			return live[i].at < live[j].at
		}
		return live[i].id < live[j].id
	})
	return live[0]
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.off {
		return false
	}
	t.off = true
	return true
}
