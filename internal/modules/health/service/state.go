package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// State жив ли демон и как прошёл последний цикл опроса.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastCycleUnix atomic.Int64 // unix seconds

	mu       sync.RWMutex
	lastErr  string
	failures int
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// TouchCycle отмечает завершённый цикл. Первый цикл переводит демона в ready.
func (s *State) TouchCycle(t time.Time, err error) {
	s.lastCycleUnix.Store(t.Unix())
	s.mu.Lock()
	if err != nil {
		s.lastErr = err.Error()
		s.failures++
	} else {
		s.lastErr = ""
		s.failures = 0
	}
	s.mu.Unlock()
	s.SetReady(true)
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// LastError текст последней ошибки цикла и число неудачных циклов подряд.
func (s *State) LastError() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr, s.failures
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
