package service

import (
	"sync/atomic"
	"time"
)

// State — агрегированное состояние процесса для health-эндпоинтов.
// Всё на атомиках: пишет цикл, читает HTTP-хендлер.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	breakerActive atomic.Bool
	lastCycleUnix atomic.Int64 // unix seconds
	cycles        atomic.Int64
	openPositions atomic.Int64
	dailyPnLMilli atomic.Int64 // P&L * 1000, атомик по float не нужен
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) SetBreakerActive(v bool) { s.breakerActive.Store(v) }
func (s *State) BreakerActive() bool     { return s.breakerActive.Load() }

func (s *State) TouchCycle(t time.Time) {
	s.lastCycleUnix.Store(t.Unix())
	s.cycles.Add(1)
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Cycles() int64 { return s.cycles.Load() }

func (s *State) SetOpenPositions(n int) { s.openPositions.Store(int64(n)) }
func (s *State) OpenPositions() int64   { return s.openPositions.Load() }

func (s *State) SetDailyPnL(v float64) { s.dailyPnLMilli.Store(int64(v * 1000)) }
func (s *State) DailyPnL() float64     { return float64(s.dailyPnLMilli.Load()) / 1000 }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
