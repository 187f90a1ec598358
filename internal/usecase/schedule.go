package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/semmidev/keeper/internal/domain"
)

// Schedule owns the autobackup settings shared by the API and the scheduler
// tick.
type Schedule struct {
	mu    sync.Mutex
	state domain.ScheduleState
}

func NewSchedule(enabled bool, triggerSecond int) (*Schedule, error) {
	if !domain.ValidTriggerSecond(triggerSecond) {
		return nil, fmt.Errorf("%w: triggerSecond must be between 0 and 59, got %d", domain.ErrInvalidArgument, triggerSecond)
	}

	return &Schedule{
		state: domain.ScheduleState{
			Enabled:         enabled,
			TriggerSecond:   triggerSecond,
			LastFiredMinute: domain.NotFired,
		},
	}, nil
}

func (s *Schedule) Get() domain.ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Configure applies a partial update. Nothing is changed when any field is
// invalid. Assigning the trigger second re-arms the current minute.
func (s *Schedule) Configure(update domain.ScheduleUpdate) (domain.ScheduleState, error) {
	if update.TriggerSecond != nil && !domain.ValidTriggerSecond(*update.TriggerSecond) {
		return s.Get(), fmt.Errorf("%w: triggerSecond must be between 0 and 59, got %d", domain.ErrInvalidArgument, *update.TriggerSecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Enabled != nil {
		s.state.Enabled = *update.Enabled
	}
	if update.TriggerSecond != nil {
		s.state.TriggerSecond = *update.TriggerSecond
		s.state.LastFiredMinute = domain.NotFired
	}

	return s.state, nil
}

// Tick reports whether a backup is due at now and marks the minute as fired
// when it is. now must already be in the application time zone.
func (s *Schedule) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Enabled {
		return false
	}

	minute := now.Minute()
	if now.Second() != s.state.TriggerSecond || minute == s.state.LastFiredMinute {
		return false
	}

	s.state.LastFiredMinute = minute
	return true
}
