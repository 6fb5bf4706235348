package spotlight

import (
	"sync"
	"time"
)

// Clock is the time source for the scheduler and transition guard.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to. Used by tests and headless runs.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
	clock Clock
}

// TimeModule installs the Time resource. A nil Clock means wall time.
type TimeModule struct {
	Clock Clock
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	clock := mod.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	cmd.AddResources(&Time{
		Time:  clock.Now(),
		Dt:    0,
		clock: clock,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func (t *Time) Clock() Clock {
	if t.clock == nil {
		return SystemClock{}
	}
	return t.clock
}

func timeSystem(timeResource *Time) {
	now := timeResource.Clock().Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Frame++
}
