package spotlight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler() (*Scheduler, *ManualClock, *Diagnostics) {
	clock := NewManualClock(testEpoch)
	diag := NewDiagnostics(clock, nil)
	return NewScheduler(clock, diag), clock, diag
}

func TestScheduler_StepOrder(t *testing.T) {
	sched, clock, _ := newTestScheduler()
	var order []string

	sched.RequestFrame(func(time.Time) { order = append(order, "frame") })
	sched.After(20*time.Millisecond, func() { order = append(order, "late") })
	sched.After(10*time.Millisecond, func() { order = append(order, "early") })
	sched.Post(func() { order = append(order, "posted") })

	clock.Advance(30 * time.Millisecond)
	ran := sched.Step()

	assert.Equal(t, 4, ran)
	assert.Equal(t, []string{"posted", "early", "late", "frame"}, order)
	assert.Equal(t, 0, sched.Pending())
}

func TestScheduler_AfterNotDueYet(t *testing.T) {
	sched, clock, _ := newTestScheduler()
	fired := false
	sched.After(100*time.Millisecond, func() { fired = true })

	clock.Advance(99 * time.Millisecond)
	sched.Step()
	assert.False(t, fired)

	clock.Advance(time.Millisecond)
	sched.Step()
	assert.True(t, fired)
}

func TestScheduler_EveryKeepsPeriod(t *testing.T) {
	sched, clock, _ := newTestScheduler()
	count := 0
	id := sched.Every(100*time.Millisecond, func() { count++ })

	for i := 0; i < 5; i++ {
		clock.Advance(100 * time.Millisecond)
		sched.Step()
	}
	assert.Equal(t, 5, count)

	// a long stall fires once, not once per missed period
	clock.Advance(time.Second)
	sched.Step()
	assert.Equal(t, 6, count)

	sched.Cancel(id)
	clock.Advance(time.Second)
	sched.Step()
	assert.Equal(t, 6, count)
}

func TestScheduler_CancelPosted(t *testing.T) {
	sched, _, _ := newTestScheduler()
	fired := false
	id := sched.Post(func() { fired = true })
	require.Equal(t, 1, sched.Pending())

	sched.Cancel(id)
	assert.Equal(t, 0, sched.Pending())
	sched.Step()
	assert.False(t, fired)
}

func TestScheduler_TimerCanceledByEarlierTimer(t *testing.T) {
	sched, clock, _ := newTestScheduler()
	fired := false
	var second TaskId
	sched.After(10*time.Millisecond, func() { sched.Cancel(second) })
	second = sched.After(20*time.Millisecond, func() { fired = true })

	clock.Advance(50 * time.Millisecond)
	sched.Step()
	assert.False(t, fired)
}

func TestScheduler_PostedDuringStepRunsNext(t *testing.T) {
	sched, _, _ := newTestScheduler()
	var order []string
	sched.Post(func() {
		order = append(order, "first")
		sched.Post(func() { order = append(order, "second") })
	})

	sched.Step()
	assert.Equal(t, []string{"first"}, order)
	sched.Step()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestScheduler_PanicIsReported(t *testing.T) {
	sched, _, diag := newTestScheduler()
	after := false
	sched.Post(func() { panic("boom") })
	sched.Post(func() { after = true })

	assert.NotPanics(t, func() { sched.Step() })
	assert.True(t, after)
	last, ok := diag.LastError()
	require.True(t, ok)
	assert.Equal(t, "scheduler.post", last.Source)
	assert.Contains(t, last.Message, "boom")
}

func TestRenderLoop_StartStop(t *testing.T) {
	sched, _, _ := newTestScheduler()
	ticks := 0
	loop := NewRenderLoop(sched, func(time.Time) { ticks++ })

	loop.Start()
	loop.Start()
	for i := 0; i < 3; i++ {
		sched.Step()
	}
	assert.Equal(t, 3, ticks)
	assert.True(t, loop.Running())

	loop.Stop()
	sched.Step()
	assert.Equal(t, 3, ticks)
	assert.False(t, loop.Running())
	assert.Equal(t, 0, sched.Pending())
}

func TestIntervalTicker(t *testing.T) {
	sched, clock, _ := newTestScheduler()
	count := 0
	ticker := NewIntervalTicker(sched, 100*time.Millisecond, func() { count++ })

	ticker.Start()
	assert.Equal(t, 1, count, "fires immediately")
	clock.Advance(100 * time.Millisecond)
	sched.Step()
	assert.Equal(t, 2, count)

	ticker.Stop()
	assert.False(t, ticker.Running())
	clock.Advance(time.Second)
	sched.Step()
	assert.Equal(t, 2, count)
}
