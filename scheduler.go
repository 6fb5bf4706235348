package spotlight

import (
	"slices"
	"time"
)

type TaskId uint64

type timerTask struct {
	id    TaskId
	due   time.Time
	every time.Duration
	fn    func()
}

type frameTask struct {
	id TaskId
	fn func(now time.Time)
}

type postedTask struct {
	id TaskId
	fn func()
}

// Scheduler is the single-threaded cooperative loop. Nothing runs until Step
// is called, so all callbacks observe a consistent world between steps.
// Within one Step: posted tasks run first, then due timers ordered by due
// time and id, then the frame callbacks that were registered before the step
// began.
type Scheduler struct {
	clock    Clock
	diag     *Diagnostics
	lastId   TaskId
	timers   map[TaskId]*timerTask
	frames   []frameTask
	posted   []postedTask
	canceled map[TaskId]struct{}
}

func NewScheduler(clock Clock, diag *Diagnostics) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		clock:    clock,
		diag:     diag,
		timers:   make(map[TaskId]*timerTask),
		canceled: make(map[TaskId]struct{}),
	}
}

func (s *Scheduler) Clock() Clock {
	return s.clock
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

func (s *Scheduler) nextId() TaskId {
	s.lastId++
	return s.lastId
}

// RequestFrame registers a one-shot callback for the next frame.
func (s *Scheduler) RequestFrame(fn func(now time.Time)) TaskId {
	id := s.nextId()
	s.frames = append(s.frames, frameTask{id: id, fn: fn})
	return id
}

// After runs fn once, no earlier than d from now.
func (s *Scheduler) After(d time.Duration, fn func()) TaskId {
	id := s.nextId()
	s.timers[id] = &timerTask{id: id, due: s.clock.Now().Add(d), fn: fn}
	return id
}

// Every runs fn repeatedly with the given period until canceled. The first
// run happens one period from now.
func (s *Scheduler) Every(every time.Duration, fn func()) TaskId {
	if every <= 0 {
		every = time.Millisecond
	}
	id := s.nextId()
	s.timers[id] = &timerTask{id: id, due: s.clock.Now().Add(every), every: every, fn: fn}
	return id
}

// Post queues fn for the next Step. Tasks posted during a Step run on the
// following one.
func (s *Scheduler) Post(fn func()) TaskId {
	id := s.nextId()
	s.posted = append(s.posted, postedTask{id: id, fn: fn})
	return id
}

// Cancel removes a pending task of any kind. Canceling an unknown or already
// finished task is a no-op.
func (s *Scheduler) Cancel(id TaskId) {
	if id == 0 {
		return
	}
	if _, ok := s.timers[id]; ok {
		delete(s.timers, id)
		return
	}
	if idx := slices.IndexFunc(s.frames, func(f frameTask) bool { return f.id == id }); idx >= 0 {
		s.frames = slices.Delete(s.frames, idx, idx+1)
		return
	}
	if slices.ContainsFunc(s.posted, func(p postedTask) bool { return p.id == id }) {
		s.canceled[id] = struct{}{}
	}
}

// Pending reports the number of scheduled tasks of all kinds.
func (s *Scheduler) Pending() int {
	return len(s.timers) + len(s.frames) + len(s.posted) - len(s.canceled)
}

// Step runs everything that is due and returns the number of callbacks run.
func (s *Scheduler) Step() int {
	now := s.clock.Now()
	ran := 0

	posted := s.posted
	s.posted = nil
	for _, task := range posted {
		if _, skip := s.canceled[task.id]; skip {
			delete(s.canceled, task.id)
			continue
		}
		s.run("scheduler.post", task.fn)
		ran++
	}

	due := make([]*timerTask, 0, len(s.timers))
	for _, timer := range s.timers {
		if !timer.due.After(now) {
			due = append(due, timer)
		}
	}
	slices.SortFunc(due, func(a, b *timerTask) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return int(a.id) - int(b.id)
	})
	for _, timer := range due {
		// an earlier callback in this step may have canceled it
		if _, alive := s.timers[timer.id]; !alive {
			continue
		}
		if timer.every > 0 {
			timer.due = timer.due.Add(timer.every)
			if !timer.due.After(now) {
				timer.due = now.Add(timer.every)
			}
		} else {
			delete(s.timers, timer.id)
		}
		s.run("scheduler.timer", timer.fn)
		ran++
	}

	frames := s.frames
	s.frames = nil
	for _, frame := range frames {
		fn := frame.fn
		s.run("scheduler.frame", func() { fn(now) })
		ran++
	}

	return ran
}

func (s *Scheduler) run(source string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if s.diag == nil {
				panic(r)
			}
			s.diag.Recovered(source, r)
		}
	}()
	fn()
}

// RenderLoop re-requests a frame callback after every frame until stopped.
type RenderLoop struct {
	sched   *Scheduler
	tick    func(now time.Time)
	id      TaskId
	running bool
}

func NewRenderLoop(sched *Scheduler, tick func(now time.Time)) *RenderLoop {
	return &RenderLoop{sched: sched, tick: tick}
}

func (l *RenderLoop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.request()
}

func (l *RenderLoop) request() {
	l.id = l.sched.RequestFrame(func(now time.Time) {
		if !l.running {
			return
		}
		l.request()
		l.tick(now)
	})
}

func (l *RenderLoop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.sched.Cancel(l.id)
	l.id = 0
}

func (l *RenderLoop) Running() bool {
	return l.running
}

// IntervalTicker calls fn immediately on Start and then every period.
type IntervalTicker struct {
	sched  *Scheduler
	period time.Duration
	fn     func()
	id     TaskId
}

func NewIntervalTicker(sched *Scheduler, period time.Duration, fn func()) *IntervalTicker {
	return &IntervalTicker{sched: sched, period: period, fn: fn}
}

func (t *IntervalTicker) Start() {
	if t.id != 0 {
		return
	}
	t.id = t.sched.Every(t.period, t.fn)
	t.fn()
}

func (t *IntervalTicker) Stop() {
	t.sched.Cancel(t.id)
	t.id = 0
}

func (t *IntervalTicker) Running() bool {
	return t.id != 0
}
