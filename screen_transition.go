package spotlight

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type TransitionConfig struct {
	BootThreshold  float32
	ResetThreshold float32
	BootDelay      time.Duration
	Debounce       time.Duration
	ProgressDelta  float32
	TickInterval   time.Duration
}

func DefaultTransitionConfig() TransitionConfig {
	return TransitionConfig{
		BootThreshold:  0.4,
		ResetThreshold: 0.35,
		BootDelay:      2000 * time.Millisecond,
		Debounce:       100 * time.Millisecond,
		ProgressDelta:  0.05,
		TickInterval:   100 * time.Millisecond,
	}
}

// ScreenMounter is the part of the screen host the state machine drives.
type ScreenMounter interface {
	Mount(state ScreenState) MountResult
	Busy() bool
}

type transitionGuard struct {
	lastTransition time.Time
	lastProgress   float32
	inFlight       bool
	bootTriggered  bool
}

type transitionRequest struct {
	current       ScreenState
	target        ScreenState
	inFlight      bool
	first         bool
	elapsed       time.Duration
	progressDelta float32
}

// acceptTransition decides whether a debounced request goes through.
func acceptTransition(req transitionRequest, cfg TransitionConfig) bool {
	if req.target == req.current || req.inFlight {
		return false
	}
	if req.first || req.elapsed >= cfg.Debounce {
		return true
	}
	return req.progressDelta > cfg.ProgressDelta
}

// ScreenTransitions maps scroll progress to the screen shown on the laptop.
// Crossing BootThreshold starts the boot sequence, which moves on to the home
// screen after BootDelay. Dropping below ResetThreshold turns the screen off.
// The gap between the two thresholds is a hysteresis band.
type ScreenTransitions struct {
	cfg     TransitionConfig
	sched   *Scheduler
	host    ScreenMounter
	signals *SignalSampler
	logger  Logger

	state        ScreenState
	guard        transitionGuard
	bootTimer    TaskId
	pendingMount bool
	ticker       *IntervalTicker
	listeners    []func(from, to ScreenState)
}

func NewScreenTransitions(cfg TransitionConfig, sched *Scheduler, host ScreenMounter, signals *SignalSampler, logger Logger) *ScreenTransitions {
	if logger == nil {
		logger = NewNopLogger()
	}
	t := &ScreenTransitions{
		cfg:     cfg,
		sched:   sched,
		host:    host,
		signals: signals,
		logger:  logger,
		state:   ScreenNone,
	}
	t.ticker = NewIntervalTicker(sched, cfg.TickInterval, t.Tick)
	return t
}

func (t *ScreenTransitions) State() ScreenState {
	return t.state
}

func (t *ScreenTransitions) BootTriggered() bool {
	return t.guard.bootTriggered
}

// OnChange registers a listener called after every state change.
func (t *ScreenTransitions) OnChange(fn func(from, to ScreenState)) {
	t.listeners = append(t.listeners, fn)
}

// Start evaluates the current scroll progress right away and then on every
// tick interval.
func (t *ScreenTransitions) Start() {
	t.ticker.Start()
}

func (t *ScreenTransitions) Stop() {
	t.ticker.Stop()
	t.sched.Cancel(t.bootTimer)
	t.bootTimer = 0
}

func (t *ScreenTransitions) Running() bool {
	return t.ticker.Running()
}

// Tick is the periodic evaluation against the latest scroll signal.
func (t *ScreenTransitions) Tick() {
	if t.pendingMount && !t.host.Busy() {
		t.pendingMount = false
		t.mount(t.state)
	}
	t.Evaluate(t.signals.Scroll.Progress)
}

func (t *ScreenTransitions) Evaluate(progress float32) {
	if !finite(float64(progress)) {
		return
	}
	progress = mgl32.Clamp(progress, 0, 1)

	if progress >= t.cfg.BootThreshold && !t.guard.bootTriggered {
		if t.RequestTransition(ScreenBootup, progress) {
			t.guard.bootTriggered = true
			t.scheduleHome(progress)
		}
	} else if progress < t.cfg.ResetThreshold && t.guard.bootTriggered {
		if t.state == ScreenNone || t.RequestTransition(ScreenNone, progress) {
			t.guard.bootTriggered = false
		}
	}
}

func (t *ScreenTransitions) scheduleHome(progress float32) {
	t.sched.Cancel(t.bootTimer)
	t.bootTimer = t.sched.After(t.cfg.BootDelay, func() {
		t.bootTimer = 0
		if t.guard.bootTriggered && t.state == ScreenBootup {
			t.RequestTransition(ScreenHome, progress)
		}
	})
}

// RequestTransition is the debounced path used by automatic transitions.
// Rejected requests are dropped. It reports whether the request was applied.
func (t *ScreenTransitions) RequestTransition(target ScreenState, progress float32) bool {
	now := t.sched.Now()
	req := transitionRequest{
		current:       t.state,
		target:        target,
		inFlight:      t.guard.inFlight,
		first:         t.guard.lastTransition.IsZero(),
		elapsed:       now.Sub(t.guard.lastTransition),
		progressDelta: absf(progress - t.guard.lastProgress),
	}
	t.guard.lastProgress = progress
	if !acceptTransition(req, t.cfg) {
		return false
	}

	t.guard.inFlight = true
	t.guard.lastTransition = now
	t.apply(target)
	t.guard.inFlight = false

	if req.progressDelta > 0.1 {
		t.logger.Infof("Screen transition: %s at %d%%", target, int(progress*100))
	}
	return true
}

// ForceTransition jumps to any screen, bypassing the debounce guard and the
// in-flight flag.
func (t *ScreenTransitions) ForceTransition(target ScreenState) error {
	if !target.Valid() {
		return ErrUnknownScreen
	}
	t.logger.Infof("Force transitioning to screen: %s", target)
	t.guard.inFlight = false
	t.apply(target)
	return nil
}

// Reset turns the screen off and clears the guard and boot sequence.
func (t *ScreenTransitions) Reset() {
	t.sched.Cancel(t.bootTimer)
	t.bootTimer = 0
	t.guard = transitionGuard{}
	t.apply(ScreenNone)
}

func (t *ScreenTransitions) apply(target ScreenState) {
	from := t.state
	t.state = target
	t.mount(target)
	if from != target {
		for _, fn := range t.listeners {
			fn(from, target)
		}
	}
}

func (t *ScreenTransitions) mount(state ScreenState) {
	if t.host == nil {
		return
	}
	switch t.host.Mount(state) {
	case MountDropped:
		t.pendingMount = true
	default:
		t.pendingMount = false
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
