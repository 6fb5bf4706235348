package spotlight

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MountResult int

const (
	// MountStarted means the load step was queued.
	MountStarted MountResult = iota
	// MountUnchanged means the state is already mounted.
	MountUnchanged
	// MountDropped means another mount is in flight.
	MountDropped
	// MountRejected means the host is released or the state is invalid.
	MountRejected
)

func (r MountResult) String() string {
	switch r {
	case MountStarted:
		return "started"
	case MountUnchanged:
		return "unchanged"
	case MountDropped:
		return "dropped"
	default:
		return "rejected"
	}
}

// Navigator lets a screen unit request another screen.
type Navigator func(state ScreenState)

// ScreenUnit is the content of one screen state.
type ScreenUnit interface {
	Screen() ScreenState
	Render(canvas *Canvas, navigate Navigator) error
	Teardown()
}

// Animated units are polled every frame. Returning true re-renders the unit.
type Animated interface {
	Animate(now time.Time, navigate Navigator) bool
}

type UnitFactory func(state ScreenState) (ScreenUnit, error)

type MountedScreen struct {
	Id        uuid.UUID
	State     ScreenState
	Unit      ScreenUnit
	MountedAt time.Time
}

// ScreenHost owns the unit shown on the projected surface. At most one mount
// is in flight; requests that arrive meanwhile are dropped, not queued.
type ScreenHost struct {
	sched    *Scheduler
	surface  *Surface
	factory  UnitFactory
	diag     *Diagnostics
	logger   Logger
	mounted  *MountedScreen
	inFlight bool
	released bool
}

func NewScreenHost(sched *Scheduler, surface *Surface, factory UnitFactory, diag *Diagnostics, logger Logger) *ScreenHost {
	if logger == nil {
		logger = NewNopLogger()
	}
	if diag == nil {
		diag = NewDiagnostics(sched.Clock(), logger)
	}
	return &ScreenHost{
		sched:   sched,
		surface: surface,
		factory: factory,
		diag:    diag,
		logger:  logger,
	}
}

func (h *ScreenHost) Busy() bool {
	return h.inFlight
}

func (h *ScreenHost) Surface() *Surface {
	return h.surface
}

func (h *ScreenHost) Mounted() (MountedScreen, bool) {
	if h.mounted == nil {
		return MountedScreen{}, false
	}
	return *h.mounted, true
}

func (h *ScreenHost) Mount(state ScreenState) MountResult {
	if h.released || !state.Valid() {
		return MountRejected
	}
	if h.inFlight {
		h.logger.Debugf("Mount %s dropped, another mount is in flight", state)
		return MountDropped
	}
	if h.mounted != nil && h.mounted.State == state {
		return MountUnchanged
	}

	h.inFlight = true
	h.sched.Post(func() { h.completeMount(state) })
	return MountStarted
}

func (h *ScreenHost) completeMount(state ScreenState) {
	defer func() {
		if r := recover(); r != nil {
			h.diag.Recovered("screen "+state.String(), r)
			if !h.released {
				renderFallback(h.surface.Canvas())
			}
		}
		h.inFlight = false
	}()

	if h.released {
		return
	}
	h.unmount()

	unit, err := h.factory(state)
	if err != nil {
		h.diag.Report("screen "+state.String(), fmt.Errorf("create unit: %w", err))
		renderFallback(h.surface.Canvas())
		return
	}
	h.mounted = &MountedScreen{
		Id:        uuid.New(),
		State:     state,
		Unit:      unit,
		MountedAt: h.sched.Now(),
	}
	h.diag.ScreenCreated = true
	h.logger.Debugf("Mounted screen %s (%s)", state, h.mounted.Id)
	h.render()
}

func (h *ScreenHost) render() {
	h.diag.ContentRendered = false
	if err := h.mounted.Unit.Render(h.surface.Canvas(), h.navigate); err != nil {
		h.diag.Report("screen "+h.mounted.State.String(), fmt.Errorf("render: %w", err))
		renderFallback(h.surface.Canvas())
		return
	}
	h.diag.ContentRendered = true
	h.diag.CurrentScreen = h.mounted.State
}

func (h *ScreenHost) navigate(state ScreenState) {
	h.Mount(state)
}

func (h *ScreenHost) unmount() {
	if h.mounted == nil {
		return
	}
	prev := h.mounted
	h.mounted = nil
	prev.Unit.Teardown()
}

// Animate gives the mounted unit a chance to advance its own animation.
func (h *ScreenHost) Animate(now time.Time) {
	if h.mounted == nil || h.inFlight {
		return
	}
	animated, ok := h.mounted.Unit.(Animated)
	if !ok {
		return
	}
	h.guard("animate", func() {
		if animated.Animate(now, h.navigate) && h.mounted != nil {
			h.render()
		}
	})
}

// Click routes a click in surface pixel coordinates to the mounted unit.
func (h *ScreenHost) Click(x, y int) bool {
	if h.mounted == nil || h.inFlight {
		return false
	}
	onClick, ok := h.surface.HitTest(x, y)
	if !ok {
		return false
	}
	h.guard("click", func() {
		before := h.mounted
		onClick()
		if h.mounted == before && h.mounted != nil && !h.inFlight {
			h.render()
		}
	})
	return true
}

func (h *ScreenHost) guard(action string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.diag.Recovered("screen "+action, r)
		}
	}()
	fn()
}

// Teardown unmounts the current unit and releases the surface. Later mounts
// are rejected.
func (h *ScreenHost) Teardown() {
	if h.released {
		return
	}
	h.guard("teardown", h.unmount)
	h.released = true
	h.surface.regions = nil
}
