package spotlight

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	*coordinatorFixture
	router *InputRouter
	input  *Input
	page   *ScrollPage
	host   *ScreenHost
	sched  *Scheduler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := newCoordinatorFixture()
	f.coordinator.Resize(800, 600)

	sched, _, diag := newTestScheduler()
	host := NewScreenHost(sched, f.surface.surface, NewUnitFactory(UnitOptions{}), diag, nil)
	host.Mount(ScreenDesktop)
	sched.Step()

	input := &Input{}
	page := NewScrollPage(4, 40, 600)
	return &routerFixture{
		coordinatorFixture: f,
		router:             NewInputRouter(input, f.signals, page, f.coordinator, host, nil),
		input:              input,
		page:               page,
		host:               host,
		sched:              sched,
	}
}

func TestInput_PressRelease(t *testing.T) {
	var input Input
	input.press(KeyR)
	input.press(KeyR)
	assert.True(t, input.Pressed[KeyR])
	assert.True(t, input.JustPressed[KeyR])

	input.endFrame()
	assert.True(t, input.Pressed[KeyR])
	assert.False(t, input.JustPressed[KeyR])

	input.release(KeyR)
	assert.False(t, input.Pressed[KeyR])
	assert.True(t, input.JustReleased[KeyR])
}

func TestInputRouter_CursorAndScroll(t *testing.T) {
	f := newRouterFixture(t)

	f.router.OnCursor(800, 0)
	assert.Equal(t, PointerSignal{X: 1, Y: 1, Seen: true}, f.signals.Pointer)

	f.router.OnScroll(-9)
	assert.True(t, f.signals.Scroll.Seen)
	assert.InDelta(t, 360.0/1800.0, f.signals.Scroll.Progress, 1e-6)
}

func TestInputRouter_WindowResizeKeepsProgress(t *testing.T) {
	f := newRouterFixture(t)
	f.page.SetProgress(1, f.signals)

	f.router.OnWindowSize(1024, 300)
	assert.Equal(t, float32(1), f.signals.Scroll.Progress)
	assert.Equal(t, 300.0, f.page.ViewportHeight)

	f.router.OnWindowSize(0, 0)
	assert.Equal(t, 300.0, f.page.ViewportHeight)
}

func TestInputRouter_FramebufferResize(t *testing.T) {
	f := newRouterFixture(t)
	f.router.OnFramebufferSize(1600, 1200)

	w, h := f.coordinator.Viewport()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1200, h)
	assert.Equal(t, f.scene.width, f.surface.width)
}

func TestInputRouter_ClickRoutesToScreen(t *testing.T) {
	f := newRouterFixture(t)
	f.surface.projected = ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 0, 10}), 800, 600)
	c := f.surface.projected.Corners

	// "Open App" on the desktop screen sits around surface pixel (100, 190)
	x := c[0].X() + 100.0/400.0*(c[1].X()-c[0].X())
	y := c[0].Y() + 190.0/300.0*(c[3].Y()-c[0].Y())
	f.router.OnCursor(float64(x), float64(y))

	require.True(t, f.router.OnClick())
	f.sched.Step()
	mounted, _ := f.host.Mounted()
	assert.Equal(t, ScreenApp, mounted.State)
}

func TestInputRouter_ClickOutsideSurface(t *testing.T) {
	f := newRouterFixture(t)
	f.surface.projected = ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 0, 10}), 800, 600)

	f.router.OnCursor(2, 2)
	assert.False(t, f.router.OnClick())
}

func TestInputRouter_ClickScalesToFramebuffer(t *testing.T) {
	f := newRouterFixture(t)
	f.router.OnFramebufferSize(1600, 1200)
	f.surface.projected = ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 0, 10}), 1600, 1200)
	c := f.surface.projected.Corners

	// cursor in window coordinates is half the framebuffer position
	x := c[0].X() + 100.0/400.0*(c[1].X()-c[0].X())
	y := c[0].Y() + 190.0/300.0*(c[3].Y()-c[0].Y())
	f.router.OnCursor(float64(x)/2, float64(y)/2)

	assert.True(t, f.router.OnClick())
}

func TestInputRouter_DetachWithoutWindow(t *testing.T) {
	f := newRouterFixture(t)
	assert.NotPanics(t, f.router.Detach)
}

func TestDebugKeysSystem(t *testing.T) {
	tr, _, _, mounter := newTestTransitions()
	page := NewScrollPage(4, 40, 600)
	page.SetProgress(0.5, tr.signals)
	rig := NewCameraRig(DefaultCameraRigConfig())
	rig.Tick(PointerSignal{X: 1, Y: 1, Seen: true}, tr.signals.Scroll)
	var out, errOut bytes.Buffer
	logger := newLoggerTo(&out, &errOut, "", false)
	diag := NewDiagnostics(nil, logger)
	cmd := &Commands{app: NewApp()}
	input := &Input{}

	input.press(KeyF4)
	debugKeysSystem(cmd, input, tr, page, tr.signals, rig, diag, logger)
	assert.Equal(t, ScreenDesktop, tr.State())
	assert.Equal(t, []ScreenState{ScreenDesktop}, mounter.mounts)
	input.endFrame()

	input.press(KeyR)
	debugKeysSystem(cmd, input, tr, page, tr.signals, rig, diag, logger)
	assert.Equal(t, ScreenNone, tr.State())
	assert.Equal(t, float32(0), tr.signals.Scroll.Progress)
	assert.Equal(t, DefaultCameraRigConfig().InitialPosition, rig.Pose.Position)
	input.endFrame()

	input.press(KeyF12)
	debugKeysSystem(cmd, input, tr, page, tr.signals, rig, diag, logger)
	assert.True(t, logger.DebugEnabled())
	assert.Contains(t, out.String(), "Debug logging true")
	assert.Empty(t, diag.Errors)
}
