package spotlight

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var magenta = color.RGBA{0xff, 0x00, 0xff, 0xff}

type fakeUnit struct {
	state     ScreenState
	renders   int
	teardowns int
	renderErr error
	panicOn   string
}

func (u *fakeUnit) Screen() ScreenState { return u.state }

func (u *fakeUnit) Render(c *Canvas, _ Navigator) error {
	if u.panicOn == "render" {
		panic("render exploded")
	}
	u.renders++
	c.Clear(colBlack)
	return u.renderErr
}

func (u *fakeUnit) Teardown() {
	u.teardowns++
}

type fakeUnits struct {
	created map[ScreenState]*fakeUnit
	err     error
	panicOn string
}

func (f *fakeUnits) factory(state ScreenState) (ScreenUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &fakeUnit{state: state, panicOn: f.panicOn}
	f.created[state] = u
	return u, nil
}

func newTestHost(units *fakeUnits) (*ScreenHost, *Scheduler, *Diagnostics) {
	sched, _, diag := newTestScheduler()
	if units == nil {
		return NewScreenHost(sched, NewSurface(400, 300), NewUnitFactory(UnitOptions{}), diag, nil), sched, diag
	}
	units.created = map[ScreenState]*fakeUnit{}
	return NewScreenHost(sched, NewSurface(400, 300), units.factory, diag, nil), sched, diag
}

func TestScreenHost_MountIsDeferred(t *testing.T) {
	units := &fakeUnits{}
	host, sched, diag := newTestHost(units)

	assert.Equal(t, MountStarted, host.Mount(ScreenHome))
	assert.True(t, host.Busy())
	_, ok := host.Mounted()
	assert.False(t, ok)

	sched.Step()
	mounted, ok := host.Mounted()
	require.True(t, ok)
	assert.Equal(t, ScreenHome, mounted.State)
	assert.False(t, host.Busy())
	assert.True(t, diag.ScreenCreated)
	assert.True(t, diag.ContentRendered)
	assert.Equal(t, 1, units.created[ScreenHome].renders)
}

func TestScreenHost_MountIdempotent(t *testing.T) {
	units := &fakeUnits{}
	host, sched, _ := newTestHost(units)

	host.Mount(ScreenDesktop)
	sched.Step()
	first, _ := host.Mounted()

	assert.Equal(t, MountUnchanged, host.Mount(ScreenDesktop))
	sched.Step()
	second, _ := host.Mounted()
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 1, units.created[ScreenDesktop].renders)
}

func TestScreenHost_DropsWhileInFlight(t *testing.T) {
	units := &fakeUnits{}
	host, sched, _ := newTestHost(units)

	require.Equal(t, MountStarted, host.Mount(ScreenApp))
	assert.Equal(t, MountDropped, host.Mount(ScreenBrowser))
	sched.Step()

	mounted, _ := host.Mounted()
	assert.Equal(t, ScreenApp, mounted.State)
	assert.NotContains(t, units.created, ScreenBrowser)
}

func TestScreenHost_TearsDownPrevious(t *testing.T) {
	units := &fakeUnits{}
	host, sched, _ := newTestHost(units)

	host.Mount(ScreenApp)
	sched.Step()
	host.Mount(ScreenBrowser)
	sched.Step()

	assert.Equal(t, 1, units.created[ScreenApp].teardowns)
	assert.Equal(t, 0, units.created[ScreenBrowser].teardowns)
}

func TestScreenHost_PanicShowsFallback(t *testing.T) {
	units := &fakeUnits{panicOn: "render"}
	host, sched, diag := newTestHost(units)

	host.Mount(ScreenApp)
	sched.Step()

	assert.False(t, host.Busy())
	assert.False(t, diag.ContentRendered)
	last, ok := diag.LastError()
	require.True(t, ok)
	assert.Equal(t, "screen app", last.Source)
	assert.Contains(t, last.Message, "render exploded")
	assert.Equal(t, magenta, host.Surface().Image.RGBAAt(20, 20))

	// the host keeps accepting mounts afterwards
	units.panicOn = ""
	assert.Equal(t, MountStarted, host.Mount(ScreenBrowser))
}

func TestScreenHost_FactoryErrorShowsFallback(t *testing.T) {
	units := &fakeUnits{err: errors.New("no unit")}
	host, sched, diag := newTestHost(units)

	host.Mount(ScreenHome)
	sched.Step()

	_, ok := host.Mounted()
	assert.False(t, ok)
	assert.Len(t, diag.Errors, 1)
	assert.Equal(t, magenta, host.Surface().Image.RGBAAt(20, 20))
}

func TestScreenHost_RenderErrorShowsFallback(t *testing.T) {
	units := &fakeUnits{}
	host, sched, diag := newTestHost(units)
	host.factory = func(state ScreenState) (ScreenUnit, error) {
		return &fakeUnit{state: state, renderErr: errors.New("bad frame")}, nil
	}

	host.Mount(ScreenDesktop)
	sched.Step()

	assert.False(t, diag.ContentRendered)
	assert.Equal(t, magenta, host.Surface().Image.RGBAAt(20, 20))
}

func TestScreenHost_ClickNavigates(t *testing.T) {
	host, sched, _ := newTestHost(nil)
	host.Mount(ScreenDesktop)
	sched.Step()

	// "Open App" button on a 400x300 surface
	assert.True(t, host.Click(100, 190))
	assert.True(t, host.Busy())
	sched.Step()

	mounted, _ := host.Mounted()
	assert.Equal(t, ScreenApp, mounted.State)

	assert.False(t, host.Click(5, 295), "no region there")
}

func TestScreenHost_ClickIgnoredWhileInFlight(t *testing.T) {
	host, sched, _ := newTestHost(nil)
	host.Mount(ScreenDesktop)
	sched.Step()
	host.Mount(ScreenApp)

	assert.False(t, host.Click(100, 190))
}

func TestScreenHost_AnimateBootNavigatesHome(t *testing.T) {
	sched, clock, diag := newTestScheduler()
	host := NewScreenHost(sched, NewSurface(400, 300), NewUnitFactory(UnitOptions{BootTime: time.Second}), diag, nil)

	host.Mount(ScreenBootup)
	sched.Step()
	host.Animate(clock.Now())

	clock.Advance(1100 * time.Millisecond)
	host.Animate(clock.Now())
	assert.True(t, host.Busy())
	sched.Step()

	mounted, _ := host.Mounted()
	assert.Equal(t, ScreenHome, mounted.State)
}

func TestScreenHost_Teardown(t *testing.T) {
	units := &fakeUnits{}
	host, sched, _ := newTestHost(units)
	host.Mount(ScreenApp)
	sched.Step()

	host.Teardown()
	host.Teardown()

	assert.Equal(t, 1, units.created[ScreenApp].teardowns)
	assert.Equal(t, MountRejected, host.Mount(ScreenHome))
	_, ok := host.Mounted()
	assert.False(t, ok)
}

func TestScreenHost_TeardownWhileInFlight(t *testing.T) {
	units := &fakeUnits{}
	host, sched, _ := newTestHost(units)

	host.Mount(ScreenApp)
	host.Teardown()
	sched.Step()

	assert.Empty(t, units.created)
	assert.False(t, host.Busy())
}

func TestSurface_HitTestTopMost(t *testing.T) {
	s := NewSurface(100, 100)
	c := s.Canvas()
	var hit string
	c.Region(image.Rect(0, 0, 100, 100), func() { hit = "back" })
	c.Region(image.Rect(10, 10, 20, 20), func() { hit = "front" })

	fn, ok := s.HitTest(15, 15)
	require.True(t, ok)
	fn()
	assert.Equal(t, "front", hit)

	fn, ok = s.HitTest(50, 50)
	require.True(t, ok)
	fn()
	assert.Equal(t, "back", hit)

	c.Clear(colBlack)
	_, ok = s.HitTest(15, 15)
	assert.False(t, ok)
}
