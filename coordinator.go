package spotlight

import (
	"fmt"
	"time"
)

// SceneRenderer draws one layer of the frame with the shared camera.
type SceneRenderer interface {
	Render(scene *Scene, camera *CameraComponent) error
	SetViewportSize(width, height int)
	Dispose()
}

// SurfaceRenderer draws the 2D screen surface projected into the scene.
type SurfaceRenderer interface {
	SceneRenderer
	Surface() *Surface
	Attach()
	Detach()
	// Projected is the placement computed by the last Render.
	Projected() ProjectedSurface
}

// Presenter finishes a frame after both layers have been recorded.
type Presenter interface {
	Present() error
}

// Coordinator owns the per-frame sequence: camera update, scene layer, then
// surface layer with the same camera.
type Coordinator struct {
	Rig     *CameraRig
	Signals *SignalSampler
	Camera  *CameraComponent
	Scene   *Scene
	Host    *ScreenHost

	scene     SceneRenderer
	surface   SurfaceRenderer
	presenter Presenter
	diag      *Diagnostics

	width    int
	height   int
	frames   uint64
	disposed bool
}

func NewCoordinator(rig *CameraRig, signals *SignalSampler, camera *CameraComponent, scene *Scene,
	sceneRenderer SceneRenderer, surfaceRenderer SurfaceRenderer, presenter Presenter, diag *Diagnostics) *Coordinator {
	return &Coordinator{
		Rig:       rig,
		Signals:   signals,
		Camera:    camera,
		Scene:     scene,
		scene:     sceneRenderer,
		surface:   surfaceRenderer,
		presenter: presenter,
		diag:      diag,
	}
}

func (c *Coordinator) SceneRenderer() SceneRenderer {
	return c.scene
}

func (c *Coordinator) SurfaceRenderer() SurfaceRenderer {
	return c.surface
}

func (c *Coordinator) Viewport() (int, int) {
	return c.width, c.height
}

func (c *Coordinator) Frames() uint64 {
	return c.frames
}

// Tick renders one frame. Failures are reported to diagnostics and never
// escape.
func (c *Coordinator) Tick(now time.Time) {
	if c.disposed {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.diag.Recovered("frame", r)
		}
	}()

	pose := c.Rig.Tick(c.Signals.Pointer, c.Signals.Scroll)
	c.Camera.SetPose(pose)

	if c.Host != nil {
		c.Host.Animate(now)
	}

	if err := c.scene.Render(c.Scene, c.Camera); err != nil {
		c.diag.Report("scene renderer", err)
	}
	if c.surface != nil {
		if err := c.surface.Render(c.Scene, c.Camera); err != nil {
			c.diag.Report("surface renderer", err)
		}
	}
	if c.presenter != nil {
		if err := c.presenter.Present(); err != nil {
			c.diag.Report("present", err)
		}
	}
	c.frames++
}

// Resize updates the camera aspect and hands both layers the same viewport.
// Non-positive sizes (minimized windows) are ignored.
func (c *Coordinator) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.Camera.Aspect = float32(width) / float32(height)
	c.Camera.UpdateProjectionMatrix()
	c.scene.SetViewportSize(width, height)
	if c.surface != nil {
		c.surface.SetViewportSize(width, height)
	}
}

// ProjectClick maps a viewport pixel onto the surface, in surface pixels.
func (c *Coordinator) ProjectClick(x, y float64) (int, int, bool) {
	if c.surface == nil {
		return 0, 0, false
	}
	return c.surface.Projected().SurfacePixel(c.Scene.Surface, float32(x), float32(y))
}

// Dispose releases the surface layer, then the scene layer.
func (c *Coordinator) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.surface != nil {
		c.surface.Detach()
		c.safeDispose("surface renderer", c.surface)
	}
	c.safeDispose("scene renderer", c.scene)
}

func (c *Coordinator) safeDispose(source string, r SceneRenderer) {
	defer func() {
		if rec := recover(); rec != nil {
			c.diag.Report(source, fmt.Errorf("dispose: %v", rec))
		}
	}()
	r.Dispose()
}
