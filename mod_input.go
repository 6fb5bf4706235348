package spotlight

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyR int = iota
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF12
	MouseButtonLeft
	keyCount
)

// Input holds key and button state for the current frame.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY float64
}

func (input *Input) press(key int) {
	if !input.Pressed[key] {
		input.JustPressed[key] = true
	}
	input.Pressed[key] = true
}

func (input *Input) release(key int) {
	if input.Pressed[key] {
		input.JustReleased[key] = true
	}
	input.Pressed[key] = false
}

func (input *Input) endFrame() {
	input.JustPressed = [keyCount]bool{}
	input.JustReleased = [keyCount]bool{}
}

// InputRouter turns window events into signals, viewport changes and clicks.
// Events only store the latest values; nothing here renders.
type InputRouter struct {
	input       *Input
	signals     *SignalSampler
	page        *ScrollPage
	coordinator *Coordinator
	host        *ScreenHost
	logger      Logger

	windowWidth, windowHeight int
	fbWidth, fbHeight         int
	window                    *WindowState
}

func NewInputRouter(input *Input, signals *SignalSampler, page *ScrollPage, coordinator *Coordinator, host *ScreenHost, logger Logger) *InputRouter {
	if logger == nil {
		logger = NewNopLogger()
	}
	w, h := coordinator.Viewport()
	return &InputRouter{
		input:        input,
		signals:      signals,
		page:         page,
		coordinator:  coordinator,
		host:         host,
		logger:       logger,
		windowWidth:  w,
		windowHeight: h,
		fbWidth:      w,
		fbHeight:     h,
	}
}

func (r *InputRouter) OnCursor(x, y float64) {
	r.input.MouseX, r.input.MouseY = x, y
	r.signals.OnPointerMove(x, y, float64(r.windowWidth), float64(r.windowHeight))
}

func (r *InputRouter) OnScroll(dy float64) {
	r.page.Wheel(dy, r.signals)
}

func (r *InputRouter) OnWindowSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.windowWidth, r.windowHeight = width, height
	r.page.Resize(float64(height), r.signals)
}

func (r *InputRouter) OnFramebufferSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.fbWidth, r.fbHeight = width, height
	r.coordinator.Resize(width, height)
}

// OnClick routes a left click at the last cursor position to the screen.
func (r *InputRouter) OnClick() bool {
	sx, sy := 1.0, 1.0
	if r.windowWidth > 0 && r.windowHeight > 0 {
		sx = float64(r.fbWidth) / float64(r.windowWidth)
		sy = float64(r.fbHeight) / float64(r.windowHeight)
	}
	px, py, ok := r.coordinator.ProjectClick(r.input.MouseX*sx, r.input.MouseY*sy)
	if !ok {
		return false
	}
	return r.host.Click(px, py)
}

// Attach installs the glfw callbacks on the window.
func (r *InputRouter) Attach(window *WindowState) {
	r.window = window
	win := window.windowGlfw
	r.windowWidth, r.windowHeight = win.GetSize()
	r.fbWidth, r.fbHeight = win.GetFramebufferSize()

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		r.OnCursor(x, y)
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, dy float64) {
		r.OnScroll(dy)
	})
	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		r.OnWindowSize(width, height)
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		r.OnFramebufferSize(width, height)
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			r.input.press(MouseButtonLeft)
		case glfw.Release:
			r.input.release(MouseButtonLeft)
			r.OnClick()
		}
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		k, ok := glfwToKey[key]
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			r.input.press(k)
		case glfw.Release:
			r.input.release(k)
		}
	})
}

// Detach removes every callback installed by Attach.
func (r *InputRouter) Detach() {
	if r.window == nil || r.window.windowGlfw == nil {
		return
	}
	win := r.window.windowGlfw
	win.SetCursorPosCallback(nil)
	win.SetScrollCallback(nil)
	win.SetSizeCallback(nil)
	win.SetFramebufferSizeCallback(nil)
	win.SetMouseButtonCallback(nil)
	win.SetKeyCallback(nil)
	r.window = nil
}

var glfwToKey = map[glfw.Key]int{
	glfw.KeyR:      KeyR,
	glfw.KeyEscape: KeyEscape,
	glfw.KeyF1:     KeyF1,
	glfw.KeyF2:     KeyF2,
	glfw.KeyF3:     KeyF3,
	glfw.KeyF4:     KeyF4,
	glfw.KeyF5:     KeyF5,
	glfw.KeyF6:     KeyF6,
	glfw.KeyF12:    KeyF12,
}

// debugScreenKeys forces one screen per function key.
var debugScreenKeys = map[int]ScreenState{
	KeyF1: ScreenNone,
	KeyF2: ScreenBootup,
	KeyF3: ScreenHome,
	KeyF4: ScreenDesktop,
	KeyF5: ScreenApp,
	KeyF6: ScreenBrowser,
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(attachInputSystem).
			InStage(PostUpdate).
			InState(OnEnter(StateStartup)),
	)
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(debugKeysSystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(endInputFrameSystem).
			InStage(Finale).
			RunAlways(),
	)
}

func attachInputSystem(cmd *Commands, input *Input, signals *SignalSampler, page *ScrollPage,
	coordinator *Coordinator, host *ScreenHost, logger Logger) {
	router := NewInputRouter(input, signals, page, coordinator, host, logger)
	if window, ok := Resource[WindowState](cmd.app); ok {
		router.Attach(window)
		page.Resize(float64(router.windowHeight), signals)
	}
	cmd.AddResources(router)
}

func inputSystem(cmd *Commands) {
	if _, ok := Resource[WindowState](cmd.app); ok {
		glfw.PollEvents()
	}
}

func debugKeysSystem(cmd *Commands, input *Input, transitions *ScreenTransitions, page *ScrollPage,
	signals *SignalSampler, rig *CameraRig, diag *Diagnostics, logger Logger) {
	for key, screen := range debugScreenKeys {
		if input.JustPressed[key] {
			if err := transitions.ForceTransition(screen); err != nil {
				diag.Report("debug", err)
			}
		}
	}
	if input.JustPressed[KeyR] {
		transitions.Reset()
		page.SetProgress(0, signals)
		rig.Reset()
		logger.Infof("Reset scroll, camera and screen")
	}
	if input.JustPressed[KeyF12] {
		logger.SetDebug(!logger.DebugEnabled())
		logger.Infof("Debug logging %v; %s", logger.DebugEnabled(), diag.Summary())
	}
	if input.JustPressed[KeyEscape] {
		cmd.ChangeState(StateShutdown)
	}
}

func endInputFrameSystem(input *Input) {
	input.endFrame()
}
