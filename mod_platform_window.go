package spotlight

// PlatformWindowModule creates the shared GLFW window (WindowState) used by
// the GPU layers and input callbacks. If the window cannot be created the app
// continues without one and renders in software.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Spotlight"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

// Install provides the WindowState resource if missing.
func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		app.Logger().Warnf("No window available: %v", err)
		return
	}
	app.Logger().Infof("Created window (%dx%d) '%s'", ws.WindowWidth, ws.WindowHeight, m.Title)
	cmd.AddResources(ws)
}
