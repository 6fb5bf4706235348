package spotlight

// RendererName identifies a concrete pair of render layers.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererSoftware RendererName = "software"
)

// RenderLayers is the renderer pair the coordinator drives.
type RenderLayers struct {
	Name      RendererName
	Scene     SceneRenderer
	Surface   SurfaceRenderer
	Presenter Presenter
	// Snapshot is set for the software layers.
	Snapshot *SnapshotPresenter
	gpu      *GpuState
}

// Release frees the device after both layers were disposed.
func (l *RenderLayers) Release() {
	if l.gpu != nil {
		l.gpu.Release()
		l.gpu = nil
	}
}

// RendererModule selects the render layers on startup. The GPU layers are
// preferred when a window exists; any GPU failure falls back to software.
type RendererModule struct {
	Prefer RendererName
}

func (m RendererModule) Install(app *App, cmd *Commands) {
	prefer := m.Prefer
	if prefer == "" {
		prefer = RendererWGPU
	}
	ensureSingleRenderer(app, prefer)
	app.UseSystem(
		System(setupRenderersSystem).
			InStage(PreUpdate).
			InState(OnEnter(StateStartup)),
	)
}

func setupRenderersSystem(cmd *Commands, tag *RendererTag, cfg *Config, scene *Scene, surface *Surface, diag *Diagnostics, logger Logger) {
	window, _ := Resource[WindowState](cmd.app)
	width, height := cfg.Window.Width, cfg.Window.Height
	if window != nil {
		width, height = window.WindowWidth, window.WindowHeight
	}

	var layers *RenderLayers
	if tag.Name == RendererWGPU && window != nil {
		layers = selectGpuLayers(window, scene, surface, diag, logger.Named("gpu"))
	}
	if layers == nil {
		if tag.Name == RendererWGPU {
			logger.Warnf("GPU layers unavailable, rendering in software")
		}
		layers = softwareLayers(width, height, surface)
		diag.SurfaceAvailable = true
	}
	diag.Renderer = string(layers.Name)
	logger.Infof("Renderer selected: %s", layers.Name)
	cmd.AddResources(layers)
}

func selectGpuLayers(window *WindowState, scene *Scene, surface *Surface, diag *Diagnostics, logger Logger) *RenderLayers {
	gpu, err := createGpuState(window)
	if err != nil {
		diag.Report("gpu", err)
		return nil
	}
	sceneLayer, err := newGpuSceneRenderer(gpu)
	if err != nil {
		diag.Report("scene renderer", err)
		gpu.Release()
		return nil
	}
	layers := &RenderLayers{Name: RendererWGPU, Scene: sceneLayer, Presenter: gpu, gpu: gpu}

	surfaceLayer, err := newGpuSurfaceRenderer(gpu, scene.Surface, surface)
	if err != nil {
		diag.Report("surface renderer", err)
		logger.Warnf("Surface layer unavailable, showing placeholder screen")
		placeholder := fallbackScreenMesh(scene.Surface)
		scene.Add(placeholder.Mesh, placeholder.Transform)
		layers.Surface = &placeholderSurfaceRenderer{surface: surface}
		diag.SurfaceAvailable = false
		return layers
	}
	layers.Surface = surfaceLayer
	diag.SurfaceAvailable = true
	return layers
}

func softwareLayers(width, height int, surface *Surface) *RenderLayers {
	target := NewSoftwareTarget(width, height)
	snapshot := NewSnapshotPresenter(target)
	return &RenderLayers{
		Name:      RendererSoftware,
		Scene:     newSoftwareSceneRenderer(target),
		Surface:   newSoftwareSurfaceRenderer(target, surface),
		Presenter: snapshot,
		Snapshot:  snapshot,
	}
}

// placeholderSurfaceRenderer stands in when the surface layer failed to
// initialize. The scene layer draws the placeholder panel; clicks are not
// routed.
type placeholderSurfaceRenderer struct {
	surface *Surface
}

func (r *placeholderSurfaceRenderer) Render(*Scene, *CameraComponent) error { return nil }
func (r *placeholderSurfaceRenderer) SetViewportSize(int, int)              {}
func (r *placeholderSurfaceRenderer) Dispose()                              {}
func (r *placeholderSurfaceRenderer) Surface() *Surface                     { return r.surface }
func (r *placeholderSurfaceRenderer) Attach()                               {}
func (r *placeholderSurfaceRenderer) Detach()                               {}
func (r *placeholderSurfaceRenderer) Projected() ProjectedSurface           { return ProjectedSurface{} }
