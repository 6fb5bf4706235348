package spotlight

import (
	"errors"
)

// SpotlightModule wires the laptop scene: signals, camera rig, scene, screen
// host, transitions and the frame coordinator. Renderers come from
// RendererModule.
type SpotlightModule struct {
	Config *Config
}

func (m SpotlightModule) Install(app *App, cmd *Commands) {
	cfg := m.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cmd.AddResources(cfg)

	app.UseSystem(
		System(setupSceneSystem).
			InStage(Prelude).
			InState(OnEnter(StateStartup)),
	)
	app.UseSystem(
		System(setupScreensSystem).
			InStage(Update).
			InState(OnEnter(StateStartup)),
	)
	app.UseSystem(
		System(stepSchedulerSystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
}

func setupSceneSystem(cmd *Commands, cfg *Config, assets *AssetServer, t *Time, logger Logger) {
	diag := NewDiagnostics(t.Clock(), logger)
	sched := NewScheduler(t.Clock(), diag)

	surfaceDef := cfg.SurfaceDef()
	def := SceneDef{
		Lights:   cfg.Lights(),
		Surface:  surfaceDef,
		Floor:    cfg.FloorDef(),
		Exposure: cfg.Lighting.Exposure,
	}
	if cfg.Model.Path != "" {
		model, err := assets.LoadModel(cfg.Model.Path, cfg.ModelTransform(), cfg.Model.Tint)
		switch {
		case errors.Is(err, ErrModelNotFound):
			logger.Warnf("Model %s not found, using procedural laptop", cfg.Model.Path)
		case err != nil:
			diag.Report("model", err)
		default:
			logger.Infof("Loaded model %s (%d meshes)", model.Path, len(model.Instances))
			def.Model = model
		}
	}
	scene := BuildScene(def)
	scene.Background = cfg.Lighting.Background

	camera := NewCamera(cfg.Camera.Fov, float32(cfg.Window.Width)/float32(cfg.Window.Height), cfg.Camera.Near, cfg.Camera.Far)
	rig := NewCameraRig(cfg.CameraRig())
	camera.SetPose(rig.Pose)

	signals := &SignalSampler{}
	page := NewScrollPage(cfg.Window.PageViewports, cfg.Window.WheelLine, float64(cfg.Window.Height))
	surface := NewSurface(int(surfaceDef.Width), int(surfaceDef.Height))

	cmd.AddResources(diag, sched, scene, camera, rig, signals, page, surface)
}

func setupScreensSystem(cmd *Commands, cfg *Config, assets *AssetServer, sched *Scheduler, diag *Diagnostics,
	surface *Surface, signals *SignalSampler, scene *Scene, rig *CameraRig, camera *CameraComponent,
	layers *RenderLayers, logger Logger) {
	opts := UnitOptions{
		Documents:  cfg.Screen.Documents,
		BrowserURL: cfg.Screen.BrowserURL,
		BootTime:   cfg.Screen.BootTime.Duration,
	}
	if cfg.Screen.Wallpaper != "" {
		img, err := assets.LoadImage(cfg.Screen.Wallpaper)
		if err != nil {
			diag.Report("wallpaper", err)
		} else {
			opts.Wallpaper = img.Image
		}
	}

	host := NewScreenHost(sched, surface, NewUnitFactory(opts), diag, logger.Named("screen"))
	transitions := NewScreenTransitions(cfg.TransitionConfig(), sched, host, signals, logger.Named("transitions"))
	transitions.OnChange(func(from, to ScreenState) {
		logger.Infof("Screen %s -> %s", from, to)
	})

	coordinator := NewCoordinator(rig, signals, camera, scene, layers.Scene, layers.Surface, layers.Presenter, diag)
	coordinator.Host = host
	width, height := cfg.Window.Width, cfg.Window.Height
	if window, ok := Resource[WindowState](cmd.app); ok {
		width, height = window.WindowWidth, window.WindowHeight
	}
	coordinator.Resize(width, height)

	loop := NewRenderLoop(sched, coordinator.Tick)
	host.Mount(ScreenNone)

	cmd.AddResources(host, transitions, coordinator, loop)
}

func stepSchedulerSystem(sched *Scheduler) {
	sched.Step()
}

// SaveSnapshot writes the software framebuffer, if any.
func (l *RenderLayers) SaveSnapshot(path string, width int) error {
	if l.Snapshot == nil || path == "" {
		return nil
	}
	return l.Snapshot.Save(path, width)
}
