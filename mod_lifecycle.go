package spotlight

const (
	StateStartup State = iota
	StateRunning
	StateShutdown
)

// LifecycleModule drives the app from startup through running to shutdown.
// Use it with UseStates(StateStartup, StateShutdown).
type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(finishStartupSystem).
			InStage(Finale).
			InState(OnExecute(StateStartup)),
	)
	app.UseSystem(
		System(startLoopsSystem).
			InStage(Update).
			InState(OnEnter(StateRunning)),
	)
	app.UseSystem(
		System(runBudgetSystem).
			InStage(Finale).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(shutdownSystem).
			InStage(Update).
			InState(OnEnter(StateShutdown)),
	)
}

func finishStartupSystem(cmd *Commands) {
	cmd.ChangeState(StateRunning)
}

func startLoopsSystem(loop *RenderLoop, transitions *ScreenTransitions, logger Logger) {
	loop.Start()
	transitions.Start()
	logger.Debugf("Render loop and transition ticker started")
}

// runBudgetSystem ends the run when the window closes or the configured frame
// budget is spent.
func runBudgetSystem(cmd *Commands, cfg *Config, coordinator *Coordinator) {
	if window, ok := Resource[WindowState](cmd.app); ok && window.ShouldClose() {
		cmd.ChangeState(StateShutdown)
		return
	}
	if cfg.Debug.Frames > 0 && coordinator.Frames() >= uint64(cfg.Debug.Frames) {
		cmd.ChangeState(StateShutdown)
	}
}

// shutdownSystem tears everything down: render loop, transition ticker,
// input callbacks, surface layer, scene layer, then the mounted screen.
func shutdownSystem(cmd *Commands, cfg *Config, loop *RenderLoop, transitions *ScreenTransitions,
	coordinator *Coordinator, host *ScreenHost, layers *RenderLayers, diag *Diagnostics, logger Logger) {
	loop.Stop()
	transitions.Stop()
	if router, ok := Resource[InputRouter](cmd.app); ok {
		router.Detach()
	}

	if err := layers.SaveSnapshot(cfg.Debug.Snapshot, cfg.Debug.SnapshotSize); err != nil {
		diag.Report("snapshot", err)
	} else if layers.Snapshot != nil && cfg.Debug.Snapshot != "" {
		logger.Infof("Snapshot written to %s after %d frames", cfg.Debug.Snapshot, coordinator.Frames())
	}

	coordinator.Dispose()
	host.Teardown()
	layers.Release()
	if window, ok := Resource[WindowState](cmd.app); ok {
		window.Destroy()
	}
	if len(diag.Errors) > 0 {
		logger.Warnf("%s", diag.Summary())
	}
}
