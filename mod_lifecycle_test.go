package spotlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = 96, 54
	cfg.Window.Headless = true
	cfg.Model.Path = ""
	cfg.Debug.Frames = 3
	cfg.Debug.Snapshot = filepath.Join(t.TempDir(), "frame.png")
	return cfg
}

func buildHeadlessApp(cfg *Config) *App {
	return NewAppBuilder().
		UseStates(StateStartup, StateShutdown).
		UseModule(
			TimeModule{Clock: NewManualClock(testEpoch)},
			AssetServerModule{},
			RendererModule{Prefer: RendererSoftware},
			SpotlightModule{Config: cfg},
			LifecycleModule{},
		).
		Build()
}

func TestHeadlessRun(t *testing.T) {
	cfg := headlessConfig(t)
	app := buildHeadlessApp(cfg)
	app.Run()

	assert.Equal(t, StateShutdown, app.State())

	coordinator, ok := Resource[Coordinator](app)
	require.True(t, ok)
	assert.Equal(t, uint64(3), coordinator.Frames())

	layers, ok := Resource[RenderLayers](app)
	require.True(t, ok)
	assert.Equal(t, RendererSoftware, layers.Name)
	assert.Equal(t, 3, layers.Snapshot.Frames)

	info, err := os.Stat(cfg.Debug.Snapshot)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	host, ok := Resource[ScreenHost](app)
	require.True(t, ok)
	assert.Equal(t, MountRejected, host.Mount(ScreenHome), "host torn down on shutdown")

	loop, ok := Resource[RenderLoop](app)
	require.True(t, ok)
	assert.False(t, loop.Running())

	diag, ok := Resource[Diagnostics](app)
	require.True(t, ok)
	assert.Equal(t, "software", diag.Renderer)
	assert.True(t, diag.SurfaceAvailable)
	assert.Empty(t, diag.Errors)
}

func TestHeadlessRun_MissingModelFallsBack(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Model.Path = filepath.Join(t.TempDir(), "missing.glb")
	cfg.Debug.Snapshot = ""
	app := buildHeadlessApp(cfg)
	app.Run()

	scene, ok := Resource[Scene](app)
	require.True(t, ok)
	assert.NotEmpty(t, scene.Instances, "procedural laptop stands in")

	diag, _ := Resource[Diagnostics](app)
	assert.Empty(t, diag.Errors)
}

func TestRendererModule_SingleRenderer(t *testing.T) {
	app := NewAppBuilder().
		UseStates(StateStartup, StateShutdown).
		UseModule(RendererModule{Prefer: RendererSoftware}).
		Build()
	assert.NotPanics(t, func() { app.UseModules(RendererModule{Prefer: RendererSoftware}) })
	assert.Panics(t, func() { app.UseModules(RendererModule{Prefer: RendererWGPU}) })
}
