package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/spotlight"
)

func init() {
	// glfw and the GPU surface must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "spotlight.toml", "Path to configuration file")
		headless   = flag.Bool("headless", false, "Render with the software layers without opening a window")
		frames     = flag.Int("frames", 0, "Stop after this many frames (0 = until the window closes)")
		out        = flag.String("out", "", "Snapshot path written on exit by the software layers")
		model      = flag.String("model", "", "Laptop model (.glb/.gltf) overriding the config")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := spotlight.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *headless {
		cfg.Window.Headless = true
	}
	if *frames > 0 {
		cfg.Debug.Frames = *frames
	}
	if cfg.Window.Headless && cfg.Debug.Frames == 0 {
		cfg.Debug.Frames = 120
	}
	if *out != "" {
		cfg.Debug.Snapshot = *out
	}
	if *model != "" {
		cfg.Model.Path = *model
	}
	if *debug {
		cfg.Debug.Enabled = true
	}

	builder := spotlight.NewAppBuilder().
		UseStates(spotlight.StateStartup, spotlight.StateShutdown).
		UseModule(
			spotlight.LoggingModule{Prefix: "spotlight", Debug: cfg.Debug.Enabled},
			spotlight.TimeModule{},
			spotlight.AssetServerModule{},
		)
	if cfg.Window.Headless {
		builder.UseModule(spotlight.RendererModule{Prefer: spotlight.RendererSoftware})
	} else {
		builder.UseModule(
			spotlight.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			spotlight.RendererModule{Prefer: spotlight.RendererWGPU},
			spotlight.InputModule{},
		)
	}
	builder.UseModule(
		spotlight.SpotlightModule{Config: cfg},
		spotlight.LifecycleModule{},
	)

	builder.Build().Run()
}
