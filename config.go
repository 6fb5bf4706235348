package spotlight

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl32"
)

type Config struct {
	Window      WindowConfig      `toml:"window"`
	Camera      CameraConfig      `toml:"camera"`
	Transitions TransitionsConfig `toml:"transitions"`
	Screen      ScreenConfig      `toml:"screen"`
	Model       ModelConfig       `toml:"model"`
	Lighting    LightingConfig    `toml:"lighting"`
	Floor       FloorConfig       `toml:"floor"`
	Debug       DebugConfig       `toml:"debug"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	// Headless renders with the software layers and writes a snapshot
	// instead of opening a window.
	Headless bool `toml:"headless"`
	// PageViewports is the virtual page height in viewport heights.
	PageViewports float64 `toml:"page_viewports"`
	WheelLine     float64 `toml:"wheel_line"`
}

type CameraConfig struct {
	Fov                  float32    `toml:"fov"`
	Near                 float32    `toml:"near"`
	Far                  float32    `toml:"far"`
	Smoothing            float32    `toml:"smoothing"`
	BaseRadius           float32    `toml:"base_radius"`
	MaxRadius            float32    `toml:"max_radius"`
	InitialHeight        float32    `toml:"initial_height"`
	ScrollHeightFactor   float32    `toml:"scroll_height_factor"`
	BaseSensitivity      float32    `toml:"base_sensitivity"`
	SensitivityReduction float32    `toml:"sensitivity_reduction"`
	MaxAngleX            float32    `toml:"max_angle_x"`
	MaxAngleY            float32    `toml:"max_angle_y"`
	InitialPosition      [3]float32 `toml:"initial_position"`
	FinalPosition        [3]float32 `toml:"final_position"`
	InitialLookAt        [3]float32 `toml:"initial_look_at"`
	FinalLookAt          [3]float32 `toml:"final_look_at"`
}

type TransitionsConfig struct {
	BootThreshold  float32  `toml:"boot_threshold"`
	ResetThreshold float32  `toml:"reset_threshold"`
	BootDelay      Duration `toml:"boot_delay"`
	Debounce       Duration `toml:"debounce"`
	ProgressDelta  float32  `toml:"progress_delta"`
	TickInterval   Duration `toml:"tick_interval"`
}

type ScreenConfig struct {
	Width      float32    `toml:"width"`
	Height     float32    `toml:"height"`
	Position   [3]float32 `toml:"position"`
	Rotation   [3]float32 `toml:"rotation"`
	Scale      float32    `toml:"scale"`
	BootTime   Duration   `toml:"boot_time"`
	BrowserURL string     `toml:"browser_url"`
	Wallpaper  string     `toml:"wallpaper"`
	Documents  []Document `toml:"documents"`
}

type ModelConfig struct {
	Path     string     `toml:"path"`
	Scale    float32    `toml:"scale"`
	Position [3]float32 `toml:"position"`
	// Tint multiplies material colors; the laptop is darkened by default.
	Tint float32 `toml:"tint"`
}

type LightingConfig struct {
	Exposure   float32       `toml:"exposure"`
	Background [3]float32    `toml:"background"`
	Lights     []LightConfig `toml:"lights"`
}

type LightConfig struct {
	Type        string     `toml:"type"`
	Position    [3]float32 `toml:"position"`
	Target      [3]float32 `toml:"target"`
	Color       string     `toml:"color"`
	GroundColor string     `toml:"ground_color"`
	Intensity   float32    `toml:"intensity"`
	Range       float32    `toml:"range"`
	ConeAngle   float32    `toml:"cone_angle"`
	Penumbra    float32    `toml:"penumbra"`
	Decay       float32    `toml:"decay"`
}

type FloorConfig struct {
	Size        float32 `toml:"size"`
	Y           float32 `toml:"y"`
	Color       string  `toml:"color"`
	GridSpacing float32 `toml:"grid_spacing"`
}

type DebugConfig struct {
	Enabled bool `toml:"enabled"`
	// Frames limits the run to a number of frames; 0 runs until closed.
	Frames       int    `toml:"frames"`
	Snapshot     string `toml:"snapshot"`
	SnapshotSize int    `toml:"snapshot_width"`
}

// LoadFromFile reads configuration from path. A missing file yields the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes TOML over the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	rig := DefaultCameraRigConfig()
	tr := DefaultTransitionConfig()
	surface := DefaultSurfaceDef()
	floor := DefaultFloorDef()
	return &Config{
		Window: WindowConfig{
			Width:         1280,
			Height:        720,
			Title:         "Spotlight",
			PageViewports: 4,
			WheelLine:     40,
		},
		Camera: CameraConfig{
			Fov:                  20,
			Near:                 0.1,
			Far:                  1000,
			Smoothing:            rig.Smoothing,
			BaseRadius:           rig.BaseRadius,
			MaxRadius:            rig.MaxRadius,
			InitialHeight:        rig.InitialHeight,
			ScrollHeightFactor:   rig.ScrollHeightFactor,
			BaseSensitivity:      rig.BaseSensitivity,
			SensitivityReduction: rig.SensitivityReduction,
			MaxAngleX:            rig.MaxAngleX,
			MaxAngleY:            rig.MaxAngleY,
			InitialPosition:      rig.InitialPosition,
			FinalPosition:        rig.FinalPosition,
			InitialLookAt:        rig.InitialLookAt,
			FinalLookAt:          rig.FinalLookAt,
		},
		Transitions: TransitionsConfig{
			BootThreshold:  tr.BootThreshold,
			ResetThreshold: tr.ResetThreshold,
			BootDelay:      Duration{tr.BootDelay},
			Debounce:       Duration{tr.Debounce},
			ProgressDelta:  tr.ProgressDelta,
			TickInterval:   Duration{tr.TickInterval},
		},
		Screen: ScreenConfig{
			Width:      surface.Width,
			Height:     surface.Height,
			Position:   surface.Position,
			Rotation:   surface.Rotation,
			Scale:      surface.Scale,
			BootTime:   Duration{time.Second},
			BrowserURL: "https://mywebsite.com",
		},
		Model: ModelConfig{
			Path:  "models/macbook_dark.glb",
			Scale: 1,
			Tint:  0.6,
		},
		Lighting: LightingConfig{
			Exposure: 1.2,
		},
		Floor: FloorConfig{
			Size:        floor.Size,
			Y:           floor.Y,
			Color:       "#333333",
			GridSpacing: floor.GridSpacing,
		},
		Debug: DebugConfig{
			Snapshot: "spotlight.png",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPOTLIGHT_DEBUG"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Debug.Enabled = enabled
		}
	}
	if v := os.Getenv("SPOTLIGHT_MODEL"); v != "" {
		cfg.Model.Path = v
	}
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Transitions.ResetThreshold > c.Transitions.BootThreshold {
		return fmt.Errorf("reset threshold %.2f above boot threshold %.2f",
			c.Transitions.ResetThreshold, c.Transitions.BootThreshold)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %vx%v", c.Screen.Width, c.Screen.Height)
	}
	for i, l := range c.Lighting.Lights {
		if _, err := parseLightType(l.Type); err != nil {
			return fmt.Errorf("light %d: %w", i, err)
		}
	}
	return nil
}

func (c *Config) CameraRig() CameraRigConfig {
	cam := c.Camera
	return CameraRigConfig{
		BaseRadius:           cam.BaseRadius,
		MaxRadius:            cam.MaxRadius,
		Smoothing:            cam.Smoothing,
		InitialHeight:        cam.InitialHeight,
		ScrollHeightFactor:   cam.ScrollHeightFactor,
		BaseSensitivity:      cam.BaseSensitivity,
		SensitivityReduction: cam.SensitivityReduction,
		MaxAngleX:            cam.MaxAngleX,
		MaxAngleY:            cam.MaxAngleY,
		InitialPosition:      cam.InitialPosition,
		FinalPosition:        cam.FinalPosition,
		InitialLookAt:        cam.InitialLookAt,
		FinalLookAt:          cam.FinalLookAt,
	}
}

func (c *Config) TransitionConfig() TransitionConfig {
	t := c.Transitions
	return TransitionConfig{
		BootThreshold:  t.BootThreshold,
		ResetThreshold: t.ResetThreshold,
		BootDelay:      t.BootDelay.Duration,
		Debounce:       t.Debounce.Duration,
		ProgressDelta:  t.ProgressDelta,
		TickInterval:   t.TickInterval.Duration,
	}
}

func (c *Config) SurfaceDef() SurfaceDef {
	return SurfaceDef{
		Width:    c.Screen.Width,
		Height:   c.Screen.Height,
		Position: c.Screen.Position,
		Rotation: c.Screen.Rotation,
		Scale:    c.Screen.Scale,
	}
}

func (c *Config) FloorDef() FloorDef {
	col, err := parseHexColor(c.Floor.Color)
	if err != nil {
		col = DefaultFloorDef().Color
	}
	return FloorDef{
		Size:        c.Floor.Size,
		Y:           c.Floor.Y,
		Color:       col,
		GridSpacing: c.Floor.GridSpacing,
	}
}

// Lights returns the configured lights, or the default rig when none are
// configured.
func (c *Config) Lights() []LightDef {
	if len(c.Lighting.Lights) == 0 {
		return DefaultLights()
	}
	out := make([]LightDef, 0, len(c.Lighting.Lights))
	for _, l := range c.Lighting.Lights {
		kind, err := parseLightType(l.Type)
		if err != nil {
			continue
		}
		col, err := parseHexColor(l.Color)
		if err != nil {
			col = hexColor(0xffffff)
		}
		ground, err := parseHexColor(l.GroundColor)
		if err != nil {
			ground = col
		}
		out = append(out, LightDef{
			Type:        kind,
			Position:    l.Position,
			Target:      l.Target,
			Color:       col,
			GroundColor: ground,
			Intensity:   l.Intensity,
			Range:       l.Range,
			ConeAngle:   l.ConeAngle,
			Penumbra:    l.Penumbra,
			Decay:       l.Decay,
		})
	}
	return out
}

// ModelTransform places the model at its configured position and scale.
func (c *Config) ModelTransform() mgl32.Mat4 {
	s := c.Model.Scale
	if s <= 0 || math.IsNaN(float64(s)) {
		s = 1
	}
	p := c.Model.Position
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(mgl32.Scale3D(s, s, s))
}

func parseLightType(name string) (LightType, error) {
	switch name {
	case "point":
		return LightTypePoint, nil
	case "spot":
		return LightTypeSpot, nil
	case "ambient":
		return LightTypeAmbient, nil
	case "hemisphere":
		return LightTypeHemisphere, nil
	}
	return 0, fmt.Errorf("unknown light type %q", name)
}

// parseHexColor accepts "#rrggbb", "rrggbb" or "0xrrggbb".
func parseHexColor(s string) ([3]float32, error) {
	switch {
	case len(s) > 0 && s[0] == '#':
		s = s[1:]
	case len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X"):
		s = s[2:]
	}
	if len(s) != 6 {
		return [3]float32{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [3]float32{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return hexColor(uint32(v)), nil
}
