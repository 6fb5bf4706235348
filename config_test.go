package spotlight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Setenv("SPOTLIGHT_DEBUG", "")
	t.Setenv("SPOTLIGHT_MODEL", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(20), cfg.Camera.Fov)
	assert.Equal(t, 2*time.Second, cfg.Transitions.BootDelay.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Transitions.Debounce.Duration)
	assert.Equal(t, DefaultCameraRigConfig(), cfg.CameraRig())
	assert.Equal(t, DefaultTransitionConfig(), cfg.TransitionConfig())
	assert.Equal(t, DefaultSurfaceDef(), cfg.SurfaceDef())
	assert.Equal(t, DefaultFloorDef(), cfg.FloorDef())
	assert.Equal(t, DefaultLights(), cfg.Lights())
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadFromReader(strings.NewReader(`
[window]
width = 640
height = 480

[transitions]
boot_delay = "1500ms"
boot_threshold = 0.5

[screen]
browser_url = "https://example.org"

[[screen.documents]]
name = "Resume"
path = "docs/resume.txt"

[[lighting.lights]]
type = "spot"
position = [0.0, 3.0, 0.0]
color = "#ff8800"
intensity = 2.0
cone_angle = 0.6
`))
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, "Spotlight", cfg.Window.Title, "untouched keys keep defaults")
	assert.Equal(t, 1500*time.Millisecond, cfg.TransitionConfig().BootDelay)
	assert.Equal(t, float32(0.5), cfg.TransitionConfig().BootThreshold)
	assert.Equal(t, float32(0.35), cfg.TransitionConfig().ResetThreshold)
	assert.Equal(t, "https://example.org", cfg.Screen.BrowserURL)
	assert.Equal(t, []Document{{Name: "Resume", Path: "docs/resume.txt"}}, cfg.Screen.Documents)

	lights := cfg.Lights()
	require.Len(t, lights, 1)
	assert.Equal(t, LightTypeSpot, lights[0].Type)
	assert.InDelta(t, 1.0, lights[0].Color[0], 1e-6)
	assert.InDelta(t, 0x88/255.0, lights[0].Color[1], 1e-6)
	assert.Equal(t, lights[0].Color, lights[0].GroundColor)
}

func TestLoadFromReader_Invalid(t *testing.T) {
	clearConfigEnv(t)
	tests := map[string]string{
		"syntax":     "[window\nwidth = 1",
		"duration":   "[transitions]\nboot_delay = \"soon\"",
		"negative":   "[transitions]\ndebounce = \"-1s\"",
		"size":       "[window]\nwidth = 0",
		"thresholds": "[transitions]\nreset_threshold = 0.6",
		"light":      "[[lighting.lights]]\ntype = \"laser\"",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "spotlight.toml")
	require.NoError(t, os.WriteFile(path, []byte("[debug]\nframes = 12\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Debug.Frames)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPOTLIGHT_DEBUG", "true")
	t.Setenv("SPOTLIGHT_MODEL", "models/other.glb")

	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, "models/other.glb", cfg.Model.Path)

	t.Setenv("SPOTLIGHT_DEBUG", "maybe")
	cfg, err = LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.False(t, cfg.Debug.Enabled, "unparsable values are ignored")
}

func TestParseHexColor(t *testing.T) {
	for _, s := range []string{"#ffffff", "ffffff", "0xFFFFFF"} {
		col, err := parseHexColor(s)
		require.NoError(t, err, s)
		assert.Equal(t, [3]float32{1, 1, 1}, col)
	}
	for _, s := range []string{"", "#fff", "zzzzzz"} {
		_, err := parseHexColor(s)
		assert.Error(t, err, s)
	}
}

func TestConfig_FloorColorFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Floor.Color = "grey"
	assert.Equal(t, DefaultFloorDef().Color, cfg.FloorDef().Color)
}

func TestConfig_ModelTransform(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Scale = 2
	cfg.Model.Position = [3]float32{1, 0, 0}
	m := cfg.ModelTransform()
	p := m.Mul4x1([4]float32{1, 1, 1, 1})
	assert.Equal(t, float32(3), p[0])
	assert.Equal(t, float32(2), p[1])

	cfg.Model.Scale = 0
	p = cfg.ModelTransform().Mul4x1([4]float32{1, 1, 1, 1})
	assert.Equal(t, float32(2), p[0])
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, d.Duration)

	require.NoError(t, d.UnmarshalText(nil))
	assert.Zero(t, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("later")))

	text, err := Duration{2 * time.Second}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}
