package config

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	vp := cfg.Viewport
	if vp.FOV != 75 || vp.Near != 0.1 || vp.Far != 1000 {
		t.Errorf("unexpected projection fov=%g near=%g far=%g", vp.FOV, vp.Near, vp.Far)
	}
	if vp.CameraPosition != [3]float32{0, 0, 30} {
		t.Errorf("expected camera at (0,0,30), got %v", vp.CameraPosition)
	}
	if vp.Grid.Size != 5000 || vp.Grid.Divisions != 2000 {
		t.Errorf("unexpected grid size=%g divisions=%d", vp.Grid.Size, vp.Grid.Divisions)
	}
	if vp.Grid.CenterColor != 0x00ffcc || vp.Grid.Color != 0x004488 {
		t.Errorf("unexpected grid colours %06x %06x", vp.Grid.CenterColor, vp.Grid.Color)
	}
	if vp.Grid.Opacity != 0.5 || vp.Grid.Y != -10 {
		t.Errorf("unexpected grid opacity=%g y=%g", vp.Grid.Opacity, vp.Grid.Y)
	}
	if vp.Ambient.Intensity != 0.8 {
		t.Errorf("expected ambient intensity 0.8, got %g", vp.Ambient.Intensity)
	}
	if vp.Directional.Position != [3]float32{5, 10, 7.5} {
		t.Errorf("expected directional light at (5,10,7.5), got %v", vp.Directional.Position)
	}

	if cfg.Editor.ScaleDivisor != 100 {
		t.Errorf("expected scale divisor 100, got %g", cfg.Editor.ScaleDivisor)
	}
	if cfg.Editor.DefaultScale != 50 {
		t.Errorf("expected default scale 50, got %g", cfg.Editor.DefaultScale)
	}
	if cfg.Editor.SceneFileName != "scene.json" {
		t.Errorf("expected scene.json, got %s", cfg.Editor.SceneFileName)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

viewport:
  fov: 60
  grid:
    divisions: 100
    color: 0x112233

importer:
  max_texture_size: 1024

editor:
  scale_divisor: 50
  default_scale: 100
  default_move: [1, 2, 3]

logging:
  level: "debug"
  log_file: "editor.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 1080 {
		t.Errorf("expected height 1080, got %d", cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}
	if cfg.Viewport.FOV != 60 {
		t.Errorf("expected fov 60, got %g", cfg.Viewport.FOV)
	}
	if cfg.Viewport.Grid.Divisions != 100 {
		t.Errorf("expected 100 divisions, got %d", cfg.Viewport.Grid.Divisions)
	}
	if cfg.Viewport.Grid.Color != 0x112233 {
		t.Errorf("expected grid colour 0x112233, got %06x", cfg.Viewport.Grid.Color)
	}
	// Untouched keys keep their defaults
	if cfg.Viewport.Grid.Size != 5000 {
		t.Errorf("expected grid size to stay 5000, got %g", cfg.Viewport.Grid.Size)
	}
	if cfg.Importer.MaxTextureSize != 1024 {
		t.Errorf("expected max texture size 1024, got %d", cfg.Importer.MaxTextureSize)
	}
	if cfg.Editor.ScaleDivisor != 50 {
		t.Errorf("expected scale divisor 50, got %g", cfg.Editor.ScaleDivisor)
	}
	if cfg.Editor.DefaultMove != [3]float64{1, 2, 3} {
		t.Errorf("expected default move [1 2 3], got %v", cfg.Editor.DefaultMove)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "editor.log" {
		t.Errorf("expected log file 'editor.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("window: [not: valid"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"far before near", func(c *Config) { c.Viewport.Far = 0.01 }},
		{"flat fov", func(c *Config) { c.Viewport.FOV = 180 }},
		{"no divisions", func(c *Config) { c.Viewport.Grid.Divisions = 0 }},
		{"zero divisor", func(c *Config) { c.Editor.ScaleDivisor = 0 }},
		{"negative texture size", func(c *Config) { c.Importer.MaxTextureSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRGB(t *testing.T) {
	got := RGB(0x00ffcc)
	want := [3]float32{0, 1, float32(0xcc) / 255}
	if got != want {
		t.Errorf("RGB(0x00ffcc) = %v, want %v", got, want)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestStartupPaths(t *testing.T) {
	*flagOpen = "model.glb"
	*flagScene = "scene.json"
	defer func() {
		*flagOpen = ""
		*flagScene = ""
	}()

	if OpenPath() != "model.glb" {
		t.Errorf("expected model.glb, got %q", OpenPath())
	}
	if ScenePath() != "scene.json" {
		t.Errorf("expected scene.json, got %q", ScenePath())
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
	// FOV comes from defaults
	if cfg.Viewport.FOV != 75 {
		t.Errorf("expected default fov 75, got %g", cfg.Viewport.FOV)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("editor:\n  scale_divisor: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject scale_divisor 0")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Window.Width = 1024
	cfg.Editor.ScaleDivisor = 10
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Window.Width != 1024 {
		t.Errorf("expected width 1024, got %d", loaded.Window.Width)
	}
	if loaded.Editor.ScaleDivisor != 10 {
		t.Errorf("expected divisor 10, got %g", loaded.Editor.ScaleDivisor)
	}
}

func TestExpandPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg := Default()
	cfg.Editor.ScreenshotDir = "~/shots"
	cfg.Logging.LogFile = ""
	if err := cfg.expandPaths(); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "shots"); cfg.Editor.ScreenshotDir != want {
		t.Errorf("ScreenshotDir = %q, want %q", cfg.Editor.ScreenshotDir, want)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("empty path expanded to %q", cfg.Logging.LogFile)
	}

	cfg.Logging.LogFile = "~someone/editor.log"
	if err := cfg.expandPaths(); err == nil {
		t.Error("expected error for another user's home")
	}
}
