// Package config handles editor configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all editor settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Viewport ViewportConfig `yaml:"viewport"`
	Importer ImporterConfig `yaml:"importer"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// ViewportConfig holds camera, light and grid parameters.
type ViewportConfig struct {
	FOV            float32    `yaml:"fov"` // degrees
	Near           float32    `yaml:"near"`
	Far            float32    `yaml:"far"`
	CameraPosition [3]float32 `yaml:"camera_position"`
	ClearColor     [4]float32 `yaml:"clear_color"`

	Grid        GridConfig  `yaml:"grid"`
	Ambient     LightConfig `yaml:"ambient_light"`
	Directional LightConfig `yaml:"directional_light"`
}

// GridConfig describes the ground grid.
type GridConfig struct {
	Size        float32 `yaml:"size"`
	Divisions   int     `yaml:"divisions"`
	CenterColor uint32  `yaml:"center_color"` // 0xRRGGBB
	Color       uint32  `yaml:"color"`
	Opacity     float32 `yaml:"opacity"`
	Y           float32 `yaml:"y"`
}

// LightConfig describes one light. Position is ignored for ambient lights.
type LightConfig struct {
	Color     uint32     `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Position  [3]float32 `yaml:"position,omitempty"`
}

// ImporterConfig holds model import settings.
type ImporterConfig struct {
	MaxTextureSize int `yaml:"max_texture_size"` // 0 disables downscaling
}

// EditorConfig holds transform panel settings.
type EditorConfig struct {
	ScaleDivisor  float64    `yaml:"scale_divisor"`
	DefaultMove   [3]float64 `yaml:"default_move"`
	DefaultRotate [3]float64 `yaml:"default_rotate"`
	DefaultScale  float64    `yaml:"default_scale"`
	ScreenshotDir string     `yaml:"screenshot_dir"`
	SceneFileName string     `yaml:"scene_file_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "scenedit",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Viewport: ViewportConfig{
			FOV:            75,
			Near:           0.1,
			Far:            1000,
			CameraPosition: [3]float32{0, 0, 30},
			ClearColor:     [4]float32{0.08, 0.08, 0.1, 1},
			Grid: GridConfig{
				Size:        5000,
				Divisions:   2000,
				CenterColor: 0x00ffcc,
				Color:       0x004488,
				Opacity:     0.5,
				Y:           -10,
			},
			Ambient: LightConfig{
				Color:     0xffffff,
				Intensity: 0.8,
			},
			Directional: LightConfig{
				Color:     0xffffff,
				Intensity: 1.0,
				Position:  [3]float32{5, 10, 7.5},
			},
		},
		Importer: ImporterConfig{
			MaxTextureSize: 4096,
		},
		Editor: EditorConfig{
			ScaleDivisor:  100,
			DefaultScale:  50,
			ScreenshotDir: "screenshots",
			SceneFileName: "scene.json",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the editor cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Viewport.Near <= 0 || c.Viewport.Far <= c.Viewport.Near {
		errs = append(errs, fmt.Errorf("invalid clip range near=%g far=%g", c.Viewport.Near, c.Viewport.Far))
	}
	if c.Viewport.FOV <= 0 || c.Viewport.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %g out of range", c.Viewport.FOV))
	}
	if c.Viewport.Grid.Divisions <= 0 {
		errs = append(errs, errors.New("grid divisions must be positive"))
	}
	if c.Editor.ScaleDivisor == 0 {
		errs = append(errs, errors.New("editor scale_divisor must not be zero"))
	}
	if c.Importer.MaxTextureSize < 0 {
		errs = append(errs, errors.New("importer max_texture_size must not be negative"))
	}
	return errors.Join(errs...)
}

// RGB splits a 0xRRGGBB colour into normalized components.
func RGB(c uint32) [3]float32 {
	return [3]float32{
		float32((c>>16)&0xff) / 255,
		float32((c>>8)&0xff) / 255,
		float32(c&0xff) / 255,
	}
}
