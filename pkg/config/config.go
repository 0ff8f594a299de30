// Package config provides configuration loading and management for mprviewer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
	"mprviewer/pkg/logging"
	"mprviewer/pkg/viewer"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume describes how slice images are assembled into a volume
	Volume struct {
		// Spacing is the voxel size in mm as (x, y, z); z is the inter-slice gap
		Spacing [3]float64 `yaml:"spacing"`

		// Origin is the world position of the first voxel
		Origin [3]float64 `yaml:"origin"`
	} `yaml:"volume"`

	// Display parameters handed to every rendering surface
	Display struct {
		// WindowLevel is the intensity mapped to mid-gray
		WindowLevel float64 `yaml:"windowLevel"`

		// WindowWidth is the intensity range spread over the gray scale.
		// Zero derives level and width from the volume intensity range.
		WindowWidth float64 `yaml:"windowWidth"`

		// Thickness is the number of slices averaged into each displayed slab
		Thickness int `yaml:"thickness"`

		// ViewportWidth and ViewportHeight size the headless surfaces in pixels
		ViewportWidth  int `yaml:"viewportWidth"`
		ViewportHeight int `yaml:"viewportHeight"`
	} `yaml:"display"`

	// Interaction parameters shared by every viewport controller
	Interaction struct {
		// CrossHair enables moving the cursor with the left button
		CrossHair bool `yaml:"crossHair"`

		// Zoom enables dolly with the right button
		Zoom bool `yaml:"zoom"`

		// ZoomStep is the zoom factor applied per 10 pixels of drag
		ZoomStep float64 `yaml:"zoomStep"`

		// ScrollPolicy is "legacy" (forward decreases the index) or "natural"
		ScrollPolicy string `yaml:"scrollPolicy"`
	} `yaml:"interaction"`

	// Planes selects which cut-planes are shown in the volume view
	Planes struct {
		Axial   bool `yaml:"axial"`
		Coronal bool `yaml:"coronal"`
		Sagital bool `yaml:"sagital"`
	} `yaml:"planes"`

	// Output parameters
	Output struct {
		// LogLevel is DEBUG, INFO, WARN or ERROR
		LogLevel string `yaml:"logLevel"`

		// LogFile, when set, receives JSON logs instead of stderr
		LogFile string `yaml:"logFile"`

		// SnapshotQuality is the JPEG quality of exported images
		SnapshotQuality int `yaml:"snapshotQuality"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Volume.Spacing = [3]float64{1.0, 1.0, 1.0}

	// CT soft-tissue window
	cfg.Display.WindowLevel = 40
	cfg.Display.WindowWidth = 350
	cfg.Display.Thickness = 1
	cfg.Display.ViewportWidth = 350
	cfg.Display.ViewportHeight = 350

	cfg.Interaction.CrossHair = true
	cfg.Interaction.Zoom = true
	cfg.Interaction.ZoomStep = 1.1
	cfg.Interaction.ScrollPolicy = crosshair.LegacyScroll.Name

	// Planes start hidden, as in the volume view at load time
	cfg.Planes.Axial = false
	cfg.Planes.Coronal = false
	cfg.Planes.Sagital = false

	cfg.Output.LogLevel = logging.LevelInfo
	cfg.Output.SnapshotQuality = 90

	return cfg
}

// Validate checks that the configuration can drive a session
func (c *Config) Validate() error {
	for i, s := range c.Volume.Spacing {
		if s <= 0 {
			return fmt.Errorf("volume.spacing[%d] must be positive, got %g", i, s)
		}
	}
	if c.Display.WindowWidth < 0 {
		return fmt.Errorf("display.windowWidth must not be negative, got %g", c.Display.WindowWidth)
	}
	if c.Display.Thickness < 1 {
		return fmt.Errorf("display.thickness must be at least 1, got %d", c.Display.Thickness)
	}
	if c.Display.ViewportWidth <= 0 || c.Display.ViewportHeight <= 0 {
		return fmt.Errorf("display viewport must be positive, got %dx%d",
			c.Display.ViewportWidth, c.Display.ViewportHeight)
	}
	if c.Interaction.ZoomStep <= 1 {
		return fmt.Errorf("interaction.zoomStep must be greater than 1, got %g", c.Interaction.ZoomStep)
	}
	if _, err := crosshair.ScrollPolicyByName(c.Interaction.ScrollPolicy); err != nil {
		return err
	}
	if c.Output.SnapshotQuality < 1 || c.Output.SnapshotQuality > 100 {
		return fmt.Errorf("output.snapshotQuality must be in [1, 100], got %d", c.Output.SnapshotQuality)
	}
	return nil
}

// Spacing returns the voxel spacing as a vector
func (c *Config) Spacing() r3.Vec {
	return r3.Vec{X: c.Volume.Spacing[0], Y: c.Volume.Spacing[1], Z: c.Volume.Spacing[2]}
}

// Origin returns the volume origin as a vector
func (c *Config) Origin() r3.Vec {
	return r3.Vec{X: c.Volume.Origin[0], Y: c.Volume.Origin[1], Z: c.Volume.Origin[2]}
}

// Settings converts the display and interaction sections into session settings
func (c *Config) Settings() (viewer.Settings, error) {
	policy, err := crosshair.ScrollPolicyByName(c.Interaction.ScrollPolicy)
	if err != nil {
		return viewer.Settings{}, err
	}

	s := viewer.Settings{
		Window:       models.Window{Level: c.Display.WindowLevel, Width: c.Display.WindowWidth},
		Thickness:    c.Display.Thickness,
		Capabilities: viewer.Capabilities{Zoom: c.Interaction.Zoom, CrossHair: c.Interaction.CrossHair},
		ZoomStep:     c.Interaction.ZoomStep,
		ScrollPolicy: policy,
	}
	if c.Planes.Axial {
		s.Planes = append(s.Planes, models.Axial)
	}
	if c.Planes.Coronal {
		s.Planes = append(s.Planes, models.Coronal)
	}
	if c.Planes.Sagital {
		s.Planes = append(s.Planes, models.Sagital)
	}
	return s, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
