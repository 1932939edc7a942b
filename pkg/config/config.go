// Package config loads the simulator configuration from YAML.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/swervesim/pkg/keyboard"
	"github.com/tigerbot-team/swervesim/pkg/render"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ChassisConfig describes module geometry. A modules list, even an empty
// one, takes precedence over module_count/size. Leaving modules out (or
// null) selects the generated circle.
type ChassisConfig struct {
	Modules     *[]Point `yaml:"modules,omitempty"`
	ModuleCount int      `yaml:"module_count"`
	Size        float64  `yaml:"size"`
}

type InputConfig struct {
	teleop.Config `yaml:",inline"`

	Keyboard bool `yaml:"keyboard"`
	// JoystickDevice is opened if present; empty disables the joystick.
	JoystickDevice string        `yaml:"joystick_device"`
	KeyRelease     time.Duration `yaml:"key_release"`
}

type RenderConfig struct {
	Enabled bool `yaml:"enabled"`
	// FramesDir, if set, receives one PNG per tick.
	FramesDir string `yaml:"frames_dir"`
	// Framebuffer, if set, is a 16bpp device such as /dev/fb1.
	Framebuffer string   `yaml:"framebuffer"`
	Size        int      `yaml:"size"`
	Bound       float64  `yaml:"bound"`
	Layers      []string `yaml:"layers"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	TickHz    float64         `yaml:"tick_hz"`
	Chassis   ChassisConfig   `yaml:"chassis"`
	Input     InputConfig     `yaml:"input"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ExplicitModules returns the module list and whether one was given.
func (c ChassisConfig) ExplicitModules() ([]Point, bool) {
	if c.Modules == nil {
		return nil, false
	}
	return *c.Modules, true
}

// DefaultModules is a 10×10 square chassis.
func DefaultModules() *[]Point {
	const w, h = 10.0, 10.0
	return &[]Point{
		{-w / 2, -h / 2},
		{w / 2, -h / 2},
		{-w / 2, h / 2},
		{w / 2, h / 2},
	}
}

func Default() Config {
	return Config{
		TickHz:  30,
		Chassis: ChassisConfig{Modules: DefaultModules()},
		Input: InputConfig{
			Config:         teleop.DefaultConfig(),
			Keyboard:       true,
			JoystickDevice: "/dev/input/js0",
			KeyRelease:     keyboard.DefaultReleaseAfter,
		},
		Render: RenderConfig{
			Size:   480,
			Bound:  15,
			Layers: []string{"translational", "rotational", "total"},
		},
		Telemetry: TelemetryConfig{Addr: "127.0.0.1:7070"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file gives the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	// Default geometry only applies when the file gives none.
	cfg.Chassis = ChassisConfig{}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config")
	}
	if cfg.Chassis.Modules == nil && cfg.Chassis.ModuleCount == 0 {
		cfg.Chassis.Modules = DefaultModules()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TickHz <= 0 {
		return errors.Errorf("tick_hz must be positive, got %v", c.TickHz)
	}
	if c.Chassis.ModuleCount < 0 {
		return errors.Errorf("chassis.module_count must not be negative, got %d", c.Chassis.ModuleCount)
	}
	if c.Chassis.Size < 0 {
		return errors.Errorf("chassis.size must not be negative, got %v", c.Chassis.Size)
	}
	b := c.Input.Bindings
	for name, key := range map[string]string{
		"forward":      b.Forward,
		"back":         b.Back,
		"left":         b.Left,
		"right":        b.Right,
		"rotate_left":  b.RotateLeft,
		"rotate_right": b.RotateRight,
	} {
		if key == "" {
			return errors.Errorf("input.bindings.%s must not be empty", name)
		}
	}
	if c.Render.Size <= 0 {
		return errors.Errorf("render.size must be positive, got %d", c.Render.Size)
	}
	if c.Render.Bound <= 0 {
		return errors.Errorf("render.bound must be positive, got %v", c.Render.Bound)
	}
	if _, err := render.ParseLayers(c.Render.Layers); err != nil {
		return errors.Wrap(err, "render.layers")
	}
	return nil
}

// ChassisOptions turns the geometry into swerve options.
func (c *Config) ChassisOptions() []swerve.Option {
	if points, ok := c.Chassis.ExplicitModules(); ok {
		modules := make([]*swerve.Module, 0, len(points))
		for _, p := range points {
			modules = append(modules, swerve.NewModule(vec.New(p.X, p.Y)))
		}
		return []swerve.Option{swerve.WithModules(modules...)}
	}
	return []swerve.Option{swerve.WithCircle(c.Chassis.ModuleCount, c.Chassis.Size)}
}

func (c *Config) RenderLayers() render.Layer {
	// Validate has already checked the names.
	l, _ := render.ParseLayers(c.Render.Layers)
	return l
}

// WriteInUse records the configuration actually in use.
func (c *Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
