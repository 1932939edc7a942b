// Package teleop turns keyboard and joystick input into chassis commands.
package teleop

import (
	"math"
	"sync"

	"github.com/tigerbot-team/swervesim/pkg/tunable"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

// Bindings names the keys and joystick axes that drive the chassis.
type Bindings struct {
	Forward     string `yaml:"forward"`
	Back        string `yaml:"back"`
	Left        string `yaml:"left"`
	Right       string `yaml:"right"`
	RotateLeft  string `yaml:"rotate_left"`
	RotateRight string `yaml:"rotate_right"`

	AxisX   uint8 `yaml:"axis_x"`
	AxisY   uint8 `yaml:"axis_y"`
	AxisRot uint8 `yaml:"axis_rot"`
}

// Gains are the speeds reached at full key press or full stick deflection.
// X and Y are in distance units per second, Rot in radians per second.
type Gains struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Rot float64 `yaml:"rot"`
}

type Config struct {
	Bindings Bindings `yaml:"bindings"`
	Gains    Gains    `yaml:"gains"`
	// Expo shapes stick input as |v|^Expo. 1 is linear.
	Expo float64 `yaml:"expo"`
}

func DefaultConfig() Config {
	return Config{
		Bindings: Bindings{
			Forward:     "up",
			Back:        "down",
			Left:        "left",
			Right:       "right",
			RotateLeft:  "z",
			RotateRight: "x",
			AxisX:       0,
			AxisY:       1,
			AxisRot:     2,
		},
		Gains: Gains{X: 5, Y: 5, Rot: 0.5},
		Expo:  1,
	}
}

// Command is one (vx, vy, omega) sample.
type Command struct {
	X, Y, Rot float64
}

func (c Command) Translation() vec.Vector2 {
	return vec.New(c.X, c.Y)
}

// State accumulates input. Input goroutines call OnKey/OnAxis, the driver
// calls Sample once per tick.
type State struct {
	bindings Bindings
	expo     float64

	gainX, gainY, gainRot *tunable.Tunable

	lock sync.Mutex
	// Demand per axis in [-1, 1]; the last writer wins.
	x, y, rot float64
}

// New registers the gains with tunables so they can be adjusted live.
func New(cfg Config, tunables *tunable.Tunables) *State {
	expo := cfg.Expo
	if expo <= 0 {
		expo = 1
	}
	return &State{
		bindings: cfg.Bindings,
		expo:     expo,
		gainX:    tunables.Create("gain_x", cfg.Gains.X, 0.5),
		gainY:    tunables.Create("gain_y", cfg.Gains.Y, 0.5),
		gainRot:  tunables.Create("gain_rot", cfg.Gains.Rot, 0.05),
	}
}

// OnKey applies a key press or release. It reports whether the key is bound.
func (s *State) OnKey(key string, pressed bool) bool {
	level := 0.0
	if pressed {
		level = 1
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	switch key {
	case s.bindings.RotateLeft:
		s.rot = -level
	case s.bindings.RotateRight:
		s.rot = level
	case s.bindings.Forward:
		s.y = level
	case s.bindings.Back:
		s.y = -level
	case s.bindings.Left:
		s.x = -level
	case s.bindings.Right:
		s.x = level
	default:
		return false
	}
	return true
}

// OnAxis applies a stick position in [-1, 1]. Stick Y is inverted: pushing
// the stick away (negative) drives forward.
func (s *State) OnAxis(axis uint8, value float64) bool {
	shaped := applyExpo(clamp(value), s.expo)

	s.lock.Lock()
	defer s.lock.Unlock()

	switch axis {
	case s.bindings.AxisX:
		s.x = shaped
	case s.bindings.AxisY:
		s.y = -shaped
	case s.bindings.AxisRot:
		s.rot = shaped
	default:
		return false
	}
	return true
}

// Stop zeroes all demand.
func (s *State) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.x, s.y, s.rot = 0, 0, 0
}

// Sample scales the current demand by the current gains.
func (s *State) Sample() Command {
	s.lock.Lock()
	x, y, rot := s.x, s.y, s.rot
	s.lock.Unlock()

	return Command{
		X:   x * s.gainX.Get(),
		Y:   y * s.gainY.Get(),
		Rot: rot * s.gainRot.Get(),
	}
}

func applyExpo(value float64, expo float64) float64 {
	absVal := math.Abs(value)
	absExpo := math.Pow(absVal, expo)
	return math.Copysign(absExpo, value)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
