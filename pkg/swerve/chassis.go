package swerve

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/swervesim/pkg/vec"
)

// Chassis owns a fixed, ordered set of modules and fans commands out to them.
type Chassis struct {
	modules []*Module
}

type options struct {
	explicit    bool
	modules     []*Module
	moduleCount int
	size        float64
}

// Option configures New.
type Option func(*options)

// WithModules uses exactly the given modules, in order. An empty list gives a
// chassis with no modules, even when WithCircle is also passed.
func WithModules(modules ...*Module) Option {
	return func(o *options) {
		o.explicit = true
		o.modules = append([]*Module(nil), modules...)
	}
}

// WithCircle generates count modules spaced evenly on a circle of radius size.
// Ignored if WithModules is also passed.
func WithCircle(count int, size float64) Option {
	return func(o *options) {
		o.moduleCount = count
		o.size = size
	}
}

// New builds a chassis. With no options the chassis has no modules.
func New(opts ...Option) *Chassis {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.explicit {
		return &Chassis{modules: o.modules}
	}
	c := &Chassis{}
	for _, p := range CirclePositions(o.moduleCount, o.size) {
		c.modules = append(c.modules, NewModule(p))
	}
	return c
}

// CirclePositions returns n mounting positions at distance size from the
// centre. Module i sits at angle θ = π(2i + 1.25n)/n, measured from +Y
// towards +X. For n = 4 that puts the first module in the (-, -) corner.
func CirclePositions(n int, size float64) []vec.Vector2 {
	if n <= 0 {
		return nil
	}
	positions := make([]vec.Vector2, 0, n)
	for i := 0; i < n; i++ {
		theta := math.Pi * (2*float64(i) + 1.25*float64(n)) / float64(n)
		positions = append(positions, vec.New(size*math.Sin(theta), size*math.Cos(theta)))
	}
	return positions
}

// Command sends the same command to every module.
func (c *Chassis) Command(translational vec.Vector2, rotationalSpeed float64) {
	for _, m := range c.modules {
		m.Command(translational, rotationalSpeed)
	}
}

// UpdateMotorOutputs updates every module in order, stopping at the first
// failure.
func (c *Chassis) UpdateMotorOutputs() error {
	for i, m := range c.modules {
		if err := m.UpdateMotorOutputs(); err != nil {
			return errors.Wrapf(err, "module %d", i)
		}
	}
	return nil
}

func (c *Chassis) UpdateSimulation(dt time.Duration) {
	for _, m := range c.modules {
		m.UpdateSimulation(dt)
	}
}

// Modules returns the modules in order. The slice is a copy.
func (c *Chassis) Modules() []*Module {
	return append([]*Module(nil), c.modules...)
}

func (c *Chassis) Len() int {
	return len(c.modules)
}

// States snapshots every module in order.
func (c *Chassis) States() []ModuleState {
	states := make([]ModuleState, len(c.modules))
	for i, m := range c.modules {
		states[i] = m.State()
	}
	return states
}
