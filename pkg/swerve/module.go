// Package swerve implements swerve drive inverse kinematics.
//
// Each Module sits at a fixed offset from the chassis centre. A chassis level
// command (translational velocity, rotational speed) is turned into a ground
// velocity per module: the translation plus the tangential velocity that the
// rotation induces at the module's offset. From that vector the module derives
// a drive motor magnitude and a steering angle target.
//
// Nothing in this package locks. A Chassis and its modules must be driven by
// one caller at a time.
package swerve

import (
	"math"
	"time"

	"github.com/tigerbot-team/swervesim/pkg/pcontrol"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

// ModuleState is a snapshot of a module after the last command.
type ModuleState struct {
	Position       vec.Vector2
	ParallelVector vec.Vector2

	TranslationalVelocity vec.Vector2
	RotationalSpeed       float64
	RotationalVelocity    vec.Vector2
	Velocity              vec.Vector2

	DriveOutput float64
	SteerTarget float64
	SteerOutput float64
	SteerAngle  float64
}

// Module is one independently driven and steered wheel unit.
type Module struct {
	position vec.Vector2
	parallel vec.Vector2

	translational   vec.Vector2
	rotationalSpeed float64
	rotational      vec.Vector2
	velocity        vec.Vector2

	// Simulated motor values.
	driveOutput float64
	steerTarget float64
	steerOutput float64
	steerAngle  float64

	steering *pcontrol.Proportional
}

// NewModule returns a module mounted at position, relative to the chassis
// centre.
func NewModule(position vec.Vector2) *Module {
	return &Module{
		position: position,
		parallel: position.Ortho(),
		steering: pcontrol.New(),
	}
}

// Command records a chassis level command and recomputes the module's
// commanded velocity. Inputs are not bounds checked.
func (m *Module) Command(translational vec.Vector2, rotationalSpeed float64) {
	m.translational = translational

	m.rotationalSpeed = rotationalSpeed
	m.rotational = m.parallel.Mul(rotationalSpeed)

	m.velocity = m.translational.Add(m.rotational)
}

// UpdateMotorOutputs derives the drive output and steering target from the
// commanded velocity and runs the steering controller against the current
// steer angle.
//
// The steer target of a zero velocity is atan2(0, 0), which is 0.
func (m *Module) UpdateMotorOutputs() error {
	m.driveOutput = m.velocity.Norm()

	m.steerTarget = math.Atan2(m.velocity.Y, m.velocity.X)
	m.steering.SetTarget(m.steerTarget)
	out, err := m.steering.Calculate(m.steerAngle)
	if err != nil {
		return err
	}
	m.steerOutput = out
	return nil
}

// UpdateSimulation is where simulated motor response would advance by dt. It
// does nothing yet, so SteerAngle stays at zero.
func (m *Module) UpdateSimulation(dt time.Duration) {
	_ = dt
}

func (m *Module) Position() vec.Vector2 { return m.position }

// ParallelVector is the position rotated a quarter turn counter-clockwise:
// the direction this module moves when the chassis spins in place.
func (m *Module) ParallelVector() vec.Vector2 { return m.parallel }

func (m *Module) CommandedTranslationalVelocity() vec.Vector2 { return m.translational }

// CommandedRotationalSpeed is in radians per second, counter-clockwise positive.
func (m *Module) CommandedRotationalSpeed() float64 { return m.rotationalSpeed }

func (m *Module) CommandedRotationalVelocity() vec.Vector2 { return m.rotational }

// CommandedVelocity is the ground velocity this module must achieve.
func (m *Module) CommandedVelocity() vec.Vector2 { return m.velocity }

func (m *Module) DriveOutput() float64 { return m.driveOutput }

func (m *Module) SteerTarget() float64 { return m.steerTarget }

func (m *Module) SteerOutput() float64 { return m.steerOutput }

func (m *Module) SteerAngle() float64 { return m.steerAngle }

func (m *Module) State() ModuleState {
	return ModuleState{
		Position:              m.position,
		ParallelVector:        m.parallel,
		TranslationalVelocity: m.translational,
		RotationalSpeed:       m.rotationalSpeed,
		RotationalVelocity:    m.rotational,
		Velocity:              m.velocity,
		DriveOutput:           m.driveOutput,
		SteerTarget:           m.steerTarget,
		SteerOutput:           m.steerOutput,
		SteerAngle:            m.steerAngle,
	}
}
