package swerve

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/swervesim/pkg/vec"
)

const tolerance = 1e-12

func TestParallelVector(t *testing.T) {
	for _, p := range []vec.Vector2{
		vec.New(0, 0),
		vec.New(1, 0),
		vec.New(0, 1),
		vec.New(-5, -5),
		vec.New(2.5, -7),
	} {
		m := NewModule(p)
		assert.Equal(t, vec.New(-p.Y, p.X), m.ParallelVector(), "position %v", p)
		assert.Equal(t, p, m.Position())

		m.Command(vec.New(1, 2), 3)
		m.Command(vec.New(-4, 0.5), -0.25)
		assert.Equal(t, vec.New(-p.Y, p.X), m.ParallelVector(), "parallel vector changed after commands")
		assert.Equal(t, p, m.Position())
	}
}

func TestCommandIsTranslationPlusRotation(t *testing.T) {
	for _, c := range []struct {
		pos   vec.Vector2
		trans vec.Vector2
		rot   float64
	}{
		{vec.New(5, 5), vec.New(0, 5), 0},
		{vec.New(-5, 5), vec.New(5, 0), 0.5},
		{vec.New(5, -5), vec.New(-5, 5), -0.5},
		{vec.New(0.3, -1.7), vec.New(2, -3), 1.25},
	} {
		m := NewModule(c.pos)
		m.Command(c.trans, c.rot)

		want := vec.New(c.trans.X+(-c.pos.Y)*c.rot, c.trans.Y+c.pos.X*c.rot)
		assert.InDelta(t, want.X, m.CommandedVelocity().X, tolerance)
		assert.InDelta(t, want.Y, m.CommandedVelocity().Y, tolerance)
		assert.Equal(t, c.trans, m.CommandedTranslationalVelocity())
		assert.Equal(t, c.rot, m.CommandedRotationalSpeed())
		assert.Equal(t, m.ParallelVector().Mul(c.rot), m.CommandedRotationalVelocity())
	}
}

func TestZeroCommand(t *testing.T) {
	for _, p := range []vec.Vector2{vec.New(5, 5), vec.New(-3, 0), vec.New(0, 0)} {
		m := NewModule(p)
		m.Command(vec.New(1, 1), 1)
		m.Command(vec.Zero, 0)
		assert.Equal(t, 0.0, m.CommandedVelocity().X)
		assert.Equal(t, 0.0, m.CommandedVelocity().Y)
	}
}

func TestPureRotation(t *testing.T) {
	const r = 0.75

	m := NewModule(vec.New(1, 0))
	m.Command(vec.Zero, r)
	assert.Equal(t, vec.New(0, r), m.CommandedVelocity())

	m = NewModule(vec.New(0, 1))
	m.Command(vec.Zero, r)
	assert.Equal(t, vec.New(-r, 0), m.CommandedVelocity())
}

func TestUpdateMotorOutputs(t *testing.T) {
	m := NewModule(vec.New(0, 0))
	m.Command(vec.New(3, 4), 0)
	assert.Equal(t, vec.New(3, 4), m.CommandedVelocity())

	require.NoError(t, m.UpdateMotorOutputs())
	assert.Equal(t, 5.0, m.DriveOutput())
	assert.Equal(t, math.Atan2(4, 3), m.SteerTarget())
	// Steer angle is not simulated, so the controller sees a zero measurement.
	assert.Equal(t, math.Atan2(4, 3), m.SteerOutput())
	assert.Equal(t, 0.0, m.SteerAngle())
}

func TestUpdateMotorOutputsZeroVelocity(t *testing.T) {
	m := NewModule(vec.New(2, 2))
	require.NoError(t, m.UpdateMotorOutputs())
	assert.Equal(t, 0.0, m.DriveOutput())
	assert.Equal(t, 0.0, m.SteerTarget())
	assert.Equal(t, 0.0, m.SteerOutput())
}

func TestUpdateSimulationIsNoop(t *testing.T) {
	m := NewModule(vec.New(1, 2))
	m.Command(vec.New(-1, 1), 0.5)
	require.NoError(t, m.UpdateMotorOutputs())
	before := m.State()
	m.UpdateSimulation(20 * time.Millisecond)
	assert.Equal(t, before, m.State())
}

func TestState(t *testing.T) {
	m := NewModule(vec.New(1, 0))
	m.Command(vec.New(2, 0), 1)
	require.NoError(t, m.UpdateMotorOutputs())

	s := m.State()
	assert.Equal(t, vec.New(1, 0), s.Position)
	assert.Equal(t, vec.New(0, 1), s.ParallelVector)
	assert.Equal(t, vec.New(2, 0), s.TranslationalVelocity)
	assert.Equal(t, 1.0, s.RotationalSpeed)
	assert.Equal(t, vec.New(0, 1), s.RotationalVelocity)
	assert.Equal(t, vec.New(2, 1), s.Velocity)
	assert.InDelta(t, math.Sqrt(5), s.DriveOutput, tolerance)
	assert.InDelta(t, math.Atan2(1, 2), s.SteerTarget, tolerance)
	assert.InDelta(t, math.Atan2(1, 2), s.SteerOutput, tolerance)
}
