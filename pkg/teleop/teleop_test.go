package teleop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerbot-team/swervesim/pkg/tunable"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

func newState(cfg Config) *State {
	return New(cfg, tunable.New(nil))
}

func TestKeys(t *testing.T) {
	s := newState(DefaultConfig())
	assert.Equal(t, Command{}, s.Sample())

	assert.True(t, s.OnKey("up", true))
	assert.True(t, s.OnKey("right", true))
	assert.True(t, s.OnKey("x", true))
	assert.Equal(t, Command{X: 5, Y: 5, Rot: 0.5}, s.Sample())

	s.OnKey("down", true)
	s.OnKey("left", true)
	s.OnKey("z", true)
	assert.Equal(t, Command{X: -5, Y: -5, Rot: -0.5}, s.Sample())

	s.OnKey("left", false)
	assert.Equal(t, Command{X: 0, Y: -5, Rot: -0.5}, s.Sample())

	assert.False(t, s.OnKey("q", true))

	s.Stop()
	assert.Equal(t, Command{}, s.Sample())
}

func TestAxes(t *testing.T) {
	s := newState(DefaultConfig())
	assert.True(t, s.OnAxis(0, 0.5))
	assert.True(t, s.OnAxis(1, -1))
	assert.True(t, s.OnAxis(2, -0.2))
	assert.False(t, s.OnAxis(5, 1))

	cmd := s.Sample()
	assert.InDelta(t, 2.5, cmd.X, 1e-12)
	assert.InDelta(t, 5, cmd.Y, 1e-12)
	assert.InDelta(t, -0.1, cmd.Rot, 1e-12)
	assert.Equal(t, vec.New(cmd.X, cmd.Y), cmd.Translation())
}

func TestAxisClampAndExpo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Expo = 2
	s := newState(cfg)

	s.OnAxis(0, -0.5)
	s.OnAxis(2, 3)
	cmd := s.Sample()
	assert.InDelta(t, -1.25, cmd.X, 1e-12)
	assert.InDelta(t, 0.5, cmd.Rot, 1e-12)
}

func TestGainsAreTunable(t *testing.T) {
	ts := tunable.New(nil)
	s := New(DefaultConfig(), ts)
	s.OnKey("up", true)

	cur := ts.SelectNext()
	assert.Equal(t, "gain_y", cur.Name)
	cur.Add(2)
	assert.Equal(t, 6.0, s.Sample().Y)
}
