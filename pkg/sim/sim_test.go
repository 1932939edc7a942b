package sim

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/swervesim/pkg/config"
	"github.com/tigerbot-team/swervesim/pkg/joystick"
	"github.com/tigerbot-team/swervesim/pkg/keyboard"
	"github.com/tigerbot-team/swervesim/pkg/logging"
	"github.com/tigerbot-team/swervesim/pkg/render"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/telemetry"
	"github.com/tigerbot-team/swervesim/pkg/tunable"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

type fixedInput teleop.Command

func (f fixedInput) Sample() teleop.Command { return teleop.Command(f) }

type frameCounter struct {
	n   int
	err error
}

func (f *frameCounter) Write(img image.Image) (string, error) {
	f.n++
	return "", f.err
}

func TestStep(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	frames := &frameCounter{}
	d := &Driver{
		Chassis:   swerve.New(swerve.WithModules(swerve.NewModule(vec.New(0, 0)), swerve.NewModule(vec.New(1, 0)))),
		Input:     fixedInput{X: 3, Y: 4},
		Logger:    logger,
		Renderer:  render.New(64, 10, render.AllLayers),
		Frames:    frames,
		Telemetry: telemetry.New(),
	}
	require.NoError(t, d.Step(time.Second/30))
	require.NoError(t, d.Step(time.Second/30))

	assert.Equal(t, 2, d.Ticks())
	assert.Equal(t, 2, frames.n)
	mods := d.Chassis.Modules()
	assert.Equal(t, vec.New(3, 4), mods[0].CommandedVelocity())
	assert.Equal(t, 5.0, mods[0].DriveOutput())

	// Module details are logged once per change of command.
	assert.Equal(t, 1, logs.FilterMessage("command changed").Len())
	assert.Equal(t, 2, logs.FilterMessage("module").Len())
}

func TestStepFrameError(t *testing.T) {
	logger, _ := logging.NewObservedTestLogger(t)
	d := &Driver{
		Chassis:  swerve.New(swerve.WithCircle(4, 1)),
		Input:    fixedInput{},
		Logger:   logger,
		Renderer: render.New(16, 10, render.AllLayers),
		Frames:   &frameCounter{err: errors.New("disk full")},
	}
	assert.EqualError(t, d.Step(0), "disk full")
}

func TestStepFramebuffer(t *testing.T) {
	logger, _ := logging.NewObservedTestLogger(t)
	f, err := os.Create(filepath.Join(t.TempDir(), "fb"))
	require.NoError(t, err)
	defer f.Close()

	d := &Driver{
		Chassis:     swerve.New(swerve.WithCircle(4, 5)),
		Input:       fixedInput{Rot: 0.5},
		Logger:      logger,
		Renderer:    render.New(32, 15, render.AllLayers),
		Framebuffer: f,
	}
	require.NoError(t, d.Step(0))
	st, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(32*32*2), st.Size())
}

func TestRunStopsOnCancel(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	d := &Driver{
		Chassis: swerve.New(swerve.WithCircle(4, 5)),
		Input:   fixedInput{X: 1},
		Logger:  logger,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, 200) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("command changed").Len() > 0
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, 1, logs.FilterMessage("simulation loop exited").Len())
}

func TestRunRejectsBadRate(t *testing.T) {
	logger, _ := logging.NewObservedTestLogger(t)
	d := &Driver{Chassis: swerve.New(), Input: fixedInput{}, Logger: logger}
	assert.EqualError(t, d.Run(context.Background(), 0), "tick rate must be positive, got 0")
}

func newControls(t *testing.T) (*Controls, *int32) {
	logger, _ := logging.NewObservedTestLogger(t)
	ts := tunable.New(logger)
	var quits int32
	return &Controls{
		Teleop:   teleop.New(teleop.DefaultConfig(), ts),
		Tunables: ts,
		Renderer: render.New(16, 10, render.AllLayers),
		Logger:   logger,
		Quit:     func() { atomic.AddInt32(&quits, 1) },
	}, &quits
}

func TestControlsKeys(t *testing.T) {
	c, quits := newControls(t)

	c.OnKey(keyboard.KeyEvent{Key: keyboard.KeyUp, Pressed: true})
	assert.Equal(t, teleop.Command{Y: 5}, c.Teleop.Sample())

	c.OnKey(keyboard.KeyEvent{Key: keyboard.KeySpace, Pressed: true})
	assert.Equal(t, teleop.Command{}, c.Teleop.Sample())

	c.OnKey(keyboard.KeyEvent{Key: "3", Pressed: true})
	assert.Equal(t, render.LayerTranslational|render.LayerRotational, c.Renderer.Layers())
	c.OnKey(keyboard.KeyEvent{Key: "3"})
	assert.Equal(t, render.LayerTranslational|render.LayerRotational, c.Renderer.Layers())

	// gain_x is selected first.
	c.OnKey(keyboard.KeyEvent{Key: "+", Pressed: true})
	c.OnKey(keyboard.KeyEvent{Key: keyboard.KeyRight, Pressed: true})
	assert.Equal(t, 5.5, c.Teleop.Sample().X)
	c.OnKey(keyboard.KeyEvent{Key: "]", Pressed: true})
	c.OnKey(keyboard.KeyEvent{Key: "-", Pressed: true})
	assert.Equal(t, "gain_y", c.Tunables.Current().Name)
	assert.Equal(t, 4.5, c.Tunables.Current().Get())

	c.OnKey(keyboard.KeyEvent{Key: "q", Pressed: true})
	c.OnKey(keyboard.KeyEvent{Key: keyboard.KeyCtrlC, Pressed: true})
	assert.Equal(t, int32(2), atomic.LoadInt32(quits))
}

func TestControlsJoystick(t *testing.T) {
	c, _ := newControls(t)
	c.OnJoystick(&joystick.Event{Type: joystick.EventTypeAxis, Number: joystick.AxisLStickY, Value: -32767})
	c.OnJoystick(&joystick.Event{Type: joystick.EventTypeButton, Number: 0, Value: 1})
	assert.Equal(t, teleop.Command{Y: 5}, c.Teleop.Sample())
}

func TestPumpKeys(t *testing.T) {
	c, _ := newControls(t)
	events := make(chan keyboard.KeyEvent, 2)
	events <- keyboard.KeyEvent{Key: "x", Pressed: true}
	close(events)
	c.PumpKeys(context.Background(), events)
	assert.Equal(t, 0.5, c.Teleop.Sample().Rot)
}

func TestPumpJoystick(t *testing.T) {
	c, _ := newControls(t)
	events := make(chan *joystick.Event, 2)
	events <- &joystick.Event{Type: joystick.EventTypeAxis, Number: 0, Value: 32767}
	close(events)
	c.PumpJoystick(context.Background(), events)
	assert.Equal(t, 5.0, c.Teleop.Sample().X)
}

func TestBuildChassis(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	assert.Equal(t, 4, BuildChassis(config.Default(), logger).Len())

	cfg := config.Default()
	cfg.Chassis = config.ChassisConfig{Modules: &[]config.Point{}, ModuleCount: 4, Size: 5}
	assert.Equal(t, 0, BuildChassis(cfg, logger).Len())
	assert.Equal(t, 1, logs.FilterMessage("chassis has no modules; commands will have no effect").Len())
}
