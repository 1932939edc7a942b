// Package sim runs the simulation loop: sample input, command the chassis,
// update motor outputs, then publish and draw the result.
package sim

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tigerbot-team/swervesim/pkg/render"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/telemetry"
)

// Sampler supplies one command per tick.
type Sampler interface {
	Sample() teleop.Command
}

// FrameWriter receives each rendered frame.
type FrameWriter interface {
	Write(img image.Image) (string, error)
}

// Driver owns the chassis and is the only thing that touches it.
type Driver struct {
	Chassis *swerve.Chassis
	Input   Sampler
	Logger  *zap.SugaredLogger

	// Optional outputs.
	Renderer    *render.Renderer
	Frames      FrameWriter
	Framebuffer io.WriteSeeker
	Telemetry   *telemetry.Telemetry

	last  teleop.Command
	ticks int
}

// Step runs one tick. An error aborts the tick; nothing is published for it.
func (d *Driver) Step(dt time.Duration) error {
	cmd := d.Input.Sample()
	d.Chassis.Command(cmd.Translation(), cmd.Rot)
	if err := d.Chassis.UpdateMotorOutputs(); err != nil {
		return errors.Wrap(err, "updating motor outputs")
	}
	d.Chassis.UpdateSimulation(dt)
	d.ticks++

	states := d.Chassis.States()
	if cmd != d.last {
		d.Logger.Debugw("command changed", "x", cmd.X, "y", cmd.Y, "rot", cmd.Rot)
		for i, s := range states {
			d.Logger.Debugw("module",
				"index", i,
				"vx", s.Velocity.X,
				"vy", s.Velocity.Y,
				"drive", s.DriveOutput,
				"steer_target", s.SteerTarget)
		}
		d.last = cmd
	}

	d.Telemetry.Update(cmd, states)

	if d.Renderer == nil || (d.Frames == nil && d.Framebuffer == nil) {
		return nil
	}
	img := d.Renderer.Draw(states)
	if d.Frames != nil {
		if _, err := d.Frames.Write(img); err != nil {
			return err
		}
	}
	if d.Framebuffer != nil {
		if err := render.WriteRGB565(d.Framebuffer, img); err != nil {
			return err
		}
	}
	return nil
}

// Ticks is the number of completed steps.
func (d *Driver) Ticks() int {
	return d.ticks
}

// Run steps at hz until the context ends (returning nil) or a step fails.
func (d *Driver) Run(ctx context.Context, hz float64) error {
	if hz <= 0 {
		return errors.Errorf("tick rate must be positive, got %v", hz)
	}
	period := time.Duration(float64(time.Second) / hz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	d.Logger.Infow("simulation started", "modules", d.Chassis.Len(), "hz", hz)
	defer d.Logger.Info("simulation loop exited")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := d.Step(dt); err != nil {
				return err
			}
		}
	}
}
