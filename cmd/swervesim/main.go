package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tigerbot-team/swervesim/pkg/angle"
	"github.com/tigerbot-team/swervesim/pkg/config"
	"github.com/tigerbot-team/swervesim/pkg/joystick"
	"github.com/tigerbot-team/swervesim/pkg/keyboard"
	"github.com/tigerbot-team/swervesim/pkg/logging"
	"github.com/tigerbot-team/swervesim/pkg/render"
	"github.com/tigerbot-team/swervesim/pkg/sim"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/telemetry"
	"github.com/tigerbot-team/swervesim/pkg/tunable"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "swervesim",
		Usage: "swerve drive kinematics simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "swervesim.yaml", Usage: "YAML config `FILE`"},
			&cli.StringFlag{Name: "log-level", Usage: "override log level (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "drive the chassis live from the keyboard and joystick",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "joystick", Usage: "joystick device, empty to disable", EnvVars: []string{"JOYSTICK_DEVICE"}},
					&cli.BoolFlag{Name: "no-keyboard", Usage: "do not read keys from the terminal"},
					&cli.StringFlag{Name: "frames-dir", Usage: "write a PNG per tick into `DIR`"},
					&cli.StringFlag{Name: "framebuffer", Usage: "draw frames to a 16bpp framebuffer device"},
					&cli.StringFlag{Name: "telemetry", Usage: "serve expvar telemetry on `ADDR`"},
					&cli.StringFlag{Name: "write-config", Usage: "write the config in use to `FILE`"},
				},
				Action: runAction,
			},
			{
				Name:   "calc",
				Usage:  "print module vectors for one command",
				Flags:  commandFlags(),
				Action: calcAction,
			},
			{
				Name:  "render",
				Usage: "draw one frame for one command",
				Flags: append(commandFlags(),
					&cli.StringFlag{Name: "out", Value: "swerve.png", Usage: "output PNG `FILE`"},
				),
				Action: renderAction,
			},
		},
	}
}

func commandFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "vx", Usage: "x velocity"},
		&cli.Float64Flag{Name: "vy", Usage: "y velocity"},
		&cli.Float64Flag{Name: "omega", Usage: "rotational velocity, rad/s CCW"},
	}
}

func setup(c *cli.Context) (config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logger, err := logging.NewLogger("swervesim", cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// commandOnce builds the chassis and applies the --vx/--vy/--omega command.
func commandOnce(c *cli.Context) (config.Config, *swerve.Chassis, error) {
	cfg, logger, err := setup(c)
	if err != nil {
		return cfg, nil, err
	}
	defer func() { _ = logger.Sync() }()

	chassis := sim.BuildChassis(cfg, logger)
	chassis.Command(vec.New(c.Float64("vx"), c.Float64("vy")), c.Float64("omega"))
	if err := chassis.UpdateMotorOutputs(); err != nil {
		return cfg, nil, err
	}
	return cfg, chassis, nil
}

func calcAction(c *cli.Context) error {
	_, chassis, err := commandOnce(c)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "module\tx\ty\tvx\tvy\tdrive\tsteer(deg)")
	for i, s := range chassis.States() {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.1f\n",
			i, s.Position.X, s.Position.Y, s.Velocity.X, s.Velocity.Y,
			s.DriveOutput, angle.FromRadians(s.SteerTarget).Degrees())
	}
	return w.Flush()
}

func renderAction(c *cli.Context) error {
	cfg, chassis, err := commandOnce(c)
	if err != nil {
		return err
	}
	r := render.New(cfg.Render.Size, cfg.Render.Bound, cfg.RenderLayers())
	return render.SavePNG(c.String("out"), r.Draw(chassis.States()))
}

func runAction(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if c.IsSet("joystick") {
		cfg.Input.JoystickDevice = c.String("joystick")
	}
	if c.Bool("no-keyboard") {
		cfg.Input.Keyboard = false
	}
	if dir := c.String("frames-dir"); dir != "" {
		cfg.Render.Enabled = true
		cfg.Render.FramesDir = dir
	}
	if fb := c.String("framebuffer"); fb != "" {
		cfg.Render.Enabled = true
		cfg.Render.Framebuffer = fb
	}
	if addr := c.String("telemetry"); addr != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Addr = addr
	}
	if path := c.String("write-config"); path != "" {
		if err := cfg.WriteInUse(path); err != nil {
			return err
		}
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	registerSignalHandlers(cancel, logger)

	tunables := tunable.New(logger)
	input := teleop.New(cfg.Input.Config, tunables)
	driver := &sim.Driver{
		Chassis: sim.BuildChassis(cfg, logger),
		Input:   input,
		Logger:  logger,
	}
	controls := &sim.Controls{
		Teleop:   input,
		Tunables: tunables,
		Logger:   logger,
		Quit:     cancel,
	}

	if cfg.Render.Enabled {
		driver.Renderer = render.New(cfg.Render.Size, cfg.Render.Bound, cfg.RenderLayers())
		controls.Renderer = driver.Renderer
		if cfg.Render.FramesDir != "" {
			sink, err := render.NewFrameSink(cfg.Render.FramesDir)
			if err != nil {
				return err
			}
			driver.Frames = sink
		}
		if cfg.Render.Framebuffer != "" {
			fb, err := os.OpenFile(cfg.Render.Framebuffer, os.O_RDWR, 0o666)
			if err != nil {
				return errors.Wrap(err, "opening framebuffer")
			}
			defer fb.Close()
			driver.Framebuffer = fb
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Telemetry.Enabled {
		driver.Telemetry = telemetry.New()
		g.Go(func() error {
			return driver.Telemetry.Serve(ctx, cfg.Telemetry.Addr, logger)
		})
	}

	if cfg.Input.Keyboard {
		if restore, err := keyboard.MakeRaw(); err != nil {
			logger.Warnw("keyboard disabled", "error", err)
		} else {
			defer restore()
			keys := make(chan keyboard.KeyEvent)
			reader := keyboard.NewReader(os.Stdin, cfg.Input.KeyRelease)
			g.Go(func() error { return reader.Loop(ctx, keys) })
			g.Go(func() error {
				controls.PumpKeys(ctx, keys)
				return nil
			})
		}
	}

	if cfg.Input.JoystickDevice != "" {
		if j, err := joystick.Open(cfg.Input.JoystickDevice); err != nil {
			logger.Warnw("could not connect controller", "error", err)
		} else {
			logger.Infow("opened joystick", "device", cfg.Input.JoystickDevice)
			events := make(chan *joystick.Event)
			g.Go(func() error {
				<-ctx.Done()
				return j.Close()
			})
			g.Go(func() error {
				err := j.Loop(ctx, events)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
			g.Go(func() error {
				controls.PumpJoystick(ctx, events)
				return nil
			})
		}
	}

	g.Go(func() error {
		// The loop ending for any reason ends the run.
		defer cancel()
		return driver.Run(ctx, cfg.TickHz)
	})

	return g.Wait()
}

func registerSignalHandlers(cancelFunc context.CancelFunc, logger *zap.SugaredLogger) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		logger.Infow("signal", "signal", s.String())
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
