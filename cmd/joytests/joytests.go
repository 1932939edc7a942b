// Command joytests prints joystick events and the chassis command each one
// maps to, for checking axis bindings.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tigerbot-team/swervesim/pkg/config"
	"github.com/tigerbot-team/swervesim/pkg/joystick"
	"github.com/tigerbot-team/swervesim/pkg/logging"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/tunable"
)

func main() {
	logger, err := logging.NewLogger("joytests", "info")
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(os.Getenv("SWERVESIM_CONFIG"))
	if err != nil {
		logger.Fatalw("bad config", "error", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel, logger)

	input := teleop.New(cfg.Input.Config, tunable.New(logger))

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents := initJoystick(ctx, cancel, logger)
	for je := range joystickEvents {
		if je.Type == joystick.EventTypeAxis && input.OnAxis(je.Number, je.Normalized()) {
			cmd := input.Sample()
			logger.Infow("event", "event", je.String(), "init", je.Init, "x", cmd.X, "y", cmd.Y, "rot", cmd.Rot)
			continue
		}
		logger.Infow("event", "event", je.String(), "init", je.Init)
	}
}

func initJoystick(ctx context.Context, cancel context.CancelFunc, logger *zap.SugaredLogger) chan *joystick.Event {
	joystickEvents := make(chan *joystick.Event)
	firstLog := true
	for {
		jDev := os.Getenv("JOYSTICK_DEVICE")
		if jDev == "" {
			jDev = "/dev/input/js0"
		}
		j, err := joystick.Open(jDev)
		if err != nil {
			if firstLog {
				logger.Infow("waiting for joystick", "error", err)
				firstLog = false
			}
			time.Sleep(1 * time.Second)
			continue
		}

		logger.Infow("opened joystick", "device", jDev)
		go func() {
			defer cancel()
			defer j.Close()
			err := j.Loop(ctx, joystickEvents)
			logger.Infow("joystick failed", "error", err)
		}()
		break
	}
	return joystickEvents
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
