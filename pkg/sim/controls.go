package sim

import (
	"context"

	"go.uber.org/zap"

	"github.com/tigerbot-team/swervesim/pkg/joystick"
	"github.com/tigerbot-team/swervesim/pkg/keyboard"
	"github.com/tigerbot-team/swervesim/pkg/render"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
	"github.com/tigerbot-team/swervesim/pkg/tunable"
)

// Controls routes raw key and joystick events. Besides the drive bindings:
//
//	q, ctrl-c  quit
//	space      stop
//	1 2 3      toggle translational / rotational / total arrows
//	[ ]        select previous / next tunable
//	+ -        adjust the selected tunable
type Controls struct {
	Teleop   *teleop.State
	Tunables *tunable.Tunables
	Renderer *render.Renderer
	Logger   *zap.SugaredLogger
	Quit     func()
}

func (c *Controls) OnKey(e keyboard.KeyEvent) {
	if c.Teleop.OnKey(e.Key, e.Pressed) || !e.Pressed {
		return
	}
	switch e.Key {
	case "q", keyboard.KeyCtrlC:
		c.Logger.Info("quit requested")
		if c.Quit != nil {
			c.Quit()
		}
	case keyboard.KeySpace:
		c.Teleop.Stop()
	case "1", "2", "3":
		if c.Renderer == nil {
			return
		}
		layers := c.Renderer.ToggleLayer(render.LayerByIndex[e.Key[0]-'1'])
		c.Logger.Infow("layers", "visible", layers.Names())
	case "[":
		c.Tunables.SelectPrev()
	case "]":
		c.Tunables.SelectNext()
	case "+", "=":
		if cur := c.Tunables.Current(); cur != nil {
			cur.Add(1)
		}
	case "-":
		if cur := c.Tunables.Current(); cur != nil {
			cur.Add(-1)
		}
	default:
		c.Logger.Debugw("unbound key", "key", e.Key)
	}
}

func (c *Controls) OnJoystick(e *joystick.Event) {
	if e.Type != joystick.EventTypeAxis {
		c.Logger.Debugw("joystick button ignored", "event", e.String())
		return
	}
	c.Teleop.OnAxis(e.Number, e.Normalized())
}

// PumpKeys applies key events until the channel closes or ctx ends.
func (c *Controls) PumpKeys(ctx context.Context, events <-chan keyboard.KeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.OnKey(e)
		}
	}
}

// PumpJoystick applies joystick events until the channel closes or ctx ends.
func (c *Controls) PumpJoystick(ctx context.Context, events <-chan *joystick.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.OnJoystick(e)
		}
	}
}
