// Package telemetry exposes the live command and module outputs as expvar
// JSON, for plotting with tools such as jplot.
package telemetry

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/teleop"
)

// DefaultAddr is used when Serve is given an empty address.
const DefaultAddr = "127.0.0.1:7070"

// Telemetry holds its own expvar maps rather than publishing into the
// process-wide registry, so several instances can coexist.
type Telemetry struct {
	root    *expvar.Map
	command *expvar.Map
	modules *expvar.Map
	ticks   *expvar.Int
}

func New() *Telemetry {
	t := &Telemetry{
		root:    new(expvar.Map).Init(),
		command: new(expvar.Map).Init(),
		modules: new(expvar.Map).Init(),
		ticks:   new(expvar.Int),
	}
	t.root.Set("command", t.command)
	t.root.Set("modules", t.modules)
	t.root.Set("ticks", t.ticks)
	return t
}

// Update publishes one tick. A nil Telemetry ignores it.
func (t *Telemetry) Update(cmd teleop.Command, states []swerve.ModuleState) {
	if t == nil {
		return
	}
	t.ticks.Add(1)
	setFloat(t.command, "x", cmd.X)
	setFloat(t.command, "y", cmd.Y)
	setFloat(t.command, "rot", cmd.Rot)

	for i, s := range states {
		key := strconv.Itoa(i)
		m, ok := t.modules.Get(key).(*expvar.Map)
		if !ok {
			m = new(expvar.Map).Init()
			t.modules.Set(key, m)
		}
		setFloat(m, "vx", s.Velocity.X)
		setFloat(m, "vy", s.Velocity.Y)
		setFloat(m, "drive", s.DriveOutput)
		setFloat(m, "steer_target", s.SteerTarget)
		setFloat(m, "steer_output", s.SteerOutput)
	}
}

func (t *Telemetry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(w, "{\"swerve\": %s}\n", t.root.String())
}

// Serve runs the HTTP endpoint at /debug/vars until ctx ends.
func (t *Telemetry) Serve(ctx context.Context, addr string, logger *zap.SugaredLogger) error {
	if addr == "" {
		addr = DefaultAddr
	}
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", t)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errC := make(chan error, 1)
	go func() {
		logger.Infow("telemetry listening", "addr", addr)
		errC <- server.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return errors.Wrap(err, "telemetry server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "telemetry shutdown")
	}
	return nil
}

func setFloat(m *expvar.Map, key string, value float64) {
	f, ok := m.Get(key).(*expvar.Float)
	if !ok {
		f = new(expvar.Float)
		m.Set(key, f)
	}
	f.Set(value)
}
