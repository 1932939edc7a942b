package sim

import (
	"go.uber.org/zap"

	"github.com/tigerbot-team/swervesim/pkg/config"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
)

// BuildChassis makes the chassis described by cfg. An explicit module list,
// even an empty one, wins over generated geometry.
func BuildChassis(cfg config.Config, logger *zap.SugaredLogger) *swerve.Chassis {
	c := swerve.New(cfg.ChassisOptions()...)
	for i, m := range c.Modules() {
		logger.Debugw("module", "index", i, "x", m.Position().X, "y", m.Position().Y)
	}
	if c.Len() == 0 {
		logger.Warn("chassis has no modules; commands will have no effect")
	}
	return c
}
