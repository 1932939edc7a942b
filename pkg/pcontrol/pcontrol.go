// Package pcontrol implements a proportional-only controller used for module
// steering. It has no integral or derivative terms and no output clamping.
package pcontrol

import (
	"fmt"

	"github.com/pkg/errors"
)

// PreconditionError reports a controller used before it was ready. It is a
// programming error in the caller, not something to retry.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IsPrecondition reports whether err, or anything it wraps, is a
// *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// Proportional computes target - measured. The zero value has no target.
type Proportional struct {
	target    float64
	targetSet bool
}

// New returns a controller with no target.
func New() *Proportional {
	return &Proportional{}
}

// SetTarget stores the setpoint.
func (p *Proportional) SetTarget(target float64) {
	p.target = target
	p.targetSet = true
}

// Target returns the setpoint and whether one has been set.
func (p *Proportional) Target() (float64, bool) {
	return p.target, p.targetSet
}

// Calculate returns the error between the target and the measured value.
func (p *Proportional) Calculate(measured float64) (float64, error) {
	if !p.targetSet {
		return 0, errors.WithStack(&PreconditionError{Op: "calculate", Reason: "target not set"})
	}
	return p.target - measured, nil
}
