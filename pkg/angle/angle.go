package angle

import "math"

// PlusMinusPi is an angle in radians, stored as a value in range (-π, π].
// All operations wrap their output into range.
type PlusMinusPi struct {
	float64
}

func (a PlusMinusPi) Add(b PlusMinusPi) PlusMinusPi {
	return FromRadians(a.float64 + b.float64)
}

func (a PlusMinusPi) Sub(b PlusMinusPi) PlusMinusPi {
	return FromRadians(a.float64 - b.float64)
}

// Radians returns the angle in radians, range (-π, π].
func (a PlusMinusPi) Radians() float64 {
	return a.float64
}

// Degrees returns the angle in degrees, range (-180, 180].
func (a PlusMinusPi) Degrees() float64 {
	return a.float64 * 180 / math.Pi
}

// FromRadians converts a float of any magnitude to a PlusMinusPi by
// calculating f mod 2π and shifting into range.
func FromRadians(f float64) PlusMinusPi {
	d := math.Mod(f, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return PlusMinusPi{d}
}

// FromDegrees is FromRadians for an angle given in degrees.
func FromDegrees(f float64) PlusMinusPi {
	return FromRadians(f * math.Pi / 180)
}
