// Package vec holds the 2D vector helpers used by the swerve kinematics.
package vec

import (
	"math"

	"github.com/golang/geo/r2"
)

// Vector2 is an immutable (x, y) pair. Equality is component-wise (==).
type Vector2 = r2.Point

// Zero is the zero vector.
var Zero = Vector2{}

// New returns the vector (x, y).
func New(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// FromPolar returns the vector with the given magnitude pointing at angle
// radians counter-clockwise from +X.
func FromPolar(magnitude, angle float64) Vector2 {
	return Vector2{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)}
}

// Heading returns atan2(v.Y, v.X). The zero vector has heading 0.
func Heading(v Vector2) float64 {
	return math.Atan2(v.Y, v.X)
}

// XY unpacks v.
func XY(v Vector2) (x, y float64) {
	return v.X, v.Y
}
