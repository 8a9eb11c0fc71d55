package game

import (
	"math"
	"math/rand"
)

// Position represents a 2D coordinate.
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Equal reports whether two positions are exactly the same point.
func (p Position) Equal(o Position) bool {
	return p.X == o.X && p.Y == o.Y
}

// RandomInt returns a uniformly distributed integer in [min, max].
func RandomInt(rng *rand.Rand, min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + rng.Intn(max-min+1)
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// StepTowards moves from `from` towards `to` by at most step pixels.
// The second return value reports whether `to` was reached.
func StepTowards(from, to Position, step float64) (Position, bool) {
	d := Distance(from, to)
	if d <= step {
		return to, true
	}
	ratio := step / d
	return Position{
		X: from.X + (to.X-from.X)*ratio,
		Y: from.Y + (to.Y-from.Y)*ratio,
	}, false
}

// Angle returns the angle in radians of the vector from -> to.
func Angle(from, to Position) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// Offset returns the point at distance d from p along the direction of target.
func Offset(p, target Position, d float64) Position {
	a := Angle(p, target)
	return Position{X: p.X + math.Cos(a)*d, Y: p.Y + math.Sin(a)*d}
}
