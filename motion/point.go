package motion

import (
	"math"

	"github.com/milk9111/stagehand/common"
)

// Point is a 2D position on the drawing surface, in pixels.
type Point struct {
	X float64
	Y float64
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// LerpPoint linearly interpolates between a and b by t, componentwise.
func LerpPoint(a, b Point, t float64) Point {
	return Point{
		X: common.Lerp(a.X, b.X, t),
		Y: common.Lerp(a.Y, b.Y, t),
	}
}
