package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Point is an integer pixel position, typically a bounding-box center.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Vec converts the point to a gonum vector for cross-product arithmetic.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}
