package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Quad is a quadrilateral whose corners are listed in boundary order.
// The LeftTop→RightTop edge is the one nearest the intersection.
type Quad struct {
	LeftTop     r2.Vec
	RightTop    r2.Vec
	RightBottom r2.Vec
	LeftBottom  r2.Vec
}

// Corners returns the corners in boundary order.
func (q Quad) Corners() [4]r2.Vec {
	return [4]r2.Vec{q.LeftTop, q.RightTop, q.RightBottom, q.LeftBottom}
}

// PointInQuad reports whether p lies strictly inside q.
//
// For each edge (a→b) the cross product of the edge vector with the vector
// a→p is computed. The point is inside only when all four products share
// the same strict sign, so the test works for either winding order. A point
// on an edge line yields a zero product and is reported as outside.
func PointInQuad(p r2.Vec, q Quad) bool {
	corners := q.Corners()

	var pos, neg int
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		c := r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
		switch {
		case c > 0:
			pos++
		case c < 0:
			neg++
		default:
			return false
		}
	}
	return pos == len(corners) || neg == len(corners)
}
