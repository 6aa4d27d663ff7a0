package geometry

import (
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// Intersection classifies how two rectangles relate.
type Intersection int

const (
	IntersectNone    Intersection = iota // No shared area or edge
	IntersectPartial                     // Overlapping or touching
	IntersectFull                        // One rectangle encloses the other
)

func (i Intersection) String() string {
	switch i {
	case IntersectPartial:
		return "partial"
	case IntersectFull:
		return "full"
	default:
		return "none"
	}
}

// Rect is an oriented rectangle described by its center and size. Tracked
// boxes and crossing regions are always axis aligned, so no rotation is
// carried.
type Rect struct {
	Center r2.Vec
	Width  float64
	Height float64
}

// RectFromCorner builds a Rect from a top-left corner and size.
func RectFromCorner(x, y, w, h float64) Rect {
	return Rect{Center: r2.Vec{X: x + w/2, Y: y + h/2}, Width: w, Height: h}
}

// Bound returns the rectangle extent as an orb bound.
func (r Rect) Bound() orb.Bound {
	hw, hh := r.Width/2, r.Height/2
	return orb.Bound{
		Min: orb.Point{r.Center.X - hw, r.Center.Y - hh},
		Max: orb.Point{r.Center.X + hw, r.Center.Y + hh},
	}
}

// RectOverlap tests two rectangles for intersection. Touching edges count
// as an intersection.
func RectOverlap(a, b Rect) Intersection {
	ba, bb := a.Bound(), b.Bound()
	if !ba.Intersects(bb) {
		return IntersectNone
	}
	if encloses(ba, bb) || encloses(bb, ba) {
		return IntersectFull
	}
	return IntersectPartial
}

func encloses(outer, inner orb.Bound) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}
