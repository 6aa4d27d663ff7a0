package junction

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/junction.report/internal/geometry"
)

// LaneCategory names the turning movements painted on a lane.
type LaneCategory string

const (
	LaneLeft          LaneCategory = "left"
	LaneRight         LaneCategory = "right"
	LaneStraight      LaneCategory = "straight"
	LaneStraightLeft  LaneCategory = "straight_left"
	LaneStraightRight LaneCategory = "straight_right"
)

// Directions returns the movements the category permits.
func (c LaneCategory) Directions() (DirectionSet, bool) {
	switch c {
	case LaneLeft:
		return DirectionSet{Left}, true
	case LaneRight:
		return DirectionSet{Right}, true
	case LaneStraight:
		return DirectionSet{Forward}, true
	case LaneStraightLeft:
		return DirectionSet{Left, Forward}, true
	case LaneStraightRight:
		return DirectionSet{Right, Forward}, true
	}
	return nil, false
}

// Lane is a traffic lane: a quadrilateral boundary whose LeftTop→RightTop
// edge is the stop line, and a category fixing the permitted movements.
type Lane struct {
	ID       string
	Category LaneCategory
	Boundary geometry.Quad
}

// NewLane validates a lane definition. corners must hold exactly four
// finite points ordered left-top, right-top, right-bottom, left-bottom.
func NewLane(id string, category LaneCategory, corners []r2.Vec) (*Lane, error) {
	if _, ok := category.Directions(); !ok {
		return nil, invalidf("lane "+id+".category", "unknown category %q", category)
	}
	if len(corners) != 4 {
		return nil, invalidf("lane "+id+".boundary", "need 4 corners, got %d", len(corners))
	}
	for i, c := range corners {
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
			return nil, invalidf("lane "+id+".boundary", "corner %d is not finite: %v", i, c)
		}
	}
	return &Lane{
		ID:       id,
		Category: category,
		Boundary: geometry.Quad{
			LeftTop:     corners[0],
			RightTop:    corners[1],
			RightBottom: corners[2],
			LeftBottom:  corners[3],
		},
	}, nil
}

// Contains reports whether p lies strictly inside the lane boundary.
func (l *Lane) Contains(p geometry.Point) bool {
	return geometry.PointInQuad(p.Vec(), l.Boundary)
}

// StopLine returns the slope k and intercept m of the line through the
// stop-line endpoints, y = k*x + m. ok is false for a vertical stop line.
func (l *Lane) StopLine() (k, m float64, ok bool) {
	a, b := l.Boundary.LeftTop, l.Boundary.RightTop
	dx := b.X - a.X
	if dx == 0 {
		return 0, 0, false
	}
	k = (b.Y - a.Y) / dx
	m = r2.Cross(b, a) / dx
	return k, m, true
}
