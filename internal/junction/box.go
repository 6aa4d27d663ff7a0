package junction

import (
	"math"

	"github.com/banshee-data/junction.report/internal/geometry"
)

// Box is a detector bounding box given by its top-left corner and size,
// in image pixels.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewBox validates and returns a box.
func NewBox(x, y, w, h float64) (Box, error) {
	b := Box{X: x, Y: y, W: w, H: h}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Validate rejects non-finite coordinates and negative sizes.
func (b Box) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{{"x", b.X}, {"y", b.Y}, {"w", b.W}, {"h", b.H}}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalidf("box."+f.name, "must be finite, got %v", f.v)
		}
	}
	if b.W < 0 {
		return invalidf("box.w", "must not be negative, got %v", b.W)
	}
	if b.H < 0 {
		return invalidf("box.h", "must not be negative, got %v", b.H)
	}
	return nil
}

// BottomRight returns the bottom-right corner.
func (b Box) BottomRight() (x2, y2 float64) {
	return b.X + b.W, b.Y + b.H
}

// Center returns the box center truncated to whole pixels.
func (b Box) Center() geometry.Point {
	return geometry.Point{X: int(b.X + b.W/2), Y: int(b.Y + b.H/2)}
}

// Rect returns the zero-rotation rectangle centred on Center used for
// overlap tests.
func (b Box) Rect() geometry.Rect {
	return geometry.Rect{Center: b.Center().Vec(), Width: b.W, Height: b.H}
}
