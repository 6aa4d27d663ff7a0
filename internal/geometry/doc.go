// Package geometry holds the planar primitives used by the junction
// rule checks: integer image points, lane quadrilaterals and
// zero-rotation rectangles.
//
// All coordinates are image coordinates: X grows to the right and Y grows
// towards the bottom of the frame.
package geometry
