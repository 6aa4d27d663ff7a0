package junction

// ClassifyMotion derives the moving state and heading from the two newest
// history samples. It is a transition function over the previous heading:
// prev is returned unchanged unless the vehicle is moving towards the near
// edge of the frame (newest Y strictly greater than older Y) along a
// non-vertical path.
//
// With slope k = dy/dx the heading is Right for 0 <= k < 1, Forward for
// |k| >= 1 and Left for -1 < k < 0.
func ClassifyMotion(prev Direction, newest, older Sample) (moving bool, dir Direction) {
	if !newest.OK || !older.OK || newest.Point == older.Point {
		return false, prev
	}

	dy := newest.Point.Y - older.Point.Y
	dx := newest.Point.X - older.Point.X
	if dy <= 0 || dx == 0 {
		return true, prev
	}

	k := float64(dy) / float64(dx)
	switch {
	case k >= 0 && k < 1:
		return true, Right
	case k >= 1 || k <= -1:
		return true, Forward
	default:
		return true, Left
	}
}
