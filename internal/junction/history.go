package junction

import "github.com/banshee-data/junction.report/internal/geometry"

// Sample is one history slot. OK is false when the slot has never been
// written; no coordinate doubles as an "empty" marker.
type Sample struct {
	Point geometry.Point
	OK    bool
}

// BoundedHistory is a fixed-capacity ring of track centers. Once full,
// each Push overwrites the oldest entry.
type BoundedHistory struct {
	points []geometry.Point
	cursor int
	count  int
}

// NewBoundedHistory returns an empty history holding at most capacity
// points. Capacities below 2 are raised to 2 so motion can be derived.
func NewBoundedHistory(capacity int) *BoundedHistory {
	if capacity < 2 {
		capacity = 2
	}
	return &BoundedHistory{points: make([]geometry.Point, capacity)}
}

// Push records p as the newest point.
func (h *BoundedHistory) Push(p geometry.Point) {
	h.points[h.cursor] = p
	h.cursor = (h.cursor + 1) % len(h.points)
	if h.count < len(h.points) {
		h.count++
	}
}

// Cap returns the fixed capacity.
func (h *BoundedHistory) Cap() int { return len(h.points) }

// Len returns the number of stored points.
func (h *BoundedHistory) Len() int { return h.count }

// at returns the i-th newest sample (0 = newest).
func (h *BoundedHistory) at(i int) Sample {
	if i >= h.count {
		return Sample{}
	}
	n := len(h.points)
	return Sample{Point: h.points[((h.cursor-1-i)%n+n)%n], OK: true}
}

// Latest returns the most recently pushed point, or false if none.
func (h *BoundedHistory) Latest() (geometry.Point, bool) {
	s := h.at(0)
	return s.Point, s.OK
}

// LatestTwo returns the newest and second-newest samples. Either may be
// empty while fewer than two points have been pushed.
func (h *BoundedHistory) LatestTwo() (newest, older Sample) {
	return h.at(0), h.at(1)
}

// Points returns the stored points, newest first.
func (h *BoundedHistory) Points() []geometry.Point {
	out := make([]geometry.Point, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.at(i).Point)
	}
	return out
}
