package junction

import (
	"image"

	"github.com/banshee-data/junction.report/internal/recognition"
)

// Category tags what kind of object a track follows.
type Category string

const (
	CategoryVehicle    Category = "vehicle"
	CategoryPedestrian Category = "pedestrian"
)

// TrackedObject is the capability set shared by every tracked identity.
type TrackedObject interface {
	ID() string
	Category() Category
	Box() Box
	Confidence() float64
}

// track holds the identity and latest detection of a tracked object.
type track struct {
	id         string
	category   Category
	box        Box
	confidence float64
	lastSeen   uint64 // Scene tick of the latest observation
}

func (t *track) ID() string          { return t.id }
func (t *track) Category() Category  { return t.category }
func (t *track) Box() Box            { return t.box }
func (t *track) Confidence() float64 { return t.confidence }

// Pedestrian is a tracked person. It only feeds the vehicle yield check.
type Pedestrian struct {
	track
}

// NewPedestrian creates a pedestrian track from its first detection.
func NewPedestrian(id string, box Box, confidence float64) *Pedestrian {
	return &Pedestrian{track: track{id: id, category: CategoryPedestrian, box: box, confidence: confidence}}
}

// Observe replaces the pedestrian's box with the latest detection.
func (p *Pedestrian) Observe(box Box, confidence float64) {
	p.box = box
	p.confidence = confidence
}

// Vehicle is a tracked vehicle together with everything derived from its
// motion and the violation flags raised for the current tick.
type Vehicle struct {
	track

	// ROI is the latest cropped vehicle image handed to the plate
	// recogniser; nil when the caller supplied none.
	ROI image.Image

	LicensePlate      string
	LicenseConfidence float64

	lane    *Lane
	allowed DirectionSet

	History   *BoundedHistory
	Moving    bool
	Direction Direction

	CrossingStopLine         bool
	FailsToYieldToPedestrian bool
	DrivesWithoutGuidance    bool
	RunsRedLight             bool
}

// NewVehicle creates a vehicle track with an empty history of the given
// capacity. The first center is recorded by Observe.
func NewVehicle(id string, box Box, confidence float64, historyCapacity int) *Vehicle {
	return &Vehicle{
		track:     track{id: id, category: CategoryVehicle, box: box, confidence: confidence},
		History:   NewBoundedHistory(historyCapacity),
		Direction: Stopped,
	}
}

// Observe replaces the box with the latest detection and pushes its
// center onto the history. It must run before the tick's evaluation.
func (v *Vehicle) Observe(box Box, confidence float64, roi image.Image) {
	v.box = box
	v.confidence = confidence
	v.ROI = roi
	v.History.Push(box.Center())
}

// Lane returns the assigned lane, or nil if none has matched yet.
func (v *Vehicle) Lane() *Lane { return v.lane }

// AllowedDirections returns the movements permitted by the assigned lane,
// or nil while the vehicle has no lane.
func (v *Vehicle) AllowedDirections() DirectionSet { return v.allowed }

// AssignLane attaches the first lane, in the given order, whose boundary
// strictly contains the vehicle's current center. The assignment is made
// at most once; later calls are no-ops. It reports whether a lane was
// assigned by this call.
func (v *Vehicle) AssignLane(lanes []*Lane) bool {
	if v.lane != nil {
		return false
	}
	center := v.box.Center()
	for _, l := range lanes {
		if !l.Contains(center) {
			continue
		}
		dirs, ok := l.Category.Directions()
		if !ok {
			continue
		}
		v.lane = l
		v.allowed = dirs
		return true
	}
	return false
}

// ApplyReading adopts r when its confidence strictly exceeds the stored
// one. It reports whether the plate changed.
func (v *Vehicle) ApplyReading(r recognition.Reading) bool {
	current := recognition.Reading{Text: v.LicensePlate, Confidence: v.LicenseConfidence}
	best := recognition.Better(current, r)
	if best == current {
		return false
	}
	v.LicensePlate = best.Text
	v.LicenseConfidence = best.Confidence
	return true
}

// HasViolation reports whether any violation flag is raised.
func (v *Vehicle) HasViolation() bool {
	return v.CrossingStopLine || v.FailsToYieldToPedestrian || v.DrivesWithoutGuidance || v.RunsRedLight
}
