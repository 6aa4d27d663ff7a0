package junction

import (
	"context"
	"image"

	"github.com/banshee-data/junction.report/internal/geometry"
	"github.com/banshee-data/junction.report/internal/monitoring"
	"github.com/banshee-data/junction.report/internal/recognition"
)

// PlateReader supplies plate readings for a vehicle crop.
// recognition.Inline and recognition.Pool implement it.
type PlateReader interface {
	Read(ctx context.Context, id string, roi image.Image) (recognition.Reading, bool)
	Forget(id string)
}

// Evaluator runs the ordered per-tick rule checks for one vehicle.
type Evaluator struct {
	plates PlateReader
}

// NewEvaluator returns an evaluator reading plates from plates. A nil
// reader disables the licence refresh step.
func NewEvaluator(plates PlateReader) *Evaluator {
	return &Evaluator{plates: plates}
}

// Evaluate refreshes v's derived state after its box and history have been
// updated for the tick. Steps run in a fixed order: licence, motion, stop
// line, red-light motion, guidance. An expired ctx skips only the licence
// refresh. Evaluate touches no state outside v.
func (e *Evaluator) Evaluate(ctx context.Context, v *Vehicle) {
	e.refreshLicense(ctx, v)
	refreshMotion(v)
	checkStopLine(v)
	checkRedLight(v)
	checkGuidance(v)
}

func (e *Evaluator) refreshLicense(ctx context.Context, v *Vehicle) {
	if e.plates == nil {
		return
	}
	if ctx.Err() != nil {
		monitoring.Debugf("tick deadline passed, skipping plate refresh for vehicle %s", v.id)
		return
	}
	r, ok := e.plates.Read(ctx, v.id, v.ROI)
	if !ok {
		return
	}
	if v.ApplyReading(r) {
		monitoring.Debugf("vehicle %s plate %q (confidence %.2f)", v.id, v.LicensePlate, v.LicenseConfidence)
	}
}

func refreshMotion(v *Vehicle) {
	newest, older := v.History.LatestTwo()
	v.Moving, v.Direction = ClassifyMotion(v.Direction, newest, older)
}

// checkStopLine flags a stationary vehicle whose center is beyond its
// lane's stop line. Without a lane, or with a vertical stop line, the flag
// is left as it was.
func checkStopLine(v *Vehicle) {
	if v.lane == nil {
		return
	}
	k, m, ok := v.lane.StopLine()
	if !ok {
		return
	}
	c := v.box.Center()
	beyond := float64(c.Y) < k*float64(c.X)+m
	v.CrossingStopLine = beyond && !v.Moving
}

// checkRedLight reports the motion half of red-light running. Callers must
// combine it with the signal phase.
func checkRedLight(v *Vehicle) {
	v.RunsRedLight = v.Moving && v.Direction == Forward
}

func checkGuidance(v *Vehicle) {
	if v.allowed == nil {
		return
	}
	v.DrivesWithoutGuidance = v.allowed.Contains(v.Direction)
}

// EvaluateYield sets v's failure-to-yield flag. The flag is raised only
// when v overlaps the crossing region while at least one pedestrian also
// overlaps it. pedestrians and crossing are read-only and may be shared
// across concurrent calls.
func EvaluateYield(v *Vehicle, pedestrians []*Pedestrian, crossing geometry.Rect) {
	if geometry.RectOverlap(v.box.Rect(), crossing) == geometry.IntersectNone {
		v.FailsToYieldToPedestrian = false
		return
	}
	for _, p := range pedestrians {
		if geometry.RectOverlap(p.box.Rect(), crossing) != geometry.IntersectNone {
			v.FailsToYieldToPedestrian = true
			return
		}
	}
	v.FailsToYieldToPedestrian = false
}
