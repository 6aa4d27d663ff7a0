package junction

import (
	"time"

	"github.com/banshee-data/junction.report/internal/geometry"
)

// VehicleReport is the per-tick output for one vehicle. RunsRedLight only
// states the motion condition; consumers must AND it with the signal phase.
type VehicleReport struct {
	ID              string         `json:"id"`
	EventID         string         `json:"event_id,omitempty"`
	Center          geometry.Point `json:"center"`
	Lane            string         `json:"lane,omitempty"`
	LaneCategory    LaneCategory   `json:"lane_category,omitempty"`
	Moving          bool           `json:"moving"`
	Direction       Direction      `json:"direction"`
	Plate           string         `json:"plate,omitempty"`
	PlateConfidence float64        `json:"plate_confidence"`

	CrossingStopLine         bool `json:"crossing_stop_line"`
	FailsToYieldToPedestrian bool `json:"fails_to_yield"`
	DrivesWithoutGuidance    bool `json:"drives_without_guidance"`
	RunsRedLight             bool `json:"runs_red_light"`
}

// NewVehicleReport snapshots v.
func NewVehicleReport(v *Vehicle) VehicleReport {
	r := VehicleReport{
		ID:                       v.id,
		Center:                   v.box.Center(),
		Moving:                   v.Moving,
		Direction:                v.Direction,
		Plate:                    v.LicensePlate,
		PlateConfidence:          v.LicenseConfidence,
		CrossingStopLine:         v.CrossingStopLine,
		FailsToYieldToPedestrian: v.FailsToYieldToPedestrian,
		DrivesWithoutGuidance:    v.DrivesWithoutGuidance,
		RunsRedLight:             v.RunsRedLight,
	}
	if v.lane != nil {
		r.Lane = v.lane.ID
		r.LaneCategory = v.lane.Category
	}
	return r
}

// HasViolation reports whether any violation flag is raised.
func (r VehicleReport) HasViolation() bool {
	return r.CrossingStopLine || r.FailsToYieldToPedestrian || r.DrivesWithoutGuidance || r.RunsRedLight
}

// FrameReport is the output of one Scene.Update.
type FrameReport struct {
	Tick uint64    `json:"tick"`
	Time time.Time `json:"time"`
	// DeadlineExceeded is set when the tick budget ran out; plate refresh
	// may have been skipped for some vehicles, rule flags are complete.
	DeadlineExceeded bool            `json:"deadline_exceeded,omitempty"`
	Vehicles         []VehicleReport `json:"vehicles"`
	Counts           Counts          `json:"counts"`
}
