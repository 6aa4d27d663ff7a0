package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/junction.report/internal/junction"
	"github.com/banshee-data/junction.report/internal/timeutil"
)

// Summary totals the violation flags raised during a replay. A vehicle
// flagged on several frames counts once per frame.
type Summary struct {
	Frames                int `json:"frames"`
	VehicleReports        int `json:"vehicle_reports"`
	CrossingStopLine      int `json:"crossing_stop_line"`
	FailsToYield          int `json:"fails_to_yield"`
	DrivesWithoutGuidance int `json:"drives_without_guidance"`
	RunsRedLight          int `json:"runs_red_light"`
}

func (s *Summary) add(r junction.FrameReport) {
	s.Frames++
	for _, v := range r.Vehicles {
		s.VehicleReports++
		if v.CrossingStopLine {
			s.CrossingStopLine++
		}
		if v.FailsToYieldToPedestrian {
			s.FailsToYield++
		}
		if v.DrivesWithoutGuidance {
			s.DrivesWithoutGuidance++
		}
		if v.RunsRedLight {
			s.RunsRedLight++
		}
	}
}

// Replayer drives a Scene from a Recording.
type Replayer struct {
	scene *junction.Scene
	clock *timeutil.MockClock

	// NewEventID names each vehicle report that carries a violation.
	NewEventID func() string
	// AfterFrame, when set, runs after every frame. Async recognition uses
	// it to wait for queued crops so readings land on the next frame.
	AfterFrame func(ctx context.Context) error
}

// NewReplayer returns a replayer stamping reports with recorded frame
// times. scene must have been created with the recording's lanes.
func NewReplayer(scene *junction.Scene) *Replayer {
	clock := timeutil.NewMockClock(time.Time{})
	scene.SetClock(clock)
	return &Replayer{scene: scene, clock: clock, NewEventID: uuid.NewString}
}

// Run replays every frame of rec and writes one JSON line per frame to w.
func (p *Replayer) Run(ctx context.Context, rec *Recording, w io.Writer) (Summary, error) {
	var sum Summary

	interval, err := rec.Interval()
	if err != nil {
		return sum, err
	}
	enc := json.NewEncoder(w)

	for i := range rec.Frames {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		frame, err := rec.Frame(i)
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", i, err)
		}

		p.clock.Set(rec.Start.Add(time.Duration(i) * interval))
		report, err := p.scene.Update(ctx, frame)
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", i, err)
		}
		for j := range report.Vehicles {
			if report.Vehicles[j].HasViolation() {
				report.Vehicles[j].EventID = p.NewEventID()
			}
		}
		sum.add(report)

		if err := enc.Encode(report); err != nil {
			return sum, fmt.Errorf("failed to write report for frame %d: %w", i, err)
		}
		if p.AfterFrame != nil {
			if err := p.AfterFrame(ctx); err != nil {
				return sum, fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	return sum, nil
}
