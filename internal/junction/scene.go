package junction

import (
	"context"
	"errors"
	"image"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/junction.report/internal/config"
	"github.com/banshee-data/junction.report/internal/geometry"
	"github.com/banshee-data/junction.report/internal/monitoring"
	"github.com/banshee-data/junction.report/internal/timeutil"
)

// SceneConfig holds the parameters of a Scene.
type SceneConfig struct {
	HistoryCapacity int           // Centers kept per vehicle
	MaxMissedTicks  int           // Ticks a track may go unseen before eviction
	TickDeadline    time.Duration // Budget for plate refresh within one tick (0 = none)
	Parallelism     int           // Vehicles evaluated concurrently
}

// DefaultSceneConfig returns the built-in defaults.
func DefaultSceneConfig() SceneConfig {
	return SceneConfigFromTuning(config.EmptyTuningConfig())
}

// SceneConfigFromTuning builds a SceneConfig from a loaded TuningConfig.
func SceneConfigFromTuning(cfg *config.TuningConfig) SceneConfig {
	return SceneConfig{
		HistoryCapacity: cfg.GetHistoryCapacity(),
		MaxMissedTicks:  cfg.GetMaxMissedTicks(),
		TickDeadline:    cfg.GetTickDeadline(),
		Parallelism:     cfg.GetParallelism(),
	}
}

// Detection is one tracked identity's input for a tick.
type Detection struct {
	ID         string
	Category   Category
	Box        Box
	Confidence float64
	ROI        image.Image // Vehicle crop for plate recognition; ignored for pedestrians
}

// Frame is the complete input for one tick.
type Frame struct {
	Detections []Detection
	// Crossing is the pedestrian crossing region for the yield check. When
	// nil no vehicle is flagged for failing to yield.
	Crossing *geometry.Rect
}

// Counts summarises the tracks held by a Scene.
type Counts struct {
	Vehicles    int `json:"vehicles"`
	Pedestrians int `json:"pedestrians"`
	Flagged     int `json:"flagged"`
}

// Scene owns every track at one intersection and runs the per-tick update.
type Scene struct {
	cfg   SceneConfig
	lanes []*Lane
	eval  *Evaluator
	clock timeutil.Clock

	mu          sync.Mutex
	tick        uint64
	vehicles    map[string]*Vehicle
	pedestrians map[string]*Pedestrian
}

// NewScene creates a scene over the ordered lanes. Lane order decides
// assignment when boundaries overlap. plates may be nil to disable plate
// recognition.
func NewScene(cfg SceneConfig, lanes []*Lane, plates PlateReader) (*Scene, error) {
	if cfg.HistoryCapacity < 2 {
		return nil, invalidf("scene.history_capacity", "must be at least 2, got %d", cfg.HistoryCapacity)
	}
	if cfg.MaxMissedTicks < 1 {
		return nil, invalidf("scene.max_missed_ticks", "must be at least 1, got %d", cfg.MaxMissedTicks)
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	for i, l := range lanes {
		if l == nil {
			return nil, invalidf("lanes", "lane %d is nil", i)
		}
	}
	return &Scene{
		cfg:         cfg,
		lanes:       lanes,
		eval:        NewEvaluator(plates),
		clock:       timeutil.RealClock{},
		vehicles:    make(map[string]*Vehicle),
		pedestrians: make(map[string]*Pedestrian),
	}, nil
}

// SetClock replaces the clock used to stamp reports.
func (s *Scene) SetClock(c timeutil.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

// Lanes returns the scene's lanes in assignment order.
func (s *Scene) Lanes() []*Lane { return s.lanes }

// Update ingests one frame and evaluates every vehicle seen in it.
//
// The whole frame is validated before any track is touched, so a malformed
// frame leaves the scene unchanged and returns an *InvalidInputError.
// Box and history updates happen before the vehicles are evaluated in
// parallel; each evaluation touches only its own vehicle.
func (s *Scene) Update(ctx context.Context, f Frame) (FrameReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(f); err != nil {
		return FrameReport{}, err
	}

	start := s.clock.Now()
	s.tick++

	seen := make([]*Vehicle, 0, len(f.Detections))
	var peds []*Pedestrian
	for _, d := range f.Detections {
		switch d.Category {
		case CategoryVehicle:
			v, ok := s.vehicles[d.ID]
			if !ok {
				v = NewVehicle(d.ID, d.Box, d.Confidence, s.cfg.HistoryCapacity)
				s.vehicles[d.ID] = v
				monitoring.Debugf("tick %d: new vehicle track %s", s.tick, d.ID)
			}
			v.Observe(d.Box, d.Confidence, d.ROI)
			v.lastSeen = s.tick
			if v.AssignLane(s.lanes) {
				monitoring.Debugf("vehicle %s assigned to lane %s (%s)", d.ID, v.lane.ID, v.lane.Category)
			}
			seen = append(seen, v)
		case CategoryPedestrian:
			p, ok := s.pedestrians[d.ID]
			if !ok {
				p = NewPedestrian(d.ID, d.Box, d.Confidence)
				s.pedestrians[d.ID] = p
				monitoring.Debugf("tick %d: new pedestrian track %s", s.tick, d.ID)
			}
			p.Observe(d.Box, d.Confidence)
			p.lastSeen = s.tick
			peds = append(peds, p)
		}
	}

	tickCtx := ctx
	if s.cfg.TickDeadline > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, s.cfg.TickDeadline)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Parallelism)
	for _, v := range seen {
		g.Go(func() error {
			s.eval.Evaluate(tickCtx, v)
			if f.Crossing != nil {
				EvaluateYield(v, peds, *f.Crossing)
			} else {
				v.FailsToYieldToPedestrian = false
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FrameReport{}, err
	}

	s.evict()

	report := FrameReport{
		Tick:             s.tick,
		Time:             start,
		DeadlineExceeded: tickCtx.Err() != nil,
		Vehicles:         make([]VehicleReport, 0, len(seen)),
	}
	for _, v := range seen {
		report.Vehicles = append(report.Vehicles, NewVehicleReport(v))
	}
	sort.Slice(report.Vehicles, func(i, j int) bool {
		return report.Vehicles[i].ID < report.Vehicles[j].ID
	})
	report.Counts = s.countsLocked()

	if elapsed := s.clock.Since(start); s.cfg.TickDeadline > 0 && elapsed > s.cfg.TickDeadline {
		monitoring.Logf("tick %d took %v (deadline %v) for %d vehicles", s.tick, elapsed, s.cfg.TickDeadline, len(seen))
	}
	return report, nil
}

func (s *Scene) validate(f Frame) error {
	ids := make(map[string]struct{}, len(f.Detections))
	for i, d := range f.Detections {
		if d.ID == "" {
			return invalidf("detection", "detection %d has an empty id", i)
		}
		if _, dup := ids[d.ID]; dup {
			return invalidf("detection "+d.ID, "id appears more than once in the frame")
		}
		ids[d.ID] = struct{}{}

		switch d.Category {
		case CategoryVehicle:
			if _, ok := s.pedestrians[d.ID]; ok {
				return invalidf("detection "+d.ID, "id is already tracked as a pedestrian")
			}
		case CategoryPedestrian:
			if _, ok := s.vehicles[d.ID]; ok {
				return invalidf("detection "+d.ID, "id is already tracked as a vehicle")
			}
		default:
			return invalidf("detection "+d.ID, "unknown category %q", d.Category)
		}

		if err := d.Box.Validate(); err != nil {
			var inv *InvalidInputError
			if errors.As(err, &inv) {
				return invalidf("detection "+d.ID+" "+inv.Field, "%s", inv.Reason)
			}
			return err
		}
		if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
			return invalidf("detection "+d.ID, "confidence %v outside [0,1]", d.Confidence)
		}
	}
	if f.Crossing != nil {
		c := f.Crossing
		if c.Width < 0 || c.Height < 0 {
			return invalidf("crossing", "negative size %vx%v", c.Width, c.Height)
		}
		for _, v := range []float64{c.Center.X, c.Center.Y, c.Width, c.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf("crossing", "must be finite, got %v", v)
			}
		}
	}
	return nil
}

// evict drops tracks unseen for more than MaxMissedTicks ticks.
func (s *Scene) evict() {
	limit := uint64(s.cfg.MaxMissedTicks)
	for id, v := range s.vehicles {
		if s.tick-v.lastSeen > limit {
			delete(s.vehicles, id)
			if s.eval.plates != nil {
				s.eval.plates.Forget(id)
			}
			monitoring.Debugf("tick %d: evicted vehicle track %s (plate %q)", s.tick, id, v.LicensePlate)
		}
	}
	for id, p := range s.pedestrians {
		if s.tick-p.lastSeen > limit {
			delete(s.pedestrians, id)
			monitoring.Debugf("tick %d: evicted pedestrian track %s", s.tick, id)
		}
	}
}

// Vehicle returns the vehicle track with the given id. The returned value
// must not be read while Update is running.
func (s *Scene) Vehicle(id string) (*Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// Counts returns the number of live tracks and flagged vehicles.
func (s *Scene) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

func (s *Scene) countsLocked() Counts {
	c := Counts{Vehicles: len(s.vehicles), Pedestrians: len(s.pedestrians)}
	for _, v := range s.vehicles {
		if v.HasViolation() {
			c.Flagged++
		}
	}
	return c
}
