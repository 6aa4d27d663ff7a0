package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/junction.report/internal/geometry"
	"github.com/banshee-data/junction.report/internal/junction"
	"github.com/banshee-data/junction.report/internal/monitoring"
	"github.com/banshee-data/junction.report/internal/recognition"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func loadFixture(t *testing.T) *Recording {
	t.Helper()
	rec, err := LoadRecording(filepath.Join("testdata", "crossing.json"))
	if err != nil {
		t.Fatalf("LoadRecording: %v", err)
	}
	return rec
}

func newTestScene(t *testing.T, rec *Recording, plates junction.PlateReader) *junction.Scene {
	t.Helper()
	lanes, err := rec.BuildLanes()
	if err != nil {
		t.Fatalf("BuildLanes: %v", err)
	}
	scene, err := junction.NewScene(junction.DefaultSceneConfig(), lanes, plates)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return scene
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("event-%d", n)
	}
}

func decodeReports(t *testing.T, out []byte) []junction.FrameReport {
	t.Helper()
	var reports []junction.FrameReport
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		var r junction.FrameReport
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode report line %q: %v", sc.Text(), err)
		}
		reports = append(reports, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}
	return reports
}

func TestReplayInline(t *testing.T) {
	rec := loadFixture(t)
	scene := newTestScene(t, rec, recognition.NewInline(RecordedRecognizer))

	r := NewReplayer(scene)
	r.NewEventID = counterIDs()

	var out bytes.Buffer
	sum, err := r.Run(context.Background(), rec, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantSum := Summary{
		Frames:                4,
		VehicleReports:        4,
		CrossingStopLine:      1,
		FailsToYield:          2,
		DrivesWithoutGuidance: 3,
		RunsRedLight:          2,
	}
	if diff := cmp.Diff(wantSum, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	reports := decodeReports(t, out.Bytes())
	if len(reports) != 4 {
		t.Fatalf("got %d report lines, want 4", len(reports))
	}

	start := time.Date(2026, 5, 4, 7, 30, 0, 0, time.UTC)
	for i, fr := range reports {
		if fr.Tick != uint64(i+1) {
			t.Errorf("report %d tick = %d, want %d", i, fr.Tick, i+1)
		}
		if want := start.Add(time.Duration(i) * 100 * time.Millisecond); !fr.Time.Equal(want) {
			t.Errorf("report %d time = %v, want %v", i, fr.Time, want)
		}
	}

	// The first frame carries no violation, so no event id is drawn.
	if got := reports[0].Vehicles[0].EventID; got != "" {
		t.Errorf("frame 0 event id = %q, want none", got)
	}

	want := junction.VehicleReport{
		ID:                       "1",
		EventID:                  "event-3",
		Center:                   geometry.Point{X: 300, Y: 70},
		Lane:                     "n-straight",
		LaneCategory:             junction.LaneStraight,
		Moving:                   false,
		Direction:                junction.Forward,
		Plate:                    "CD2",
		PlateConfidence:          0.9,
		CrossingStopLine:         true,
		FailsToYieldToPedestrian: true,
		DrivesWithoutGuidance:    true,
		RunsRedLight:             false,
	}
	last := reports[3]
	if len(last.Vehicles) != 1 {
		t.Fatalf("final frame has %d vehicles, want 1", len(last.Vehicles))
	}
	if diff := cmp.Diff(want, last.Vehicles[0]); diff != "" {
		t.Errorf("final vehicle report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(junction.Counts{Vehicles: 1, Pedestrians: 1, Flagged: 1}, last.Counts); diff != "" {
		t.Errorf("final counts mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayAsyncRecognition(t *testing.T) {
	rec := loadFixture(t)
	plates := recognition.NewPool(RecordedRecognizer, recognition.PoolConfig{
		Workers:   2,
		QueueSize: 8,
		Timeout:   time.Second,
	})
	defer plates.Close()

	scene := newTestScene(t, rec, plates)
	r := NewReplayer(scene)
	r.NewEventID = counterIDs()
	r.AfterFrame = plates.Flush

	var out bytes.Buffer
	if _, err := r.Run(context.Background(), rec, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	reports := decodeReports(t, out.Bytes())

	// Readings queued on one frame are adopted on the next.
	var plateByFrame []string
	for _, fr := range reports {
		plateByFrame = append(plateByFrame, fr.Vehicles[0].Plate)
	}
	if diff := cmp.Diff([]string{"", "AB1", "CD2", "CD2"}, plateByFrame); diff != "" {
		t.Errorf("plate per frame mismatch (-want +got):\n%s", diff)
	}

	stats := plates.Stats()
	if stats.Submitted != 3 || stats.Completed != 3 || stats.Dropped != 0 {
		t.Errorf("pool stats = %+v, want 3 submitted and completed", stats)
	}
}

func TestReplayRejectsMalformedBox(t *testing.T) {
	rec := loadFixture(t)
	rec.Frames[1].Objects[0].TLWH = []float64{300, 320, 20}
	scene := newTestScene(t, rec, nil)

	r := NewReplayer(scene)
	var out bytes.Buffer
	sum, err := r.Run(context.Background(), rec, &out)

	var invalid *junction.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("Run error = %v, want *InvalidInputError", err)
	}
	if sum.Frames != 1 {
		t.Errorf("frames replayed = %d, want 1", sum.Frames)
	}
}

func TestReplayStopsOnCancelledContext(t *testing.T) {
	rec := loadFixture(t)
	scene := newTestScene(t, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NewReplayer(scene).Run(ctx, rec, &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes after cancellation", out.Len())
	}
}

func TestBuildLanesRejectsBadBoundary(t *testing.T) {
	rec := &Recording{Lanes: []LaneSpec{
		{ID: "short", Category: "left", Boundary: [][2]float64{{0, 0}, {10, 0}, {10, 10}}},
	}}
	if _, err := rec.BuildLanes(); err == nil {
		t.Error("expected error for a three-corner boundary")
	}

	rec = &Recording{Lanes: []LaneSpec{
		{Category: "u_turn", Boundary: [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
	}}
	if _, err := rec.BuildLanes(); err == nil {
		t.Error("expected error for an unknown lane category")
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 40 * time.Millisecond, false},
		{"100ms", 100 * time.Millisecond, false},
		{"0s", 0, true},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		got, err := (&Recording{FrameInterval: tt.in}).Interval()
		if (err != nil) != tt.wantErr {
			t.Errorf("Interval(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Interval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCategoryAliases(t *testing.T) {
	tests := map[string]junction.Category{
		"car":        junction.CategoryVehicle,
		"truck":      junction.CategoryVehicle,
		"bus":        junction.CategoryVehicle,
		"motorcycle": junction.CategoryVehicle,
		"vehicle":    junction.CategoryVehicle,
		"person":     junction.CategoryPedestrian,
		"pedestrian": junction.CategoryPedestrian,
		"bicycle":    junction.Category("bicycle"),
	}
	for label, want := range tests {
		if got := category(label); got != want {
			t.Errorf("category(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestFrameOverridesCrossing(t *testing.T) {
	rec := loadFixture(t)
	rec.Frames[0].Crossing = &RectSpec{X: 10, Y: 20, W: 30, H: 40}

	f, err := rec.Frame(0)
	if err != nil {
		t.Fatalf("Frame(0): %v", err)
	}
	want := geometry.RectFromCorner(10, 20, 30, 40)
	if f.Crossing == nil || *f.Crossing != want {
		t.Errorf("crossing = %v, want %v", f.Crossing, want)
	}

	f, err = rec.Frame(1)
	if err != nil {
		t.Fatalf("Frame(1): %v", err)
	}
	want = geometry.RectFromCorner(0, 40, 600, 40)
	if f.Crossing == nil || *f.Crossing != want {
		t.Errorf("crossing = %v, want recording default %v", f.Crossing, want)
	}
}

func TestRecordedRecognizer(t *testing.T) {
	crop := newPlateCrop(recognition.Reading{Text: "XY9", Confidence: 0.4})
	got, err := RecordedRecognizer.Recognize(context.Background(), crop)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if diff := cmp.Diff(recognition.Reading{Text: "XY9", Confidence: 0.4}, got); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RecordedRecognizer.Recognize(ctx, crop); !errors.Is(err, context.Canceled) {
		t.Errorf("Recognize with cancelled ctx = %v, want context.Canceled", err)
	}
}
