package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/junction.report/internal/geometry"
	"github.com/banshee-data/junction.report/internal/junction"
	"github.com/banshee-data/junction.report/internal/recognition"
)

// maxRecordingSize bounds recordings read from disk.
const maxRecordingSize = 256 * 1024 * 1024

// Recording is the on-disk form of a recorded scene.
type Recording struct {
	Start         time.Time   `json:"start"`
	FrameInterval string      `json:"frame_interval,omitempty"` // duration string like "40ms"
	Lanes         []LaneSpec  `json:"lanes"`
	Crossing      *RectSpec   `json:"crossing,omitempty"`
	Frames        []FrameSpec `json:"frames"`
}

// LaneSpec is a lane boundary listed left-top, right-top, right-bottom,
// left-bottom.
type LaneSpec struct {
	ID       string       `json:"id"`
	Category string       `json:"category"`
	Boundary [][2]float64 `json:"boundary"`
}

// RectSpec is an axis-aligned rectangle in top-left/size form.
type RectSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FrameSpec is one recorded frame. Crossing overrides the recording-level
// crossing region for this frame only.
type FrameSpec struct {
	Objects  []ObjectSpec `json:"objects"`
	Crossing *RectSpec    `json:"crossing,omitempty"`
}

// ObjectSpec is one tracked object in a frame.
type ObjectSpec struct {
	ID         string               `json:"id"`
	Category   string               `json:"category"`
	TLWH       []float64            `json:"tlwh"`
	Confidence float64              `json:"confidence"`
	Plate      *recognition.Reading `json:"plate,omitempty"`
}

// LoadRecording reads and decodes a JSON recording.
func LoadRecording(path string) (*Recording, error) {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}
	if info.Size() > maxRecordingSize {
		return nil, fmt.Errorf("recording too large: %d bytes (max %d)", info.Size(), maxRecordingSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse recording JSON: %w", err)
	}
	return &rec, nil
}

// Interval returns the frame spacing used to stamp reports.
func (r *Recording) Interval() (time.Duration, error) {
	if r.FrameInterval == "" {
		return 40 * time.Millisecond, nil // 25 fps
	}
	d, err := time.ParseDuration(r.FrameInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid frame_interval '%s': %w", r.FrameInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("frame_interval must be positive, got %s", d)
	}
	return d, nil
}

// BuildLanes validates the recorded lanes in order.
func (r *Recording) BuildLanes() ([]*junction.Lane, error) {
	lanes := make([]*junction.Lane, 0, len(r.Lanes))
	for i, spec := range r.Lanes {
		id := spec.ID
		if id == "" {
			id = fmt.Sprintf("lane-%d", i)
		}
		corners := make([]r2.Vec, len(spec.Boundary))
		for j, c := range spec.Boundary {
			corners[j] = r2.Vec{X: c[0], Y: c[1]}
		}
		l, err := junction.NewLane(id, junction.LaneCategory(spec.Category), corners)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, l)
	}
	return lanes, nil
}

// Frame converts frame i into scene input.
func (r *Recording) Frame(i int) (junction.Frame, error) {
	spec := r.Frames[i]
	f := junction.Frame{Detections: make([]junction.Detection, 0, len(spec.Objects))}

	crossing := r.Crossing
	if spec.Crossing != nil {
		crossing = spec.Crossing
	}
	if crossing != nil {
		rect := geometry.RectFromCorner(crossing.X, crossing.Y, crossing.W, crossing.H)
		f.Crossing = &rect
	}

	for _, o := range spec.Objects {
		if len(o.TLWH) != 4 {
			return junction.Frame{}, &junction.InvalidInputError{
				Field:  fmt.Sprintf("frame %d object %s tlwh", i, o.ID),
				Reason: fmt.Sprintf("need 4 values, got %d", len(o.TLWH)),
			}
		}
		d := junction.Detection{
			ID:         o.ID,
			Category:   category(o.Category),
			Box:        junction.Box{X: o.TLWH[0], Y: o.TLWH[1], W: o.TLWH[2], H: o.TLWH[3]},
			Confidence: o.Confidence,
		}
		if o.Plate != nil && d.Category == junction.CategoryVehicle {
			d.ROI = newPlateCrop(*o.Plate)
		}
		f.Detections = append(f.Detections, d)
	}
	return f, nil
}

// category accepts the tracker's class labels as well as the scene's own.
func category(label string) junction.Category {
	switch label {
	case "car", "truck", "bus", "motorcycle":
		return junction.CategoryVehicle
	case "person":
		return junction.CategoryPedestrian
	}
	return junction.Category(label)
}

// plateCrop is a placeholder crop carrying the plate reading captured when
// the scene was recorded.
type plateCrop struct {
	*image.Gray
	reading recognition.Reading
}

func newPlateCrop(r recognition.Reading) *plateCrop {
	return &plateCrop{Gray: image.NewGray(image.Rect(0, 0, 1, 1)), reading: r}
}

// RecordedRecognizer returns the reading stored in a recorded crop. Crops
// without a recorded reading yield an empty, zero-confidence reading.
var RecordedRecognizer = recognition.RecognizerFunc(func(ctx context.Context, roi image.Image) (recognition.Reading, error) {
	if err := ctx.Err(); err != nil {
		return recognition.Reading{}, err
	}
	if pc, ok := roi.(*plateCrop); ok {
		return pc.reading, nil
	}
	return recognition.Reading{}, nil
})
