package recognition

import (
	"context"
	"errors"
	"image"

	"github.com/banshee-data/junction.report/internal/monitoring"
)

// Inline calls the recogniser synchronously for every read.
type Inline struct {
	rec Recognizer
}

// NewInline returns a reader that calls rec directly.
func NewInline(rec Recognizer) *Inline {
	return &Inline{rec: rec}
}

// Read recognises roi for track id. It returns false when there is no
// image, the context has expired, the recogniser failed or the reading is
// out of range; none of these are errors for the caller.
func (in *Inline) Read(ctx context.Context, id string, roi image.Image) (Reading, bool) {
	if roi == nil || ctx.Err() != nil {
		return Reading{}, false
	}
	r, err := in.rec.Recognize(ctx, roi)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			monitoring.Debugf("plate recognition for track %s skipped: %v", id, err)
		} else {
			monitoring.Logf("plate recognition for track %s failed: %v", id, err)
		}
		return Reading{}, false
	}
	if !r.Valid() {
		monitoring.Logf("plate recognition for track %s returned confidence %v outside [0,1]", id, r.Confidence)
		return Reading{}, false
	}
	return r, true
}

// Forget is a no-op; Inline keeps no per-track state.
func (in *Inline) Forget(string) {}
