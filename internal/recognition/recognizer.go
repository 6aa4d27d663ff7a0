package recognition

import (
	"context"
	"image"
	"math"
)

// Reading is one plate recognition result. Text is empty when the
// recogniser found no plate.
type Reading struct {
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the confidence lies within [0, 1].
func (r Reading) Valid() bool {
	return !math.IsNaN(r.Confidence) && r.Confidence >= 0 && r.Confidence <= 1
}

// Better returns whichever reading has the strictly higher confidence,
// preferring current on ties.
func Better(current, candidate Reading) Reading {
	if candidate.Confidence > current.Confidence {
		return candidate
	}
	return current
}

// Recognizer reads a plate from a cropped vehicle image.
type Recognizer interface {
	Recognize(ctx context.Context, roi image.Image) (Reading, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, roi image.Image) (Reading, error)

// Recognize calls f(ctx, roi).
func (f RecognizerFunc) Recognize(ctx context.Context, roi image.Image) (Reading, error) {
	return f(ctx, roi)
}
