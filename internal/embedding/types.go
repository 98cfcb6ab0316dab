// Package embedding defines face descriptors and the encoder backends that produce them.
package embedding

import (
	"context"
	"image"
)

// Descriptor is a fixed-length face vector. Its length is set by the backend (128 for dlib).
type Descriptor []float32

// Face is a single detected face with its descriptor.
type Face struct {
	Box        Box        `json:"box"`
	Descriptor Descriptor `json:"-"`
}

// Encoder detects every face in an image and returns one descriptor per face,
// in detection order. Metric is the distance its descriptors are compared with.
type Encoder interface {
	Encode(ctx context.Context, img image.Image) ([]Face, error)
	Metric() Metric
}
