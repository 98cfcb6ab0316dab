// Package facematch compares the faces in a frame against a gallery and annotates matches.
// It is shared by the web endpoint, live sessions and the CLI.
package facematch

import (
	"image"

	"github.com/kozaktomas/facecheck/internal/embedding"
)

// Overall result messages
const (
	MessageMatched   = "Matched"
	MessageUnmatched = "Unmatched"
)

// FaceMatch is the outcome for one detected face.
type FaceMatch struct {
	Box      embedding.Box `json:"box"`
	Matched  bool          `json:"matched"`
	Label    string        `json:"label,omitempty"`
	Distance float64       `json:"distance,omitempty"`
}

// Result is the outcome for one frame.
// Frame is the input frame, annotated in place.
type Result struct {
	Frame   *image.RGBA `json:"-"`
	Message string      `json:"message"`
	Matched bool        `json:"matched"`
	Labels  []string    `json:"labels"`
	Faces   []FaceMatch `json:"faces"`
}
