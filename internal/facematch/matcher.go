package facematch

import (
	"context"
	"fmt"
	"image"

	"github.com/kozaktomas/facecheck/internal/annotate"
	"github.com/kozaktomas/facecheck/internal/embedding"
	"github.com/kozaktomas/facecheck/internal/gallery"
)

// Matcher detects faces in a frame and matches each one against a gallery.
//
// Every face is compared against every gallery entry. A face matches when at least
// one entry lies within tolerance; the closest such entry names it. Every matched
// face is annotated, and the frame as a whole is Matched when any face matched.
type Matcher struct {
	encoder   embedding.Encoder
	annotator *annotate.Annotator
	metric    embedding.Metric
	tolerance float64
}

// NewMatcher creates a matcher comparing descriptors with the encoder's metric.
// A non-positive tolerance selects that metric's default.
func NewMatcher(enc embedding.Encoder, ann *annotate.Annotator, tolerance float64) *Matcher {
	metric := enc.Metric()
	if tolerance <= 0 {
		tolerance = metric.DefaultTolerance()
	}
	if ann == nil {
		ann = annotate.New(annotate.DefaultStyle())
	}
	return &Matcher{encoder: enc, annotator: ann, metric: metric, tolerance: tolerance}
}

// Metric returns the distance metric used for comparisons.
func (m *Matcher) Metric() embedding.Metric {
	return m.metric
}

// Tolerance returns the match threshold.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Match runs detection on frame, compares against g and annotates frame in place.
// With no faces the result is Unmatched and the frame is left untouched.
func (m *Matcher) Match(ctx context.Context, frame *image.RGBA, g *gallery.Gallery) (*Result, error) {
	faces, err := m.encoder.Encode(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}

	res := &Result{
		Frame:   frame,
		Message: MessageUnmatched,
		Labels:  []string{},
		Faces:   make([]FaceMatch, 0, len(faces)),
	}

	known := g.Descriptors()
	for _, f := range faces {
		idx, dist, ok := m.metric.BestMatch(known, f.Descriptor, m.tolerance)
		if !ok {
			res.Faces = append(res.Faces, FaceMatch{Box: f.Box})
			m.annotator.Unmatched(frame, f.Box)
			continue
		}

		label := g.Entries[idx].Label
		res.Faces = append(res.Faces, FaceMatch{Box: f.Box, Matched: true, Label: label, Distance: dist})
		res.Labels = append(res.Labels, label)
		res.Matched = true
		m.annotator.Matched(frame, f.Box, label)
	}

	if res.Matched {
		res.Message = MessageMatched
	}
	return res, nil
}
