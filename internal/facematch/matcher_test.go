package facematch

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/kozaktomas/facecheck/internal/annotate"
	"github.com/kozaktomas/facecheck/internal/embedding"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/kozaktomas/facecheck/internal/mock"
)

var (
	frameMarker = color.RGBA{R: 10, G: 20, B: 30, A: 255}
	boxGreen    = color.RGBA{G: 255, A: 255}
	boxA        = embedding.Box{Top: 10, Right: 60, Bottom: 60, Left: 10}
	boxB        = embedding.Box{Top: 10, Right: 150, Bottom: 60, Left: 100}
)

func testGallery() *gallery.Gallery {
	return &gallery.Gallery{
		Dir: "/faces",
		Entries: []gallery.Entry{
			{Label: "alice", File: "alice.jpg", Descriptor: embedding.Descriptor{0, 0}},
			{Label: "bob", File: "bob.jpg", Descriptor: embedding.Descriptor{10, 10}},
			{Label: "alice-2", File: "alice-2.jpg", Descriptor: embedding.Descriptor{0.1, 0}},
		},
	}
}

func newMatcher(enc embedding.Encoder) *Matcher {
	return NewMatcher(enc, annotate.New(annotate.DefaultStyle()), 0.6)
}

func TestMatch_NoFaces(t *testing.T) {
	enc := mock.NewMockEncoder()
	frame := mock.MarkerImage(frameMarker, 200, 100)
	before := append([]uint8(nil), frame.Pix...)

	res, err := newMatcher(enc).Match(context.Background(), frame, testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Matched {
		t.Error("expected matched=false")
	}
	if res.Message != MessageUnmatched {
		t.Errorf("expected message %q, got %q", MessageUnmatched, res.Message)
	}
	if len(res.Faces) != 0 || len(res.Labels) != 0 {
		t.Errorf("expected no faces or labels, got %+v", res)
	}
	if !bytes.Equal(before, frame.Pix) {
		t.Error("expected frame to be unchanged")
	}
}

func TestMatch_SingleMatch(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.SetFaces(frameMarker, embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{9.9, 10}})
	frame := mock.MarkerImage(frameMarker, 200, 100)

	res, err := newMatcher(enc).Match(context.Background(), frame, testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Matched || res.Message != MessageMatched {
		t.Errorf("expected Matched, got matched=%v message=%q", res.Matched, res.Message)
	}
	if len(res.Labels) != 1 || res.Labels[0] != "bob" {
		t.Errorf("expected labels [bob], got %v", res.Labels)
	}
	if res.Frame != frame {
		t.Error("expected the same frame buffer to be returned")
	}
	if frame.RGBAAt(boxA.Left, boxA.Top) != boxGreen || frame.RGBAAt(boxA.Right-1, boxA.Bottom-1) != boxGreen {
		t.Error("expected box corners to be drawn")
	}
	if frame.RGBAAt(boxB.Left, boxB.Top) != frameMarker {
		t.Error("expected no overlay outside the matched face")
	}
}

func TestMatch_BestRankedLabel(t *testing.T) {
	enc := mock.NewMockEncoder()
	// Within tolerance of both alice (0.09) and alice-2 (0.01).
	enc.SetFaces(frameMarker, embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{0.09, 0}})

	res, err := newMatcher(enc).Match(context.Background(), mock.MarkerImage(frameMarker, 200, 100), testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Faces) != 1 || res.Faces[0].Label != "alice-2" {
		t.Errorf("expected closest entry 'alice-2', got %+v", res.Faces)
	}
}

func TestMatch_MixedFaces(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.SetFaces(frameMarker,
		embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{5, 5}},
		embedding.Face{Box: boxB, Descriptor: embedding.Descriptor{0, 0}},
	)
	frame := mock.MarkerImage(frameMarker, 200, 100)

	res, err := newMatcher(enc).Match(context.Background(), frame, testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Matched || res.Message != MessageMatched {
		t.Errorf("expected aggregate match, got matched=%v message=%q", res.Matched, res.Message)
	}
	if len(res.Faces) != 2 {
		t.Fatalf("expected 2 face results, got %d", len(res.Faces))
	}
	if res.Faces[0].Matched || res.Faces[0].Label != "" {
		t.Errorf("expected first face unmatched, got %+v", res.Faces[0])
	}
	if !res.Faces[1].Matched || res.Faces[1].Label != "alice" {
		t.Errorf("expected second face matched as alice, got %+v", res.Faces[1])
	}
	if frame.RGBAAt(boxA.Left, boxA.Top) != frameMarker {
		t.Error("expected unmatched face to be left unannotated")
	}
	if frame.RGBAAt(boxB.Left, boxB.Top) != boxGreen {
		t.Error("expected matched face to be annotated")
	}
}

func TestMatch_AllMatchedFacesAnnotated(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.SetFaces(frameMarker,
		embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{0, 0}},
		embedding.Face{Box: boxB, Descriptor: embedding.Descriptor{10, 10}},
	)
	frame := mock.MarkerImage(frameMarker, 200, 100)

	res, err := newMatcher(enc).Match(context.Background(), frame, testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"alice", "bob"}
	if len(res.Labels) != len(expected) {
		t.Fatalf("expected labels %v, got %v", expected, res.Labels)
	}
	for i := range expected {
		if res.Labels[i] != expected[i] {
			t.Errorf("label %d: expected %s, got %s", i, expected[i], res.Labels[i])
		}
	}
	if frame.RGBAAt(boxA.Left, boxA.Top) != boxGreen || frame.RGBAAt(boxB.Left, boxB.Top) != boxGreen {
		t.Error("expected both faces to be annotated")
	}
}

func TestMatch_EmptyGallery(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.SetFaces(frameMarker, embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{0, 0}})

	res, err := newMatcher(enc).Match(context.Background(), mock.MarkerImage(frameMarker, 200, 100), &gallery.Gallery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched || res.Message != MessageUnmatched {
		t.Errorf("expected Unmatched against an empty gallery, got %+v", res)
	}
}

func TestMatch_UnmatchedAnnotationEnabled(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.SetFaces(frameMarker, embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{5, 5}})
	style := annotate.DefaultStyle()
	style.Unmatched = true
	frame := mock.MarkerImage(frameMarker, 200, 100)

	res, err := NewMatcher(enc, annotate.New(style), 0.6).Match(context.Background(), frame, testGallery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched {
		t.Error("expected no match")
	}
	if frame.RGBAAt(boxA.Left, boxA.Top) != style.UnmatchedColor {
		t.Error("expected unmatched box to be drawn")
	}
}

func TestMatch_EncoderError(t *testing.T) {
	enc := mock.NewMockEncoder()
	enc.EncodeError = errors.New("backend unavailable")

	_, err := newMatcher(enc).Match(context.Background(), mock.MarkerImage(frameMarker, 10, 10), testGallery())
	if !errors.Is(err, enc.EncodeError) {
		t.Errorf("expected encoder error, got %v", err)
	}
}

func TestNewMatcher_DefaultTolerance(t *testing.T) {
	tests := []struct {
		metric   embedding.Metric
		expected float64
	}{
		{embedding.MetricEuclidean, 0.6},
		{embedding.MetricCosine, 0.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			enc := mock.NewMockEncoder()
			enc.DistanceMetric = tt.metric

			m := NewMatcher(enc, nil, 0)
			if m.Metric() != tt.metric {
				t.Errorf("expected metric %q, got %q", tt.metric, m.Metric())
			}
			if m.Tolerance() != tt.expected {
				t.Errorf("expected default tolerance %v, got %f", tt.expected, m.Tolerance())
			}
		})
	}
}

func TestMatch_UsesEncoderMetric(t *testing.T) {
	g := &gallery.Gallery{
		Entries: []gallery.Entry{
			{Label: "alice", Descriptor: embedding.Descriptor{1, 0}},
			{Label: "bob", Descriptor: embedding.Descriptor{0, 1}},
		},
	}
	// Same direction as alice but far away in absolute terms.
	faceAlongAlice := embedding.Face{Box: boxA, Descriptor: embedding.Descriptor{5, 0.5}}

	tests := []struct {
		metric        embedding.Metric
		expectMatched bool
	}{
		{embedding.MetricCosine, true},
		{embedding.MetricEuclidean, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			enc := mock.NewMockEncoder()
			enc.DistanceMetric = tt.metric
			enc.SetFaces(frameMarker, faceAlongAlice)

			res, err := NewMatcher(enc, nil, 0).Match(context.Background(), mock.MarkerImage(frameMarker, 200, 100), g)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Matched != tt.expectMatched {
				t.Fatalf("expected matched=%v, got %v (faces %+v)", tt.expectMatched, res.Matched, res.Faces)
			}
			if tt.expectMatched && (len(res.Labels) != 1 || res.Labels[0] != "alice") {
				t.Errorf("expected labels [alice], got %v", res.Labels)
			}
		})
	}
}
