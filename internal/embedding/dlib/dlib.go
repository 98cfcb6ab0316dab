// Package dlib provides an embedding.Encoder backed by dlib through go-face.
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
package dlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/embedding"
)

// ErrClosed is returned when Encode is called after Close.
var ErrClosed = errors.New("dlib encoder closed")

// Encoder wraps a go-face recognizer. The underlying C recognizer is not safe
// for concurrent use, so calls are serialized.
type Encoder struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// NewEncoder loads the dlib models from modelsDir.
func NewEncoder(modelsDir string) (*Encoder, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", modelsDir, err)
	}
	return &Encoder{rec: rec}, nil
}

// Metric implements embedding.Encoder.
func (e *Encoder) Metric() embedding.Metric {
	return embedding.MetricEuclidean
}

// Encode implements embedding.Encoder.
func (e *Encoder) Encode(ctx context.Context, img image.Image) ([]embedding.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.EncoderJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec == nil {
		return nil, ErrClosed
	}

	detected, err := e.rec.Recognize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("recognizing faces: %w", err)
	}

	faces := make([]embedding.Face, len(detected))
	for i, f := range detected {
		desc := make(embedding.Descriptor, len(f.Descriptor))
		copy(desc, f.Descriptor[:])
		faces[i] = embedding.Face{
			Box:        embedding.BoxFromRect(f.Rectangle),
			Descriptor: desc,
		}
	}
	return faces, nil
}

// Close releases the recognizer.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
}
