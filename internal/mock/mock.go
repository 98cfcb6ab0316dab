// Package mock provides mock implementations of the encoder and camera interfaces for testing.
//
// MockEncoder has no real detector: it identifies an image by the color of its
// top-left pixel and returns the faces registered for that color.
package mock

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"

	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/embedding"
)

// MarkerImage returns a w x h image filled with marker.
func MarkerImage(marker color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = marker.R
		img.Pix[i+1] = marker.G
		img.Pix[i+2] = marker.B
		img.Pix[i+3] = marker.A
	}
	return img
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MockEncoder is a mock implementation of embedding.Encoder
type MockEncoder struct {
	mu    sync.Mutex
	faces map[color.RGBA][]embedding.Face
	calls int

	// DistanceMetric is reported by Metric; empty means Euclidean
	DistanceMetric embedding.Metric

	// Error injection
	EncodeError error
}

// NewMockEncoder creates a new mock encoder
func NewMockEncoder() *MockEncoder {
	return &MockEncoder{faces: make(map[color.RGBA][]embedding.Face)}
}

// SetFaces registers the faces returned for images whose top-left pixel is marker
func (m *MockEncoder) SetFaces(marker color.RGBA, faces ...embedding.Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[marker] = faces
}

// Encode returns the faces registered for the image's marker color
func (m *MockEncoder) Encode(ctx context.Context, img image.Image) ([]embedding.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.EncodeError != nil {
		return nil, m.EncodeError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	marker := color.RGBAModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.RGBA)
	faces := m.faces[marker]
	out := make([]embedding.Face, len(faces))
	copy(out, faces)
	return out, nil
}

// Metric implements embedding.Encoder
func (m *MockEncoder) Metric() embedding.Metric {
	if m.DistanceMetric == "" {
		return embedding.MetricEuclidean
	}
	return m.DistanceMetric
}

// Calls returns the number of Encode calls
func (m *MockEncoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ErrCameraClosed is returned by MockCamera.Read after Close.
var ErrCameraClosed = errors.New("mock camera closed")

// MockCamera is a mock implementation of camera.Camera.
// Read returns copies of the queued frames in order and repeats the last one.
type MockCamera struct {
	mu      sync.Mutex
	frames  []*image.RGBA
	reads   int
	closed  bool
	closeCh chan struct{}

	// Error injection
	ReadError error
	OpenError error

	// Block makes Read wait until Close is called
	Block bool
}

// NewMockCamera creates a mock camera serving frames
func NewMockCamera(frames ...*image.RGBA) *MockCamera {
	return &MockCamera{frames: frames, closeCh: make(chan struct{})}
}

// Read returns the next frame
func (m *MockCamera) Read() (*image.RGBA, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrCameraClosed
	}
	m.reads++
	if m.Block {
		m.mu.Unlock()
		<-m.closeCh
		return nil, ErrCameraClosed
	}
	defer m.mu.Unlock()

	if m.ReadError != nil {
		return nil, m.ReadError
	}
	if len(m.frames) == 0 {
		return nil, nil
	}

	idx := min(m.reads-1, len(m.frames)-1)
	src := m.frames[idx]
	frame := image.NewRGBA(src.Bounds())
	copy(frame.Pix, src.Pix)
	return frame, nil
}

// Close marks the camera closed and unblocks pending reads
func (m *MockCamera) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closeCh)
	}
	return nil
}

// Opener returns a camera.Opener that yields this camera or OpenError
func (m *MockCamera) Opener() camera.Opener {
	return func() (camera.Camera, error) {
		if m.OpenError != nil {
			return nil, m.OpenError
		}
		return m, nil
	}
}

// Reads returns the number of Read calls
func (m *MockCamera) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether Close was called
func (m *MockCamera) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
