// Package gocvcam captures frames through OpenCV (gocv).
package gocvcam

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/kozaktomas/facecheck/internal/camera"
	"gocv.io/x/gocv"
)

var (
	errClosed = errors.New("camera closed")
	errBusy   = errors.New("read already in progress")
)

// Camera is an OpenCV video capture device.
//
// mu guards the state flags only and is never held across a device read, so
// Close does not wait for a hung Read. When Close arrives mid-read the native
// handles are released by Read once the device returns.
type Camera struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	mat     gocv.Mat
	reading bool
	closed  bool
}

// Open opens device, which is either a numeric index ("0") or a path or URL.
// Width and height are requested when positive; the driver may pick the nearest mode.
func Open(device string, width, height int) (*Camera, error) {
	var id any = device
	if n, err := strconv.Atoi(device); err == nil {
		id = n
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, &camera.CaptureError{Op: "open", Kind: camera.ErrDeviceUnavailable, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, &camera.CaptureError{
			Op:   "open",
			Kind: camera.ErrDeviceUnavailable,
			Err:  fmt.Errorf("device %s did not open", device),
		}
	}

	if width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	return &Camera{vc: vc, mat: gocv.NewMat()}, nil
}

// Read implements camera.Camera. Concurrent reads are rejected.
func (c *Camera) Read() (*image.RGBA, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrDeviceUnavailable, Err: errClosed}
	case c.reading:
		c.mu.Unlock()
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrReadFailed, Err: errBusy}
	}
	c.reading = true
	c.mu.Unlock()

	img, err := c.read()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading = false
	if c.closed {
		c.release()
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrDeviceUnavailable, Err: errClosed}
	}
	return img, err
}

func (c *Camera) read() (*image.RGBA, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrReadFailed}
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrReadFailed, Err: err}
	}
	return camera.ToRGBA(img), nil
}

// Close releases the device. It returns immediately; if a Read is still blocked
// in the driver, that Read releases the device when it returns.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.reading {
		return nil
	}
	return c.release()
}

// release frees the native handles. Callers hold mu.
func (c *Camera) release() error {
	c.mat.Close()
	return c.vc.Close()
}
