// Package v4l2cam captures MJPEG frames from a Linux V4L2 device.
package v4l2cam

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"sync/atomic"

	"github.com/blackjack/webcam"
	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/constants"
)

// pixFmtMJPEG is V4L2_PIX_FMT_MJPEG ('M','J','P','G').
const pixFmtMJPEG webcam.PixelFormat = 0x47504A4D

var errClosed = errors.New("camera closed")

// Camera is a streaming V4L2 device.
type Camera struct {
	mu     sync.Mutex
	cam    *webcam.Webcam
	closed atomic.Bool
}

// Open opens path (e.g. /dev/video0), negotiates MJPEG at the requested size and
// starts streaming.
func Open(path string, width, height int) (*Camera, error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, &camera.CaptureError{Op: "open", Kind: camera.ErrDeviceUnavailable, Err: err}
	}

	if _, ok := cam.GetSupportedFormats()[pixFmtMJPEG]; !ok {
		cam.Close()
		return nil, &camera.CaptureError{
			Op:   "open",
			Kind: camera.ErrDeviceUnavailable,
			Err:  fmt.Errorf("%s does not support MJPEG", path),
		}
	}

	if _, _, _, err := cam.SetImageFormat(pixFmtMJPEG, uint32(width), uint32(height)); err != nil {
		cam.Close()
		return nil, &camera.CaptureError{Op: "configure", Kind: camera.ErrDeviceUnavailable, Err: err}
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, &camera.CaptureError{Op: "stream", Kind: camera.ErrDeviceUnavailable, Err: err}
	}

	return &Camera{cam: cam}, nil
}

// Read implements camera.Camera. It polls the device in short intervals so that
// Close can interrupt a read that never receives a frame.
func (c *Camera) Read() (*image.RGBA, error) {
	for {
		frame, err := c.poll()
		if err != nil {
			return nil, err
		}
		if frame == nil {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, &camera.CaptureError{Op: "decode", Kind: camera.ErrReadFailed, Err: err}
		}
		return camera.ToRGBA(img), nil
	}
}

// poll waits once for a frame. A nil frame with nil error means the wait timed out.
func (c *Camera) poll() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrReadFailed, Err: errClosed}
	}

	err := c.cam.WaitForFrame(constants.V4L2WaitSeconds)
	switch err.(type) {
	case nil:
	case *webcam.Timeout:
		return nil, nil
	default:
		return nil, &camera.CaptureError{Op: "wait", Kind: camera.ErrReadFailed, Err: err}
	}

	frame, err := c.cam.ReadFrame()
	if err != nil {
		return nil, &camera.CaptureError{Op: "read", Kind: camera.ErrReadFailed, Err: err}
	}
	if len(frame) == 0 {
		return nil, nil
	}
	// The driver reuses its buffer on the next read.
	out := make([]byte, len(frame))
	copy(out, frame)
	return out, nil
}

// Close stops streaming and releases the device.
func (c *Camera) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.cam.StopStreaming(); err != nil {
		c.cam.Close()
		return fmt.Errorf("stopping stream: %w", err)
	}
	return c.cam.Close()
}
