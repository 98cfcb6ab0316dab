// Package camera acquires still frames from a capture device.
//
// Backends live in sub-packages (gocvcam, v4l2cam) so that this package and
// everything that depends on it can be built and tested without cgo or a device.
package camera

import (
	"context"
	"errors"
	"image"
	"time"

	"golang.org/x/image/draw"
)

// Camera is an open capture device. Read blocks until a frame is available.
// Close must not wait for a blocked Read; a backend that cannot interrupt the
// driver releases the device once that Read returns.
type Camera interface {
	Read() (*image.RGBA, error)
	Close() error
}

// Opener opens the configured capture device.
type Opener func() (Camera, error)

// Open opens a camera through opener. Any failure is reported as a CaptureError
// of kind ErrDeviceUnavailable unless the backend already classified it.
func Open(opener Opener) (Camera, error) {
	cam, err := opener()
	if err != nil {
		var ce *CaptureError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &CaptureError{Op: "open", Kind: ErrDeviceUnavailable, Err: err}
	}
	return cam, nil
}

type readResult struct {
	frame *image.RGBA
	err   error
}

// ReadFrame reads a single frame, bounded by timeout and ctx.
//
// A read that does not finish in time yields a CaptureError of kind ErrCaptureTimeout.
// The blocked backend read is abandoned and its result discarded. The caller still
// owns the camera and must Close it; see Abandoned.
func ReadFrame(ctx context.Context, cam Camera, timeout time.Duration) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan readResult, 1)
	go func() {
		frame, err := cam.Read()
		done <- readResult{frame: frame, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-done:
		if res.err != nil {
			var ce *CaptureError
			if errors.As(res.err, &ce) {
				return nil, res.err
			}
			return nil, &CaptureError{Op: "read", Kind: ErrReadFailed, Err: res.err}
		}
		if res.frame == nil || res.frame.Bounds().Empty() {
			return nil, &CaptureError{Op: "read", Kind: ErrReadFailed}
		}
		return res.frame, nil
	case <-expired:
		return nil, &CaptureError{Op: "read", Kind: ErrCaptureTimeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ToRGBA returns img as *image.RGBA, converting when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Abandoned reports whether err means ReadFrame gave up on a read that may
// still be blocked in the backend.
func Abandoned(err error) bool {
	return errors.Is(err, ErrCaptureTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
