package camera

import (
	"context"
	"errors"
	"time"
)

// ErrDeviceBusy is the cause reported when the device stays locked for the whole wait.
var ErrDeviceBusy = errors.New("device busy")

// Device serializes access to a single physical camera across concurrent
// requests and sessions.
type Device struct {
	sem chan struct{}
}

// NewDevice returns an unlocked device.
func NewDevice() *Device {
	return &Device{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the device is free or ctx is done.
// The returned release func must be called exactly once.
func (d *Device) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case d.sem <- struct{}{}:
		return func() { <-d.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AcquireWithin is Acquire bounded by wait. A device still held when wait
// expires yields a CaptureError of kind ErrDeviceUnavailable; cancellation of
// ctx itself is returned as ctx.Err().
func (d *Device) AcquireWithin(ctx context.Context, wait time.Duration) (release func(), err error) {
	if wait <= 0 {
		return d.Acquire(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	release, err = d.Acquire(waitCtx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CaptureError{Op: "acquire", Kind: ErrDeviceUnavailable, Err: ErrDeviceBusy}
	}
	return release, nil
}
