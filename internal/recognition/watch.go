package recognition

import (
	"context"
	"errors"

	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
)

// StopReason describes why a watch loop ended.
type StopReason string

const (
	StopMatched   StopReason = "matched"
	StopRequested StopReason = "stopped"
	StopCancelled StopReason = "cancelled"
	StopMaxFrames StopReason = "max_frames"
)

// WatchOptions configures a watch loop.
type WatchOptions struct {
	MaxFrames int // 0 means unlimited
}

// Update is delivered to the watch callback after every processed frame.
type Update struct {
	Index  int // 1-based frame counter
	Result *facematch.Result
}

// WatchReport summarizes a finished watch loop.
type WatchReport struct {
	Gallery *gallery.Gallery
	Frames  int
	Stop    StopReason
	Last    *facematch.Result
}

// Watch loads the gallery once, then keeps capturing and matching frames from a
// single open camera until a face matches, onFrame returns ErrStop, ctx is done
// or MaxFrames frames have been processed.
//
// The device lock is held for the whole loop; a device still held elsewhere after
// one capture timeout fails the watch with ErrDeviceUnavailable. Cancellation and ErrStop end the
// loop with a nil error; capture and encoder failures end it with that error.
func (s *Service) Watch(ctx context.Context, dir string, opts WatchOptions, onFrame func(*Update) error) (*WatchReport, error) {
	g, err := s.LoadGallery(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return &WatchReport{Stop: StopCancelled}, nil
		}
		return nil, err
	}
	report := &WatchReport{Gallery: g}

	cam, release, err := s.openDevice(ctx)
	if err != nil {
		if ctx.Err() != nil {
			report.Stop = StopCancelled
			return report, nil
		}
		return nil, err
	}
	var readErr error
	defer func() { closeCamera(cam, release, readErr) }()

	for {
		if opts.MaxFrames > 0 && report.Frames >= opts.MaxFrames {
			report.Stop = StopMaxFrames
			return report, nil
		}

		frame, err := camera.ReadFrame(ctx, cam, s.captureTimeout)
		if err != nil {
			readErr = err
			return stopOnCancel(ctx, report, err)
		}

		res, err := s.matcher.Match(ctx, frame, g)
		if err != nil {
			return stopOnCancel(ctx, report, err)
		}
		report.Frames++
		report.Last = res

		if onFrame != nil {
			if err := onFrame(&Update{Index: report.Frames, Result: res}); err != nil {
				if errors.Is(err, ErrStop) {
					report.Stop = StopRequested
					return report, nil
				}
				return report, err
			}
		}

		if res.Matched {
			report.Stop = StopMatched
			return report, nil
		}
	}
}

func stopOnCancel(ctx context.Context, report *WatchReport, err error) (*WatchReport, error) {
	if ctx.Err() != nil {
		report.Stop = StopCancelled
		return report, nil
	}
	return report, err
}
