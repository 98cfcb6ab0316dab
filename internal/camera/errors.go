package camera

import (
	"errors"
	"strings"
)

// Capture error kinds.
var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrReadFailed        = errors.New("frame read failed")
	ErrCaptureTimeout    = errors.New("capture timed out")
)

// CaptureError reports a failed camera operation. Kind is one of the ErrXxx
// sentinels above and Err is the backend cause, if any. Both match errors.Is.
type CaptureError struct {
	Op   string
	Kind error
	Err  error
}

func (e *CaptureError) Error() string {
	var sb strings.Builder
	sb.WriteString("capture")
	if e.Op != "" {
		sb.WriteString(" " + e.Op)
	}
	if e.Kind != nil {
		sb.WriteString(": " + e.Kind.Error())
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *CaptureError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
