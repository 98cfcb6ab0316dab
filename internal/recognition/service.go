// Package recognition wires the gallery loader, frame source and matcher into
// the single-shot and continuous recognition flows used by every frontend.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
)

var (
	// ErrOutsideRoot is returned when a gallery path escapes the configured root.
	ErrOutsideRoot = errors.New("gallery path outside allowed root")
	// ErrStop can be returned from a watch callback to end the loop without error.
	ErrStop = errors.New("stop requested")
)

// Options configures a Service.
type Options struct {
	CaptureTimeout time.Duration
	GalleryRoot    string
	JPEGQuality    int
	Device         *camera.Device // shared lock; a private one is created when nil
}

// Service runs recognition against the configured camera.
type Service struct {
	loader         *gallery.Loader
	matcher        *facematch.Matcher
	openCamera     camera.Opener
	device         *camera.Device
	captureTimeout time.Duration
	galleryRoot    string
	jpegQuality    int
}

// Report is the outcome of a single-shot recognition.
type Report struct {
	*facematch.Result
	Gallery *gallery.Gallery
}

// New creates a recognition service. Zero options select the defaults: a 10s
// capture timeout, JPEG quality 85 and a private device lock.
func New(loader *gallery.Loader, matcher *facematch.Matcher, opener camera.Opener, opts Options) *Service {
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = constants.DefaultCaptureTimeout
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = constants.DefaultJPEGQuality
	}
	if opts.Device == nil {
		opts.Device = camera.NewDevice()
	}
	return &Service{
		loader:         loader,
		matcher:        matcher,
		openCamera:     opener,
		device:         opts.Device,
		captureTimeout: opts.CaptureTimeout,
		galleryRoot:    opts.GalleryRoot,
		jpegQuality:    opts.JPEGQuality,
	}
}

// Matcher returns the matcher used by the service.
func (s *Service) Matcher() *facematch.Matcher {
	return s.matcher
}

// CaptureTimeout returns the per-frame read bound.
func (s *Service) CaptureTimeout() time.Duration {
	return s.captureTimeout
}

// GalleryRoot returns the configured gallery root, empty when unrestricted.
func (s *Service) GalleryRoot() string {
	return s.galleryRoot
}

// LoadGallery resolves dir against the gallery root and loads it.
func (s *Service) LoadGallery(ctx context.Context, dir string) (*gallery.Gallery, error) {
	resolved, err := ResolveGalleryDir(s.galleryRoot, dir)
	if err != nil {
		return nil, err
	}
	g, err := s.loader.Load(ctx, resolved)
	if err != nil {
		return nil, err
	}
	if len(g.Skipped) > 0 {
		log.Printf("Gallery %s: %d entries, %d files skipped", resolved, g.Len(), len(g.Skipped))
	}
	return g, nil
}

// Recognize loads the gallery in dir, captures one frame and matches it.
// The camera is opened for this call only and closed before matching starts.
func (s *Service) Recognize(ctx context.Context, dir string) (*Report, error) {
	g, err := s.LoadGallery(ctx, dir)
	if err != nil {
		return nil, err
	}

	frame, err := s.captureOne(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.matcher.Match(ctx, frame, g)
	if err != nil {
		return nil, err
	}
	return &Report{Result: res, Gallery: g}, nil
}

func (s *Service) captureOne(ctx context.Context) (*image.RGBA, error) {
	cam, release, err := s.openDevice(ctx)
	if err != nil {
		return nil, err
	}

	frame, err := camera.ReadFrame(ctx, cam, s.captureTimeout)
	closeCamera(cam, release, err)
	return frame, err
}

// openDevice takes the device lock, waiting at most one capture timeout, and
// opens the camera. The caller hands both back through closeCamera.
func (s *Service) openDevice(ctx context.Context) (camera.Camera, func(), error) {
	release, err := s.device.AcquireWithin(ctx, s.captureTimeout)
	if err != nil {
		return nil, nil, err
	}

	cam, err := camera.Open(s.openCamera)
	if err != nil {
		release()
		return nil, nil, err
	}
	return cam, release, nil
}

// closeCamera closes cam and then releases the device lock. After an abandoned
// read the backend may still be blocked, so closing happens in the background and
// the device stays locked until the backend lets go.
func closeCamera(cam camera.Camera, release func(), readErr error) {
	closeAndRelease := func() {
		if err := cam.Close(); err != nil {
			log.Printf("Warning: closing camera: %v", err)
		}
		release()
	}
	if camera.Abandoned(readErr) {
		go closeAndRelease()
		return
	}
	closeAndRelease()
}

// ResolveGalleryDir cleans dir and, when root is set, ensures it stays inside root.
// Relative paths are taken relative to root.
func ResolveGalleryDir(root, dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", fmt.Errorf("%w: empty path", gallery.ErrGalleryDir)
	}
	if root == "" {
		return filepath.Clean(dir), nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving gallery root: %w", err)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(absRoot, dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving gallery path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return absDir, nil
}
