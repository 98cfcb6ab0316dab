package cmd

import (
	"fmt"

	"github.com/kozaktomas/facecheck/internal/annotate"
	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/camera/gocvcam"
	"github.com/kozaktomas/facecheck/internal/camera/v4l2cam"
	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/embedding"
	"github.com/kozaktomas/facecheck/internal/embedding/dlib"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

// newEncoder creates the configured face encoder. The returned cleanup func is never nil.
func newEncoder(cfg *config.Config) (embedding.Encoder, func(), error) {
	switch cfg.Face.Backend {
	case config.FaceBackendHTTP:
		return embedding.NewClient(cfg.Face.EmbeddingURL), func() {}, nil
	case config.FaceBackendDlib:
		enc, err := dlib.NewEncoder(cfg.Face.DlibModelsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading dlib models from %s: %w", cfg.Face.DlibModelsDir, err)
		}
		return enc, enc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown face backend: %s", cfg.Face.Backend)
	}
}

// newOpener returns a camera opener for the configured backend.
func newOpener(cfg *config.Config) (camera.Opener, error) {
	c := cfg.Camera
	switch c.Backend {
	case config.CameraBackendGoCV:
		return func() (camera.Camera, error) {
			cam, err := gocvcam.Open(c.Device, c.Width, c.Height)
			if err != nil {
				return nil, err
			}
			return cam, nil
		}, nil
	case config.CameraBackendV4L2:
		return func() (camera.Camera, error) {
			cam, err := v4l2cam.Open(c.DevicePath(), c.Width, c.Height)
			if err != nil {
				return nil, err
			}
			return cam, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown camera backend: %s", c.Backend)
	}
}

// newLoader creates a gallery loader using the embedded gallery defaults.
func newLoader(cfg *config.Config, enc embedding.Encoder) *gallery.Loader {
	opts := gallery.DefaultOptions()
	if exts := cfg.Defaults.Gallery.Extensions; len(exts) > 0 {
		opts.Extensions = exts
	}
	if cfg.Defaults.Gallery.MaxDimension > 0 {
		opts.MaxDimension = cfg.Defaults.Gallery.MaxDimension
	}
	return gallery.NewLoader(enc, opts)
}

// newService wires encoder, camera, annotator and loader into a recognition service.
func newService(cfg *config.Config) (*recognition.Service, func(), error) {
	enc, cleanup, err := newEncoder(cfg)
	if err != nil {
		return nil, nil, err
	}

	opener, err := newOpener(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	style, err := annotate.StyleFromConfig(cfg.Defaults.Annotate)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("invalid annotation defaults: %w", err)
	}

	svc := recognition.New(
		newLoader(cfg, enc),
		facematch.NewMatcher(enc, annotate.New(style), cfg.Face.Tolerance),
		opener,
		recognition.Options{
			CaptureTimeout: cfg.Camera.CaptureTimeout,
			GalleryRoot:    cfg.Gallery.Root,
			JPEGQuality:    cfg.Defaults.Output.JPEGQuality,
		},
	)
	return svc, cleanup, nil
}
