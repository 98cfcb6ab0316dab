package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/facecheck/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Camera backends
const (
	CameraBackendGoCV = "gocv"
	CameraBackendV4L2 = "v4l2"
)

// Face recognition backends
const (
	FaceBackendHTTP = "http"
	FaceBackendDlib = "dlib"
)

type Config struct {
	Camera   CameraConfig
	Face     FaceConfig
	Gallery  GalleryConfig
	Watch    WatchConfig
	Defaults DefaultsConfig
}

type CameraConfig struct {
	Backend        string        // gocv (default) or v4l2
	Device         string        // device index for gocv, device path for v4l2
	Width          int           // requested capture width (default 640)
	Height         int           // requested capture height (default 480)
	CaptureTimeout time.Duration // bound for a single frame read (default 10s)
}

// DevicePath returns the V4L2 device path. A bare index such as "0" maps to /dev/video0.
func (c *CameraConfig) DevicePath() string {
	if _, err := strconv.Atoi(c.Device); err == nil {
		return "/dev/video" + c.Device
	}
	return c.Device
}

type FaceConfig struct {
	Backend       string  // http (default) or dlib
	EmbeddingURL  string  // defaults to http://localhost:8000
	DlibModelsDir string  // defaults to ./models
	Tolerance     float64 // match threshold, 0 selects the backend default (cosine 0.5, Euclidean 0.6)
}

type GalleryConfig struct {
	Root string // optional directory that every gallery path must resolve inside
}

type WatchConfig struct {
	MaxFrames int // frame cap for live sessions, 0 means unlimited
}

type DefaultsConfig struct {
	Annotate AnnotateConfig  `yaml:"annotate"`
	Gallery  GalleryDefaults `yaml:"gallery"`
	Output   OutputDefaults  `yaml:"output"`
}

type AnnotateConfig struct {
	BoxColor       string `yaml:"box_color"`
	BoxThickness   int    `yaml:"box_thickness"`
	TextColor      string `yaml:"text_color"`
	TextOffset     Offset `yaml:"text_offset"`
	Unmatched      bool   `yaml:"unmatched"`
	UnmatchedColor string `yaml:"unmatched_color"`
	UnmatchedLabel string `yaml:"unmatched_label"`
}

type Offset struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type GalleryDefaults struct {
	Extensions   []string `yaml:"extensions"`
	MaxDimension int      `yaml:"max_dimension"`
}

type OutputDefaults struct {
	JPEGQuality int `yaml:"jpeg_quality"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration ("10s", "500ms").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString returns the trimmed value of an environment variable or the default.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Camera: CameraConfig{
			Backend:        strings.ToLower(envString("CAMERA_BACKEND", CameraBackendGoCV)),
			Device:         envString("CAMERA_DEVICE", "0"),
			Width:          envInt("CAMERA_WIDTH", constants.DefaultCameraWidth),
			Height:         envInt("CAMERA_HEIGHT", constants.DefaultCameraHeight),
			CaptureTimeout: envDuration("CAPTURE_TIMEOUT", constants.DefaultCaptureTimeout),
		},
		Face: FaceConfig{
			Backend:       strings.ToLower(envString("FACE_BACKEND", FaceBackendHTTP)),
			EmbeddingURL:  os.Getenv("EMBEDDING_URL"),
			DlibModelsDir: envString("DLIB_MODELS_DIR", "./models"),
			Tolerance:     envFloat("MATCH_TOLERANCE", 0),
		},
		Gallery: GalleryConfig{
			Root: os.Getenv("GALLERY_ROOT"),
		},
		Watch: WatchConfig{
			MaxFrames: envInt("WATCH_MAX_FRAMES", 0),
		},
		Defaults: defaults,
	}
}
