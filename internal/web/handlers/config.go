package handlers

import (
	"net/http"

	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/facematch"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config  *config.Config
	matcher *facematch.Matcher
}

// NewConfigHandler creates a new config handler. The matcher supplies the
// effective metric and tolerance; without one the configured tolerance is reported.
func NewConfigHandler(cfg *config.Config, matcher *facematch.Matcher) *ConfigHandler {
	return &ConfigHandler{
		config:  cfg,
		matcher: matcher,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	CameraBackend     string   `json:"camera_backend"`
	FaceBackend       string   `json:"face_backend"`
	Metric            string   `json:"metric,omitempty"`
	Tolerance         float64  `json:"tolerance"`
	CaptureTimeout    string   `json:"capture_timeout"`
	GalleryRootSet    bool     `json:"gallery_root_set"`
	WatchMaxFrames    int      `json:"watch_max_frames"`
	Extensions        []string `json:"extensions"`
	AnnotateUnmatched bool     `json:"annotate_unmatched"`
}

// Get returns the active recognition settings
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := ConfigResponse{
		CameraBackend:     h.config.Camera.Backend,
		FaceBackend:       h.config.Face.Backend,
		Tolerance:         h.config.Face.Tolerance,
		CaptureTimeout:    h.config.Camera.CaptureTimeout.String(),
		GalleryRootSet:    h.config.Gallery.Root != "",
		WatchMaxFrames:    h.config.Watch.MaxFrames,
		Extensions:        h.config.Defaults.Gallery.Extensions,
		AnnotateUnmatched: h.config.Defaults.Annotate.Unmatched,
	}
	if h.matcher != nil {
		resp.Metric = string(h.matcher.Metric())
		resp.Tolerance = h.matcher.Tolerance()
	}
	respondJSON(w, http.StatusOK, resp)
}
