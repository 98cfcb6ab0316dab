package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

// RecognizeHandler handles single-shot recognition.
type RecognizeHandler struct {
	service *recognition.Service
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(svc *recognition.Service) *RecognizeHandler {
	return &RecognizeHandler{service: svc}
}

// RecognizeResponse is the result of a recognition request.
// Image is the annotated JPEG frame, base64 encoded in JSON.
type RecognizeResponse struct {
	Image       []byte                `json:"image"`
	Message     string                `json:"message"`
	Matched     bool                  `json:"matched"`
	Labels      []string              `json:"labels"`
	Faces       []facematch.FaceMatch `json:"faces"`
	GallerySize int                   `json:"gallery_size"`
	Skipped     []gallery.SkippedFile `json:"skipped,omitempty"`
}

// Recognize loads the requested gallery, captures one frame and returns it annotated.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	folder, err := readFolder(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if folder == "" {
		respondError(w, http.StatusBadRequest, errMissingFolder)
		return
	}

	report, err := h.service.Recognize(r.Context(), folder)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	img, err := h.service.EncodeFrame(report.Frame)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("Recognize %s: %s [%s]", sanitizeForLog(folder), report.Message, sanitizeForLog(strings.Join(report.Labels, ", ")))

	respondJSON(w, http.StatusOK, RecognizeResponse{
		Image:       img,
		Message:     report.Message,
		Matched:     report.Matched,
		Labels:      report.Labels,
		Faces:       report.Faces,
		GallerySize: report.Gallery.Len(),
		Skipped:     report.Gallery.Skipped,
	})
}
